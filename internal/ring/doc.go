// Package ring implements a consistent hashing ring with virtual nodes.
// Keys and node replicas are hashed onto a 128-bit circular space; a key
// belongs to the nearest replica point at or after its hash, wrapping to
// the first point. Adding or removing a node remaps only the keys that
// fell on that node's arcs, on average about 1/N of the key space.
//
// The ring itself is not synchronized. Callers that share a ring across
// goroutines must guard it externally; see the router package for a
// lock-guarded view.
package ring
