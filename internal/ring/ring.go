package ring

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"iter"
	"sort"
)

// DefaultReplicas is the number of virtual points placed per node when the
// caller does not ask for a specific count.
const DefaultReplicas = 3

// ErrUnknownNode is returned when removing a node whose replica points are
// not on the ring, either because it was never added or was already removed.
var ErrUnknownNode = errors.New("node not present on ring")

// Position is a point on the ring: the full 128-bit digest of the hashing
// input, ordered by big-endian byte comparison.
type Position [md5.Size]byte

// Less reports whether p orders before q on the ring.
func (p Position) Less(q Position) bool {
	return bytes.Compare(p[:], q[:]) < 0
}

// String returns the position as lowercase hex.
func (p Position) String() string {
	return hex.EncodeToString(p[:])
}

// Hash maps a string key to its ring position. It is deterministic and
// stable across processes, so independent rings holding the same node set
// agree on ownership.
func Hash(key string) Position {
	return md5.Sum([]byte(key))
}

// Ring implements consistent hashing with virtual nodes.
//
// positions is kept sorted ascending and always holds exactly the keys of
// points. The replica count is fixed at construction; changing it would
// require rebuilding the whole ring.
type Ring struct {
	replicas  int
	points    map[Position]string
	positions []Position
}

// New creates a ring with the given replica count and adds the supplied
// nodes in order. A non-positive replica count falls back to
// DefaultReplicas. The ring may start empty; lookups return the empty
// sentinel until a node is added.
func New(replicas int, nodes ...string) *Ring {
	if replicas <= 0 {
		replicas = DefaultReplicas
	}
	r := &Ring{
		replicas: replicas,
		points:   make(map[Position]string),
	}
	for _, node := range nodes {
		r.AddNode(node)
	}
	return r
}

// Replicas returns the number of virtual points placed per node.
func (r *Ring) Replicas() int {
	return r.replicas
}

// Len returns the number of points currently on the ring.
func (r *Ring) Len() int {
	return len(r.positions)
}

// replicaPosition returns the position of the i-th virtual point for node.
func replicaPosition(node string, i int) Position {
	return Hash(fmt.Sprintf("%s:%d", node, i))
}

// AddNode places the node's replica points on the ring. Lookups for keys
// that hash into the new arcs change owner immediately.
//
// Known limitation: if a replica point collides with an existing point
// (two inputs hashing to the same 128-bit value), the later insert silently
// takes over that point. Collisions are not detected or reported.
func (r *Ring) AddNode(node string) {
	for i := 0; i < r.replicas; i++ {
		pos := replicaPosition(node, i)
		if _, taken := r.points[pos]; taken {
			// Collision: the position is already on the ring, so only
			// the ownership changes.
			r.points[pos] = node
			continue
		}
		r.points[pos] = node
		// Insert in sorted order.
		idx := sort.Search(len(r.positions), func(j int) bool {
			return !r.positions[j].Less(pos)
		})
		r.positions = append(r.positions[:idx], append([]Position{pos}, r.positions[idx:]...)...)
	}
}

// RemoveNode removes the node's replica points from the ring. Removing a
// node that is not fully present fails with ErrUnknownNode; points removed
// before the failure is detected stay removed.
func (r *Ring) RemoveNode(node string) error {
	for i := 0; i < r.replicas; i++ {
		pos := replicaPosition(node, i)
		if _, present := r.points[pos]; !present {
			return fmt.Errorf("remove node %q (replica %d): %w", node, i, ErrUnknownNode)
		}
		delete(r.points, pos)
		idx := sort.Search(len(r.positions), func(j int) bool {
			return !r.positions[j].Less(pos)
		})
		r.positions = append(r.positions[:idx], r.positions[idx+1:]...)
	}
	return nil
}

// Lookup returns the node owning the given string key along with the index
// of the owning point in the sorted position sequence. A key belongs to the
// first point at or after its hash; a key hashing past the last point wraps
// to the first. Returns ("", 0, false) when the ring is empty.
func (r *Ring) Lookup(key string) (string, int, bool) {
	if len(r.positions) == 0 {
		return "", 0, false
	}
	pos := Hash(key)
	idx := sort.Search(len(r.positions), func(j int) bool {
		return !r.positions[j].Less(pos)
	})
	if idx == len(r.positions) {
		idx = 0
	}
	return r.points[r.positions[idx]], idx, true
}

// GetNode returns the node owning the given string key, or "" when the
// ring is empty.
func (r *Ring) GetNode(key string) string {
	node, _, _ := r.Lookup(key)
	return node
}

// Iterate returns a lazy sequence of node identifiers starting at the point
// owning key: the owners of every point from there to the end of the ring,
// then the whole ring from the start, repeating forever. Virtual points of
// the same node are revisited; callers wanting distinct nodes should
// deduplicate (or use PreferenceList) and must bound consumption
// themselves. On an empty ring the sequence yields a single "" and stops.
//
// Each call starts a fresh sequence. The sequence reads the live ring, so
// it must not be interleaved with membership changes.
func (r *Ring) Iterate(key string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_, start, ok := r.Lookup(key)
		if !ok {
			yield("")
			return
		}
		for _, pos := range r.positions[start:] {
			if !yield(r.points[pos]) {
				return
			}
		}
		for {
			for _, pos := range r.positions {
				if !yield(r.points[pos]) {
					return
				}
			}
		}
	}
}

// PreferenceList returns the first k distinct nodes clockwise from the
// key's position, starting with the owning node. Fewer than k are returned
// when the ring has fewer distinct nodes.
func (r *Ring) PreferenceList(key string, k int) []string {
	if len(r.positions) == 0 || k <= 0 {
		return nil
	}
	_, start, _ := r.Lookup(key)

	seen := make(map[string]bool)
	result := make([]string, 0, k)
	for i := 0; i < len(r.positions) && len(result) < k; i++ {
		node := r.points[r.positions[(start+i)%len(r.positions)]]
		if !seen[node] {
			seen[node] = true
			result = append(result, node)
		}
	}
	return result
}

// Nodes returns the distinct nodes currently on the ring, sorted.
func (r *Ring) Nodes() []string {
	seen := make(map[string]bool)
	nodes := make([]string, 0)
	for _, node := range r.points {
		if !seen[node] {
			seen[node] = true
			nodes = append(nodes, node)
		}
	}
	sort.Strings(nodes)
	return nodes
}
