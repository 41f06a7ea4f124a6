// Package router wraps a consistent hashing ring behind a read-write lock
// and pairs each ring node with its dialable endpoint address. Lookups run
// concurrently; membership changes take the write lock for the whole
// multi-point ring update, so no reader ever observes a partially applied
// join or leave.
package router
