package router

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"hashring/internal/config"
	"hashring/internal/ring"
)

// defaultCacheSize bounds the key->node resolution cache.
const defaultCacheSize = 4096

var (
	// ErrMemberExists is returned when joining an ID already in the view.
	ErrMemberExists = errors.New("member already joined")
	// ErrUnknownMember is returned when leaving an ID not in the view.
	ErrUnknownMember = errors.New("member not joined")
)

// Endpoint is a resolved ring member: its identity plus the address a
// caller would dial for it.
type Endpoint struct {
	ID   string
	Addr string
}

// Router is a concurrency-safe ownership view over a ring and an
// ID->address registry.
//
// Resolved lookups are cached; the cache is purged on every membership
// change so a cached owner never outlives the membership that produced it.
type Router struct {
	mu    sync.RWMutex
	ring  *ring.Ring
	addrs map[string]string
	cache *lru.Cache[string, string]
}

// New creates an empty router. A non-positive replica count uses the ring
// default.
func New(replicas int) (*Router, error) {
	cache, err := lru.New[string, string](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create lookup cache: %w", err)
	}
	return &Router{
		ring:  ring.New(replicas),
		addrs: make(map[string]string),
		cache: cache,
	}, nil
}

// FromConfig creates a router seeded with the configured peers, joined in
// declaration order.
func FromConfig(cfg *config.Config) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rt, err := New(cfg.Replicas)
	if err != nil {
		return nil, err
	}
	for _, peer := range cfg.Peers {
		if err := rt.Join(peer.ID, peer.Addr); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

// Join adds a member and places its replica points on the ring.
func (rt *Router) Join(id, addr string) error {
	if id == "" || addr == "" {
		return fmt.Errorf("join: member ID and address cannot be empty")
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if _, exists := rt.addrs[id]; exists {
		return fmt.Errorf("join %q: %w", id, ErrMemberExists)
	}
	rt.addrs[id] = addr
	rt.ring.AddNode(id)
	rt.cache.Purge()
	return nil
}

// Leave removes a member and its replica points from the ring.
func (rt *Router) Leave(id string) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if _, exists := rt.addrs[id]; !exists {
		return fmt.Errorf("leave %q: %w", id, ErrUnknownMember)
	}
	if err := rt.ring.RemoveNode(id); err != nil {
		return fmt.Errorf("leave %q: %w", id, err)
	}
	delete(rt.addrs, id)
	rt.cache.Purge()
	return nil
}

// Route resolves the member owning the given key. Returns false when the
// view is empty.
func (rt *Router) Route(key string) (Endpoint, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	if id, ok := rt.cache.Get(key); ok {
		return Endpoint{ID: id, Addr: rt.addrs[id]}, true
	}

	id := rt.ring.GetNode(key)
	if id == "" {
		return Endpoint{}, false
	}
	rt.cache.Add(key, id)
	return Endpoint{ID: id, Addr: rt.addrs[id]}, true
}

// RouteN resolves up to n distinct members for the key, the owner first,
// then the next distinct members clockwise. Useful for callers that fall
// through to a secondary on failure.
func (rt *Router) RouteN(key string, n int) []Endpoint {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	ids := rt.ring.PreferenceList(key, n)
	endpoints := make([]Endpoint, 0, len(ids))
	for _, id := range ids {
		endpoints = append(endpoints, Endpoint{ID: id, Addr: rt.addrs[id]})
	}
	return endpoints
}

// Endpoints returns all current members sorted by ID.
func (rt *Router) Endpoints() []Endpoint {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	endpoints := make([]Endpoint, 0, len(rt.addrs))
	for _, id := range rt.ring.Nodes() {
		endpoints = append(endpoints, Endpoint{ID: id, Addr: rt.addrs[id]})
	}
	return endpoints
}

// Len returns the number of members currently in the view.
func (rt *Router) Len() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.addrs)
}
