package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Peer maps a node identity to the endpoint a caller would dial for it.
// The ring hashes only the ID; the address is out-of-band registry data.
type Peer struct {
	ID   string `yaml:"id"`
	Addr string `yaml:"addr"`
}

// Config describes an initial ring membership.
type Config struct {
	// Replicas is the virtual point count per node; 0 means the ring default.
	Replicas int    `yaml:"replicas"`
	Peers    []Peer `yaml:"peers"`
}

// ParsePeers parses a comma-separated list of peers in the format:
// "id1=addr1,id2=addr2,id3=addr3"
func ParsePeers(peersStr string) ([]Peer, error) {
	if peersStr == "" {
		return []Peer{}, nil
	}

	parts := strings.Split(peersStr, ",")
	peers := make([]Peer, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid peer format: %s (expected id=addr)", part)
		}

		id := strings.TrimSpace(kv[0])
		addr := strings.TrimSpace(kv[1])

		if id == "" || addr == "" {
			return nil, fmt.Errorf("peer ID and address cannot be empty: %s", part)
		}

		peers = append(peers, Peer{
			ID:   id,
			Addr: addr,
		})
	}

	return peers, nil
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the membership for empty or duplicate entries.
func (c *Config) Validate() error {
	if c.Replicas < 0 {
		return fmt.Errorf("replicas cannot be negative: %d", c.Replicas)
	}

	seen := make(map[string]bool)
	for _, peer := range c.Peers {
		if peer.ID == "" || peer.Addr == "" {
			return fmt.Errorf("peer ID and address cannot be empty: %s=%s", peer.ID, peer.Addr)
		}
		if seen[peer.ID] {
			return fmt.Errorf("duplicate peer ID: %s", peer.ID)
		}
		seen[peer.ID] = true
	}
	return nil
}

// RingNodes returns the peer IDs in declaration order, ready to seed a ring.
func (c *Config) RingNodes() []string {
	nodes := make([]string, 0, len(c.Peers))
	for _, peer := range c.Peers {
		nodes = append(nodes, peer.ID)
	}
	return nodes
}
