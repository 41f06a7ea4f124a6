// Command hashring resolves key ownership against a configured ring.
//
// Membership comes from a YAML file or an inline peer list:
//
//	hashring -config ring.yaml my_key
//	hashring -peers "n1=10.0.0.1:11211,n2=10.0.0.2:11211" -n 2 my_key
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"hashring/internal/config"
	"hashring/internal/router"
)

func main() {
	var (
		configPath = flag.String("config", "ring.yaml", "path to the YAML membership config")
		peersFlag  = flag.String("peers", "", "inline peer list (id1=addr1,id2=addr2); overrides -config")
		replicas   = flag.Int("replicas", 0, "virtual points per node (0 uses the ring default)")
		candidates = flag.Int("n", 1, "distinct candidate nodes to print per key")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: hashring [flags] key [key ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath, *peersFlag, *replicas)
	if err != nil {
		log.Fatalf("load membership: %v", err)
	}

	rt, err := router.FromConfig(cfg)
	if err != nil {
		log.Fatalf("build router: %v", err)
	}

	for _, key := range flag.Args() {
		endpoints := rt.RouteN(key, *candidates)
		if len(endpoints) == 0 {
			log.Fatalf("no members configured; nothing owns %q", key)
		}
		for i, ep := range endpoints {
			fmt.Printf("%s\t%d\t%s\t%s\n", key, i, ep.ID, ep.Addr)
		}
	}
}

func loadConfig(path, peers string, replicas int) (*config.Config, error) {
	if peers != "" {
		parsed, err := config.ParsePeers(peers)
		if err != nil {
			return nil, err
		}
		cfg := &config.Config{Replicas: replicas, Peers: parsed}
		return cfg, cfg.Validate()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if replicas > 0 {
		cfg.Replicas = replicas
	}
	return cfg, nil
}
