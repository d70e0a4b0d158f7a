// Package config loads the static cluster-membership file. No example in
// the retrieval pack parses YAML (see DESIGN.md); this package brings in
// gopkg.in/yaml.v3 fresh from the ecosystem because the specification
// requires a YAML config file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stepchowfun/paxos/internal/paxos"
)

// NodeConfig is one cluster member's address, as written in config.yml.
type NodeConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns "host:port", suitable for net.Dial or net.Listen.
func (n NodeConfig) Addr() string {
	return fmt.Sprintf("%s:%d", n.Host, n.Port)
}

// Config is the parsed cluster-membership file: an ordered list of nodes,
// indexed by position to form each node's paxos.NodeID.
type Config struct {
	Nodes []NodeConfig `yaml:"nodes"`
}

// Load reads and parses the YAML config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	if len(cfg.Nodes) == 0 {
		return Config{}, fmt.Errorf("config: %q declares no nodes", path)
	}
	return cfg, nil
}

// Validate checks that nodeIndex names an actual cluster member.
func (c Config) Validate(nodeIndex int) error {
	if nodeIndex < 0 || nodeIndex >= len(c.Nodes) {
		return fmt.Errorf("config: there is no node with index %d (cluster has %d nodes)", nodeIndex, len(c.Nodes))
	}
	return nil
}

// NodeIDs returns every node's ID, in config order -- exactly the
// cluster-membership universe the proposer broadcasts to.
func (c Config) NodeIDs() []paxos.NodeID {
	ids := make([]paxos.NodeID, len(c.Nodes))
	for i := range c.Nodes {
		ids[i] = paxos.NodeID(i)
	}
	return ids
}
