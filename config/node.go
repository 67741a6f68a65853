package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NodeConfig is the on-disk node configuration. Command line flags override
// any value set here.
type NodeConfig struct {
	Network     string      `yaml:"network"`
	GenesisTime uint64      `yaml:"genesis_time"`
	ListenAddrs []string    `yaml:"listen_addrs"`
	Bootnodes   string      `yaml:"bootnodes_file"`
	DataDir     string      `yaml:"data_dir"`
	MetricsAddr string      `yaml:"metrics_addr"`
	LogLevel    string      `yaml:"log_level"`
	Chain       ChainConfig `yaml:"chain"`
}

// DefaultNodeConfig returns a config for a mainnet-preset node with an
// in-memory block store.
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		Network: "devnet0",
		ListenAddrs: []string{
			"/ip4/0.0.0.0/tcp/9000",
			"/ip4/0.0.0.0/udp/9000/quic-v1",
		},
		MetricsAddr: "127.0.0.1:8080",
		LogLevel:    "info",
		Chain:       MainnetChainConfig(),
	}
}

// LoadNodeConfig reads a node config YAML file on top of DefaultNodeConfig.
func LoadNodeConfig(path string) (NodeConfig, error) {
	cfg := DefaultNodeConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read node config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse node config: %w", err)
	}
	if err := cfg.Chain.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid chain section: %w", err)
	}
	return cfg, nil
}
