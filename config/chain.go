package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChainConfig holds the chain constants fork choice depends on.
type ChainConfig struct {
	SecondsPerSlot             uint64 `yaml:"SECONDS_PER_SLOT"`
	SlotsPerEpoch              uint64 `yaml:"SLOTS_PER_EPOCH"`
	SafeSlotsToUpdateJustified uint64 `yaml:"SAFE_SLOTS_TO_UPDATE_JUSTIFIED"`
}

// MainnetChainConfig returns the mainnet preset.
func MainnetChainConfig() ChainConfig {
	return ChainConfig{
		SecondsPerSlot:             12,
		SlotsPerEpoch:              32,
		SafeSlotsToUpdateJustified: 8,
	}
}

// MinimalChainConfig returns the minimal preset used by tests and devnets.
func MinimalChainConfig() ChainConfig {
	return ChainConfig{
		SecondsPerSlot:             6,
		SlotsPerEpoch:              8,
		SafeSlotsToUpdateJustified: 2,
	}
}

// Validate checks that the config can drive a slot clock.
func (c ChainConfig) Validate() error {
	if c.SecondsPerSlot == 0 {
		return fmt.Errorf("SECONDS_PER_SLOT must be > 0")
	}
	if c.SlotsPerEpoch == 0 {
		return fmt.Errorf("SLOTS_PER_EPOCH must be > 0")
	}
	if c.SafeSlotsToUpdateJustified > c.SlotsPerEpoch {
		return fmt.Errorf("SAFE_SLOTS_TO_UPDATE_JUSTIFIED %d exceeds SLOTS_PER_EPOCH %d",
			c.SafeSlotsToUpdateJustified, c.SlotsPerEpoch)
	}
	return nil
}

// LoadChainConfig reads a chain config YAML file. Fields missing from the
// file keep their mainnet values.
func LoadChainConfig(path string) (ChainConfig, error) {
	cfg := MainnetChainConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read chain config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse chain config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid chain config: %w", err)
	}
	return cfg, nil
}
