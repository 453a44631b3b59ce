package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	dcl "github.com/defistate/dclstate-client-go/protocols/dcl"
)

// ClientConfig holds the subscriber configuration, loaded from a YAML file.
type ClientConfig struct {
	// ChainID selects the state ops wiring. NEAR network names, e.g.
	// "mainnet" or "testnet".
	ChainID         string `yaml:"chain_id" validate:"required"`
	StateStreamURL  string `yaml:"state_stream_url" validate:"required"`
	ProtocolFeeRate uint32 `yaml:"protocol_fee_rate" validate:"lte=10000"`
}

// LoadConfig reads and validates the configuration file.
func LoadConfig(path string) (*ClientConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &ClientConfig{
		ProtocolFeeRate: dcl.DEFAULT_PROTOCOL_FEE_RATE,
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}
