// Package config loads the ambient host configuration for a pool deployment:
// listen address, data directory, and the pool parameters fed into
// init_pool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// HostConfig is everything a CLI or service needs to stand up one Engine,
// independent of the Config the pool itself stores on-chain.
type HostConfig struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	Environment   string `toml:"Environment"`

	AdminAuthorityHex  string `toml:"AdminAuthority"`
	OracleAuthorityHex string `toml:"OracleAuthority"`
	FeeCollectorHex    string `toml:"FeeCollector"`

	DepositFeeBps    uint16 `toml:"DepositFeeBps"`
	WithdrawalFeeBps uint16 `toml:"WithdrawalFeeBps"`
	ManagementFeeBps uint16 `toml:"ManagementFeeBps"`

	InitialExchangeRate uint64 `toml:"InitialExchangeRate"`
	MaxTotalSupply      uint64 `toml:"MaxTotalSupply"`
	MaxQueueSize        uint32 `toml:"MaxQueueSize"`
}

// Load reads path, creating a default file alongside it if none exists yet,
// mirroring config.Load's create-default-on-first-run behavior.
func Load(path string) (*HostConfig, error) {
	cfg := &HostConfig{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "local"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./iptpool-data"
	}
	return cfg, nil
}

func createDefault(path string) (*HostConfig, error) {
	cfg := &HostConfig{
		ListenAddress:       ":8090",
		DataDir:             "./iptpool-data",
		Environment:         "local",
		DepositFeeBps:       10,
		WithdrawalFeeBps:    25,
		ManagementFeeBps:    0,
		InitialExchangeRate: 1_000_000,
		MaxQueueSize:        20,
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *HostConfig) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
