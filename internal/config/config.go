// Package config loads the solver's TOML configuration file (spec.md
// §6): agent-level settings (healthcheck, logging, evaluator selection)
// and the per-chain [[networks]] tables. Loading uses
// github.com/spf13/viper, mirroring how the rest of the pack's CLI tools
// resolve a config file ahead of an urfave/cli app.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Agent carries the [agent] table.
type Agent struct {
	HealthcheckListenAddr string `mapstructure:"healthcheck_listen_addr"`
	HealthcheckPort       int    `mapstructure:"healthcheck_port"`
	LogLevel              string `mapstructure:"log_level"`
	LogJSON               bool   `mapstructure:"log_json"`
	// Evaluator selects "simple" (v1) or "scored" (v2); spec.md §9's
	// Open Question on v1-vs-v2 selection says to expose both rather
	// than silently pick one.
	Evaluator string `mapstructure:"evaluator"`
}

// Network carries one [[networks]] table.
type Network struct {
	ChainID             uint64   `mapstructure:"chain_id"`
	RPCURL              string   `mapstructure:"rpc_url"`
	Tokens              []string `mapstructure:"tokens"`
	RouterAddress       string   `mapstructure:"router_address"`
	TxGasBufferPct      int      `mapstructure:"tx_gas_buffer"`
	TxGasPriceBufferPct int      `mapstructure:"tx_gas_price_buffer"`
	// DefaultGasPriceWei overrides gasprice's hard-coded per-chain
	// default (spec.md §9, "Gas-price source").
	DefaultGasPriceWei string `mapstructure:"default_gas_price_wei"`
}

// TokenAddresses decodes Tokens into common.Address.
func (n Network) TokenAddresses() []common.Address {
	out := make([]common.Address, 0, len(n.Tokens))
	for _, t := range n.Tokens {
		out = append(out, common.HexToAddress(t))
	}
	return out
}

// RouterContractAddress decodes RouterAddress.
func (n Network) RouterContractAddress() common.Address {
	return common.HexToAddress(n.RouterAddress)
}

// Config is the fully-decoded configuration file.
type Config struct {
	Agent    Agent     `mapstructure:"agent"`
	Networks []Network `mapstructure:"networks"`
}

const (
	defaultTxGasBufferPct      = 120
	defaultTxGasPriceBufferPct = 100
)

// Load resolves the config path per spec.md §6's discovery order
// (--config flag, SOLVER_CONFIG_PATH env, ./config.toml,
// ~/.config/onlyswaps/solver/config.toml), parses it as TOML, and
// applies documented per-network defaults.
func Load(flagPath string) (*Config, error) {
	path, err := resolvePath(flagPath)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	if len(cfg.Networks) == 0 {
		return nil, fmt.Errorf("config: no [[networks]] tables configured")
	}
	for i := range cfg.Networks {
		if cfg.Networks[i].TxGasBufferPct == 0 {
			cfg.Networks[i].TxGasBufferPct = defaultTxGasBufferPct
		}
		if cfg.Networks[i].TxGasPriceBufferPct == 0 {
			cfg.Networks[i].TxGasPriceBufferPct = defaultTxGasPriceBufferPct
		}
		if cfg.Networks[i].RPCURL == "" {
			return nil, fmt.Errorf("config: network %d missing rpc_url", cfg.Networks[i].ChainID)
		}
	}
	if cfg.Agent.Evaluator == "" {
		cfg.Agent.Evaluator = "simple"
	}
	if cfg.Agent.LogLevel == "" {
		cfg.Agent.LogLevel = "info"
	}

	return &cfg, nil
}

// resolvePath implements spec.md §6's config path discovery order.
func resolvePath(flagPath string) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	if envPath := os.Getenv("SOLVER_CONFIG_PATH"); envPath != "" {
		return envPath, nil
	}
	if _, err := os.Stat("./config.toml"); err == nil {
		return "./config.toml", nil
	}
	home, err := os.UserHomeDir()
	if err == nil {
		candidate := filepath.Join(home, ".config", "onlyswaps", "solver", "config.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("config: no config file found (checked --config, SOLVER_CONFIG_PATH, ./config.toml, ~/.config/onlyswaps/solver/config.toml)")
}

// ResolvePrivateKey applies spec.md §6's CLI contract: the
// --private-key flag value if non-empty, otherwise the
// SOLVER_PRIVATE_KEY environment variable.
func ResolvePrivateKey(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("SOLVER_PRIVATE_KEY"); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("config: no private key given (--private-key or SOLVER_PRIVATE_KEY)")
}
