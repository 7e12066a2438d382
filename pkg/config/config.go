// Package config provides configuration management for the pacusd node.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tyler-smith/go-bip39"
)

// Default values.
var (
	DefaultChainID       = uint64(31337)
	DefaultHost          = "127.0.0.1"
	DefaultPort          = 8545
	DefaultAccountCount  = 10
	DefaultMMFBalance    = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1e18)) // 1,000,000 MMF
	DefaultMnemonic      = "test test test test test test test test test test test junk"
	DefaultInitialPrice  = big.NewInt(100_000_000) // 1.00 at 8 decimals
	DefaultMintFeeRate   = uint64(0)
	DefaultRedeemFeeRate = uint64(0)
	DefaultAllowOrigin   = "*"
)

// Config defines the node configuration.
type Config struct {
	// Network configuration
	ChainID uint64 `json:"chainId"`

	// Server configuration
	Host string `json:"host"`
	Port int    `json:"port"`

	// Account configuration
	AccountCount int      `json:"accountCount"`
	MMFBalance   *big.Int `json:"mmfBalance"`
	Mnemonic     string   `json:"mnemonic"`

	// Vault configuration
	InitialPrice  *big.Int       `json:"initialPrice"`
	MintFeeRate   uint64         `json:"mintFeeRate"`
	RedeemFeeRate uint64         `json:"redeemFeeRate"`
	FeeReceiver   common.Address `json:"feeReceiver,omitempty"`

	// Server behavior
	AllowOrigin string `json:"allowOrigin"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		ChainID:       DefaultChainID,
		Host:          DefaultHost,
		Port:          DefaultPort,
		AccountCount:  DefaultAccountCount,
		MMFBalance:    new(big.Int).Set(DefaultMMFBalance),
		Mnemonic:      DefaultMnemonic,
		InitialPrice:  new(big.Int).Set(DefaultInitialPrice),
		MintFeeRate:   DefaultMintFeeRate,
		RedeemFeeRate: DefaultRedeemFeeRate,
		AllowOrigin:   DefaultAllowOrigin,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.ChainID == 0 {
		errs = append(errs, "chainId must be greater than 0")
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	if c.AccountCount <= 0 {
		errs = append(errs, "accountCount must be greater than 0")
	}

	if c.InitialPrice == nil || c.InitialPrice.Sign() <= 0 {
		errs = append(errs, "initialPrice must be greater than 0")
	}

	// 25% cap, matching the vault's configuration-time bound
	if c.MintFeeRate > 250_000 {
		errs = append(errs, "mintFeeRate must not exceed 250000")
	}
	if c.RedeemFeeRate > 250_000 {
		errs = append(errs, "redeemFeeRate must not exceed 250000")
	}

	if c.Mnemonic != "" && !bip39.IsMnemonicValid(c.Mnemonic) {
		errs = append(errs, "mnemonic is invalid")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// LoadFromFile loads configuration from a JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return MergeWithDefaults(&cfg), nil
}

// MergeWithDefaults merges partial config with default values.
func MergeWithDefaults(partial *Config) *Config {
	def := Default()

	if partial.ChainID != 0 {
		def.ChainID = partial.ChainID
	}
	if partial.Host != "" {
		def.Host = partial.Host
	}
	if partial.Port != 0 {
		def.Port = partial.Port
	}
	if partial.AccountCount != 0 {
		def.AccountCount = partial.AccountCount
	}
	if partial.MMFBalance != nil {
		def.MMFBalance = partial.MMFBalance
	}
	if partial.Mnemonic != "" {
		def.Mnemonic = partial.Mnemonic
	}
	if partial.InitialPrice != nil {
		def.InitialPrice = partial.InitialPrice
	}
	if partial.MintFeeRate != 0 {
		def.MintFeeRate = partial.MintFeeRate
	}
	if partial.RedeemFeeRate != 0 {
		def.RedeemFeeRate = partial.RedeemFeeRate
	}
	if partial.FeeReceiver != (common.Address{}) {
		def.FeeReceiver = partial.FeeReceiver
	}
	if partial.AllowOrigin != "" {
		def.AllowOrigin = partial.AllowOrigin
	}

	return def
}

// Copy creates a deep copy of the configuration.
func (c *Config) Copy() *Config {
	copied := *c

	if c.MMFBalance != nil {
		copied.MMFBalance = new(big.Int).Set(c.MMFBalance)
	}
	if c.InitialPrice != nil {
		copied.InitialPrice = new(big.Int).Set(c.InitialPrice)
	}

	return &copied
}

// ServerAddr returns the server address string.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
