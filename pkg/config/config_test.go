package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, uint64(31337), cfg.ChainID)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8545, cfg.Port)
	assert.Equal(t, 10, cfg.AccountCount)
	assert.Equal(t, DefaultMnemonic, cfg.Mnemonic)
	assert.Equal(t, "*", cfg.AllowOrigin)
	assert.Equal(t, uint64(0), cfg.MintFeeRate)
	assert.Equal(t, uint64(0), cfg.RedeemFeeRate)

	// Default MMF funding should be 1,000,000 tokens at 18 decimals
	expectedBalance := new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1e18))
	assert.Equal(t, expectedBalance, cfg.MMFBalance)

	// Default initial price should be 1.00 at 8 decimals
	assert.Equal(t, big.NewInt(100_000_000), cfg.InitialPrice)
}

func TestConfigValidation_Valid(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	assert.NoError(t, err)
}

func TestConfigValidation_InvalidChainID(t *testing.T) {
	cfg := Default()
	cfg.ChainID = 0

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "chainId")
}

func TestConfigValidation_InvalidPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"negative", -1},
		{"zero", 0},
		{"too high", 65536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Port = tt.port

			err := cfg.Validate()

			assert.Error(t, err)
			assert.Contains(t, err.Error(), "port")
		})
	}
}

func TestConfigValidation_InvalidAccountCount(t *testing.T) {
	cfg := Default()
	cfg.AccountCount = 0

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accountCount")
}

func TestConfigValidation_InvalidInitialPrice(t *testing.T) {
	cfg := Default()
	cfg.InitialPrice = big.NewInt(0)

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "initialPrice")
}

func TestConfigValidation_ExcessiveFeeRates(t *testing.T) {
	cfg := Default()
	cfg.MintFeeRate = 250_001

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mintFeeRate")

	cfg = Default()
	cfg.RedeemFeeRate = 250_001

	err = cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redeemFeeRate")
}

func TestConfigValidation_InvalidMnemonic(t *testing.T) {
	cfg := Default()
	cfg.Mnemonic = "invalid mnemonic"

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mnemonic")
}

func TestLoadFromFile(t *testing.T) {
	// Create temp config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	configJSON := `{
		"chainId": 12345,
		"port": 9999,
		"accountCount": 5,
		"mintFeeRate": 10000
	}`

	err := os.WriteFile(configPath, []byte(configJSON), 0644)
	require.NoError(t, err)

	cfg, err := LoadFromFile(configPath)

	require.NoError(t, err)
	assert.Equal(t, uint64(12345), cfg.ChainID)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, 5, cfg.AccountCount)
	assert.Equal(t, uint64(10000), cfg.MintFeeRate)
	// Defaults should be applied for missing fields
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, big.NewInt(100_000_000), cfg.InitialPrice)
}

func TestLoadFromFile_NotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.json")
	assert.Error(t, err)
}

func TestLoadFromFile_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	err := os.WriteFile(configPath, []byte("invalid json"), 0644)
	require.NoError(t, err)

	_, err = LoadFromFile(configPath)
	assert.Error(t, err)
}

func TestConfigCopy(t *testing.T) {
	cfg := Default()
	cfg.ChainID = 12345

	copied := cfg.Copy()

	// Modify original
	cfg.ChainID = 99999
	cfg.InitialPrice.SetInt64(1)

	// Copy should be unchanged
	assert.Equal(t, uint64(12345), copied.ChainID)
	assert.Equal(t, big.NewInt(100_000_000), copied.InitialPrice)
}

func TestMergeWithDefaults(t *testing.T) {
	partial := &Config{
		ChainID: 12345,
		Port:    9999,
	}

	merged := MergeWithDefaults(partial)

	assert.Equal(t, uint64(12345), merged.ChainID)
	assert.Equal(t, 9999, merged.Port)
	// Defaults applied
	assert.Equal(t, "127.0.0.1", merged.Host)
	assert.Equal(t, 10, merged.AccountCount)
	assert.NotNil(t, merged.MMFBalance)
}

func TestServerAddr(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "127.0.0.1:8545", cfg.ServerAddr())
}
