// Package genesis provides initial system wiring for the pacusd node.
package genesis

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"

	"github.com/pac-network/pacusd-go/pkg/config"
	"github.com/pac-network/pacusd-go/pkg/events"
	"github.com/pac-network/pacusd-go/pkg/oracle"
	"github.com/pac-network/pacusd-go/pkg/staking"
	"github.com/pac-network/pacusd-go/pkg/token"
	"github.com/pac-network/pacusd-go/pkg/vault"
)

// Well-known component account addresses.
var (
	VaultAddress   = common.HexToAddress("0x0000000000000000000000000000000000002001")
	StakingAddress = common.HexToAddress("0x0000000000000000000000000000000000002002")
)

// Account represents a dev account with its private key.
type Account struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
}

// GenerateAccounts generates deterministic accounts from a mnemonic.
func GenerateAccounts(mnemonic string, count int) ([]*Account, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}

	seed := bip39.NewSeed(mnemonic, "")
	accounts := make([]*Account, count)

	for i := 0; i < count; i++ {
		key, err := deriveKey(seed, uint32(i))
		if err != nil {
			return nil, fmt.Errorf("failed to derive key %d: %w", i, err)
		}

		accounts[i] = &Account{
			Address:    crypto.PubkeyToAddress(key.PublicKey),
			PrivateKey: key,
		}
	}

	return accounts, nil
}

// deriveKey derives a private key from seed at the given index.
func deriveKey(seed []byte, index uint32) (*ecdsa.PrivateKey, error) {
	indexBytes := make([]byte, 4)
	indexBytes[0] = byte(index >> 24)
	indexBytes[1] = byte(index >> 16)
	indexBytes[2] = byte(index >> 8)
	indexBytes[3] = byte(index)

	combined := append(seed, indexBytes...)
	hash := crypto.Keccak256(combined)

	return crypto.ToECDSA(hash)
}

// System is the fully wired component set.
type System struct {
	Config   *config.Config
	Accounts []*Account
	Admin    common.Address

	Log     *events.Log
	Oracle  *oracle.Oracle
	Token   *token.Ledger
	Asset   *token.AssetLedger
	Staking *staking.Ledger
	Vault   *vault.Vault
}

// NewSystem builds the component set from a configuration: dev accounts,
// seeded oracle, role wiring, and initial MMF balances.
func NewSystem(cfg *config.Config) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	accounts, err := GenerateAccounts(cfg.Mnemonic, cfg.AccountCount)
	if err != nil {
		return nil, fmt.Errorf("failed to generate accounts: %w", err)
	}
	admin := accounts[0].Address

	feeReceiver := cfg.FeeReceiver
	if feeReceiver == (common.Address{}) {
		feeReceiver = admin
		if len(accounts) > 1 {
			feeReceiver = accounts[1].Address
		}
	}

	log := events.NewLog()
	orc := oracle.New(log)
	if _, err := orc.AddPrice(cfg.InitialPrice, 0); err != nil {
		return nil, fmt.Errorf("failed to seed oracle: %w", err)
	}

	tok := token.NewLedger(admin, log)
	asset := token.NewAssetLedger(admin)
	stk := staking.NewLedger(tok, StakingAddress, admin, log)

	vlt, err := vault.New(vault.Params{
		Address:       VaultAddress,
		ChainID:       cfg.ChainID,
		Admin:         admin,
		FeeReceiver:   feeReceiver,
		InitialPrice:  cfg.InitialPrice,
		MintFeeRate:   cfg.MintFeeRate,
		RedeemFeeRate: cfg.RedeemFeeRate,
	}, orc, tok, asset, stk, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault: %w", err)
	}

	// The vault executes pre-authorized mints and burns, so it holds the
	// minter role on the stablecoin ledger.
	if err := tok.GrantRole(admin, token.RoleMinter, VaultAddress); err != nil {
		return nil, err
	}
	if err := stk.RegisterVault(admin, VaultAddress); err != nil {
		return nil, err
	}

	// Fund dev accounts with the reference asset.
	if cfg.MMFBalance != nil && cfg.MMFBalance.Sign() > 0 {
		for _, acc := range accounts {
			if err := asset.Mint(admin, acc.Address, new(big.Int).Set(cfg.MMFBalance)); err != nil {
				return nil, fmt.Errorf("failed to fund account %s: %w", acc.Address.Hex(), err)
			}
		}
	}

	return &System{
		Config:   cfg,
		Accounts: accounts,
		Admin:    admin,
		Log:      log,
		Oracle:   orc,
		Token:    tok,
		Asset:    asset,
		Staking:  stk,
		Vault:    vlt,
	}, nil
}
