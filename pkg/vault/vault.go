// Package vault provides the MMF/PacUSD exchange vault: swap arithmetic,
// fee extraction, and price-appreciation reward settlement.
package vault

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/pac-network/pacusd-go/pkg/events"
	"github.com/pac-network/pacusd-go/pkg/oracle"
	"github.com/pac-network/pacusd-go/pkg/snapshot"
	"github.com/pac-network/pacusd-go/pkg/staking"
	"github.com/pac-network/pacusd-go/pkg/token"
)

// Version string reported by the vault.
const Version = "exchange-vault/v1.0.0"

// Fee rates are expressed against FeePrecision; MaxFeeRate caps them at 25%.
const (
	FeePrecision = 1_000_000
	MaxFeeRate   = 250_000
)

// Default fixed-point scales: 18-decimal reference asset, 18-decimal
// stablecoin, 8-decimal oracle price.
var (
	DefaultReferenceScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	DefaultStableScale    = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

// Params configures a vault.
type Params struct {
	Address      common.Address
	ChainID      uint64
	Admin        common.Address
	FeeReceiver  common.Address
	InitialPrice *big.Int

	MintFeeRate   uint64
	RedeemFeeRate uint64

	// Optional scale overrides; defaults apply when nil.
	ReferenceScale *big.Int
	StableScale    *big.Int
	PriceScale     *big.Int
}

// Vault converts reference-asset deposits to stablecoin at the oracle price
// and turns price appreciation into staking rewards.
type Vault struct {
	address common.Address
	chainID uint64

	oracle  *oracle.Oracle
	token   *token.Ledger
	asset   *token.AssetLedger
	staking *staking.Ledger
	log     *events.Log

	lastPrice     *big.Int
	totalMMFToken *big.Int
	mintFeeRate   uint64
	redeemFeeRate uint64
	feeReceiver   common.Address
	paused        bool

	admins    map[common.Address]bool
	rewarders map[common.Address]bool

	refScale    *big.Int
	stableScale *big.Int
	priceScale  *big.Int

	entered bool

	mu sync.RWMutex
}

// New creates a vault. The admin holds the rewarder role initially.
func New(p Params, orc *oracle.Oracle, tok *token.Ledger, asset *token.AssetLedger, stk *staking.Ledger, log *events.Log) (*Vault, error) {
	if p.Address == (common.Address{}) || p.Admin == (common.Address{}) || p.FeeReceiver == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	if p.MintFeeRate > MaxFeeRate || p.RedeemFeeRate > MaxFeeRate {
		return nil, ErrFeeRateTooHigh
	}
	if p.InitialPrice == nil || p.InitialPrice.Sign() <= 0 {
		return nil, ErrZeroAmount
	}

	refScale := p.ReferenceScale
	if refScale == nil {
		refScale = DefaultReferenceScale
	}
	stableScale := p.StableScale
	if stableScale == nil {
		stableScale = DefaultStableScale
	}
	priceScale := p.PriceScale
	if priceScale == nil {
		priceScale = oracle.PriceScale
	}

	return &Vault{
		address:       p.Address,
		chainID:       p.ChainID,
		oracle:        orc,
		token:         tok,
		asset:         asset,
		staking:       stk,
		log:           log,
		lastPrice:     new(big.Int).Set(p.InitialPrice),
		totalMMFToken: big.NewInt(0),
		mintFeeRate:   p.MintFeeRate,
		redeemFeeRate: p.RedeemFeeRate,
		feeReceiver:   p.FeeReceiver,
		admins:        map[common.Address]bool{p.Admin: true},
		rewarders:     map[common.Address]bool{p.Admin: true},
		refScale:      refScale,
		stableScale:   stableScale,
		priceScale:    priceScale,
	}, nil
}

// Address returns the vault's account address.
func (v *Vault) Address() common.Address {
	return v.address
}

// checkSettledPrice verifies the oracle price matches the last settled
// price. Callers must hold mu.
func (v *Vault) checkSettledPrice() (*big.Int, error) {
	price, err := v.oracle.GetLatestPrice()
	if err != nil {
		return nil, err
	}
	switch price.Cmp(v.lastPrice) {
	case 1:
		return nil, ErrRewardNotSettled
	case -1:
		return nil, ErrPriceRetreat
	}
	return price, nil
}

// MintPacUSD swaps a reference-asset deposit for freshly minted stablecoin.
// The transaction identifier must have been pre-authorized on the stablecoin
// ledger and must recompute from the call parameters.
func (v *Vault) MintPacUSD(caller common.Address, txID common.Hash, amount *big.Int, to common.Address, timestamp uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.paused {
		return ErrPaused
	}
	if v.entered {
		return ErrReentrantCall
	}
	v.entered = true
	defer func() { v.entered = false }()

	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if to == (common.Address{}) || caller == (common.Address{}) {
		return ErrZeroAddress
	}
	if token.ComputeTxID(v.chainID, v.address, caller, amount, to, timestamp) != txID {
		return ErrTxIDMismatch
	}

	price, err := v.checkSettledPrice()
	if err != nil {
		return err
	}

	// stableOut = amount * price * stableScale / (refScale * priceScale)
	stableOut := new(big.Int).Mul(amount, price)
	stableOut.Mul(stableOut, v.stableScale)
	stableOut.Div(stableOut, new(big.Int).Mul(v.refScale, v.priceScale))
	if stableOut.Sign() <= 0 {
		return ErrZeroAmount
	}

	fee := new(big.Int).Mul(stableOut, new(big.Int).SetUint64(v.mintFeeRate))
	fee.Div(fee, big.NewInt(FeePrecision))
	if fee.Cmp(stableOut) > 0 {
		return ErrFeeExceedsAmount
	}
	net := new(big.Int).Sub(stableOut, fee)

	frame := snapshot.Capture(v.token, v.asset, v.log)
	savedTotal := new(big.Int).Set(v.totalMMFToken)

	if err := v.execMint(caller, txID, amount, net, fee, to); err != nil {
		frame.Revert()
		v.totalMMFToken = savedTotal
		return err
	}
	frame.Discard()

	return nil
}

// execMint performs the mutation phase of MintPacUSD. Callers hold mu and
// roll back on error.
func (v *Vault) execMint(caller common.Address, txID common.Hash, amount, net, fee *big.Int, to common.Address) error {
	if err := v.asset.Transfer(caller, v.address, amount); err != nil {
		return err
	}
	v.totalMMFToken = new(big.Int).Add(v.totalMMFToken, amount)

	if err := v.token.MintByTx(v.address, txID, net, to); err != nil {
		return err
	}
	if fee.Sign() > 0 {
		if err := v.token.MintFee(v.address, fee, v.feeReceiver); err != nil {
			return err
		}
	}
	return nil
}

// RedeemMMF burns stablecoin and returns reference asset at the settled
// price, net of the redeem fee.
func (v *Vault) RedeemMMF(caller common.Address, txID common.Hash, amount *big.Int, to common.Address, timestamp uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.paused {
		return ErrPaused
	}
	if v.entered {
		return ErrReentrantCall
	}
	v.entered = true
	defer func() { v.entered = false }()

	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if to == (common.Address{}) || caller == (common.Address{}) {
		return ErrZeroAddress
	}
	if token.ComputeTxID(v.chainID, v.address, caller, amount, to, timestamp) != txID {
		return ErrTxIDMismatch
	}

	price, err := v.checkSettledPrice()
	if err != nil {
		return err
	}

	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(v.redeemFeeRate))
	fee.Div(fee, big.NewInt(FeePrecision))
	if fee.Cmp(amount) > 0 {
		return ErrFeeExceedsAmount
	}
	net := new(big.Int).Sub(amount, fee)

	// mmfOut = net * refScale * priceScale / (price * stableScale)
	mmfOut := new(big.Int).Mul(net, v.refScale)
	mmfOut.Mul(mmfOut, v.priceScale)
	mmfOut.Div(mmfOut, new(big.Int).Mul(price, v.stableScale))
	if mmfOut.Sign() <= 0 {
		return ErrZeroAmount
	}
	if mmfOut.Cmp(v.totalMMFToken) > 0 {
		return ErrInsufficientBacking
	}

	frame := snapshot.Capture(v.token, v.asset, v.log)
	savedTotal := new(big.Int).Set(v.totalMMFToken)

	if err := v.execRedeem(caller, txID, net, fee, mmfOut, to); err != nil {
		frame.Revert()
		v.totalMMFToken = savedTotal
		return err
	}
	frame.Discard()

	return nil
}

// execRedeem performs the mutation phase of RedeemMMF. Callers hold mu and
// roll back on error.
func (v *Vault) execRedeem(caller common.Address, txID common.Hash, net, fee, mmfOut *big.Int, to common.Address) error {
	// Pull the full stablecoin amount: net is burned, fee goes to the
	// fee receiver.
	if err := v.token.Transfer(caller, v.address, new(big.Int).Add(net, fee)); err != nil {
		return err
	}
	if err := v.token.BurnByTx(v.address, txID, net, v.address); err != nil {
		return err
	}
	if fee.Sign() > 0 {
		if err := v.token.Transfer(v.address, v.feeReceiver, fee); err != nil {
			return err
		}
	}
	if err := v.asset.Transfer(v.address, to, mmfOut); err != nil {
		return err
	}
	v.totalMMFToken = new(big.Int).Sub(v.totalMMFToken, mmfOut)
	return nil
}

// MintReward settles a price increase: it mints the appreciation of the
// vault's reference-asset holdings as stablecoin to the staking ledger and
// advances the settled price. The caller passes the price it observed so a
// racing oracle update cannot settle at an unintended level.
func (v *Vault) MintReward(caller common.Address, observedPrice *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.rewarders[caller] {
		return ErrUnauthorized
	}
	if v.entered {
		return ErrReentrantCall
	}
	v.entered = true
	defer func() { v.entered = false }()

	current, err := v.oracle.GetLatestPrice()
	if err != nil {
		return err
	}
	if observedPrice == nil || current.Cmp(observedPrice) != 0 {
		return ErrPriceMismatch
	}

	switch current.Cmp(v.lastPrice) {
	case -1:
		return ErrPriceRetreat
	case 0:
		return nil
	}

	diff := new(big.Int).Sub(current, v.lastPrice)

	// Checkpoint before notifying: a reentrant call observes the new
	// price and cannot earn the same appreciation twice.
	savedPrice := v.lastPrice
	v.lastPrice = new(big.Int).Set(current)

	if v.totalMMFToken.Sign() == 0 {
		return nil
	}

	// reward = diff * totalMMFToken * stableScale / (refScale * priceScale)
	reward := new(big.Int).Mul(diff, v.totalMMFToken)
	reward.Mul(reward, v.stableScale)
	reward.Div(reward, new(big.Int).Mul(v.refScale, v.priceScale))
	if reward.Sign() == 0 {
		return nil
	}

	frame := snapshot.Capture(v.token, v.staking, v.log)

	if err := v.staking.DistributeReward(v.address, reward); err != nil {
		frame.Revert()
		v.lastPrice = savedPrice
		return err
	}
	if err := v.token.MintReward(v.address, reward, v.staking.Account()); err != nil {
		frame.Revert()
		v.lastPrice = savedPrice
		return err
	}
	frame.Discard()

	return nil
}

// TotalMMFToken returns the vault's tracked reference-asset total.
func (v *Vault) TotalMMFToken() *big.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return new(big.Int).Set(v.totalMMFToken)
}

// LastPrice returns the last settled price.
func (v *Vault) LastPrice() *big.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return new(big.Int).Set(v.lastPrice)
}

// ComputeTxID derives the transaction identifier for a swap against this
// vault.
func (v *Vault) ComputeTxID(caller common.Address, amount *big.Int, to common.Address, timestamp uint64) common.Hash {
	return token.ComputeTxID(v.chainID, v.address, caller, amount, to, timestamp)
}

// Pause halts swaps.
func (v *Vault) Pause(caller common.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.admins[caller] {
		return ErrUnauthorized
	}
	if v.paused {
		return ErrPaused
	}
	v.paused = true
	return nil
}

// Unpause resumes swaps.
func (v *Vault) Unpause(caller common.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.admins[caller] {
		return ErrUnauthorized
	}
	if !v.paused {
		return ErrNotPaused
	}
	v.paused = false
	return nil
}

// IsPaused reports the pause state.
func (v *Vault) IsPaused() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.paused
}

// UpdateFeeReceiver changes the fee destination account.
func (v *Vault) UpdateFeeReceiver(caller, receiver common.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.admins[caller] {
		return ErrUnauthorized
	}
	if receiver == (common.Address{}) {
		return ErrZeroAddress
	}
	v.feeReceiver = receiver
	return nil
}

// UpdateMintFeeRate changes the mint fee rate. Rates above MaxFeeRate are
// rejected at configuration time.
func (v *Vault) UpdateMintFeeRate(caller common.Address, rate uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.admins[caller] {
		return ErrUnauthorized
	}
	if rate > MaxFeeRate {
		return ErrFeeRateTooHigh
	}
	v.mintFeeRate = rate
	return nil
}

// UpdateRedeemFeeRate changes the redeem fee rate.
func (v *Vault) UpdateRedeemFeeRate(caller common.Address, rate uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.admins[caller] {
		return ErrUnauthorized
	}
	if rate > MaxFeeRate {
		return ErrFeeRateTooHigh
	}
	v.redeemFeeRate = rate
	return nil
}

// AddRewarder grants the reward-settlement role.
func (v *Vault) AddRewarder(caller, rewarder common.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.admins[caller] {
		return ErrUnauthorized
	}
	if rewarder == (common.Address{}) {
		return ErrZeroAddress
	}
	v.rewarders[rewarder] = true
	return nil
}
