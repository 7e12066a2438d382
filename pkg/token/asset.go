package token

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// AssetLedger is a plain balance ledger for the MMF reference asset.
type AssetLedger struct {
	balances    map[common.Address]*big.Int
	totalSupply *big.Int
	admin       common.Address

	snapshots  map[int]*assetSnapshot
	nextSnapID int

	mu sync.RWMutex
}

type assetSnapshot struct {
	balances    map[common.Address]*big.Int
	totalSupply *big.Int
}

// NewAssetLedger creates an asset ledger. Only the admin may mint.
func NewAssetLedger(admin common.Address) *AssetLedger {
	return &AssetLedger{
		balances:    make(map[common.Address]*big.Int),
		totalSupply: big.NewInt(0),
		admin:       admin,
		snapshots:   make(map[int]*assetSnapshot),
	}
}

// Mint issues reference-asset units to an account.
func (a *AssetLedger) Mint(caller, to common.Address, amount *big.Int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if caller != a.admin {
		return ErrUnauthorized
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}

	a.balances[to] = new(big.Int).Add(a.balanceOrZero(to), amount)
	a.totalSupply = new(big.Int).Add(a.totalSupply, amount)
	return nil
}

// Transfer moves reference-asset units between accounts.
func (a *AssetLedger) Transfer(from, to common.Address, amount *big.Int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if from == (common.Address{}) || to == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}

	balance := a.balanceOrZero(from)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	a.balances[from] = new(big.Int).Sub(balance, amount)
	a.balances[to] = new(big.Int).Add(a.balanceOrZero(to), amount)
	return nil
}

// GetBalance returns the reference-asset balance of an account.
func (a *AssetLedger) GetBalance(account common.Address) *big.Int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return new(big.Int).Set(a.balanceOrZero(account))
}

// GetTotalSupply returns the total reference-asset supply.
func (a *AssetLedger) GetTotalSupply() *big.Int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return new(big.Int).Set(a.totalSupply)
}

func (a *AssetLedger) balanceOrZero(account common.Address) *big.Int {
	balance := a.balances[account]
	if balance == nil {
		return big.NewInt(0)
	}
	return balance
}

// Snapshot captures the ledger state and returns a snapshot id.
func (a *AssetLedger) Snapshot() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := &assetSnapshot{
		balances:    make(map[common.Address]*big.Int, len(a.balances)),
		totalSupply: new(big.Int).Set(a.totalSupply),
	}
	for addr, bal := range a.balances {
		snap.balances[addr] = new(big.Int).Set(bal)
	}

	id := a.nextSnapID
	a.snapshots[id] = snap
	a.nextSnapID++
	return id
}

// RevertToSnapshot restores a previously captured snapshot.
func (a *AssetLedger) RevertToSnapshot(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap, ok := a.snapshots[id]
	if !ok {
		return
	}

	a.balances = snap.balances
	a.totalSupply = snap.totalSupply

	for i := id; i < a.nextSnapID; i++ {
		delete(a.snapshots, i)
	}
	a.nextSnapID = id
}

// DiscardSnapshot drops a snapshot without reverting.
func (a *AssetLedger) DiscardSnapshot(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.snapshots, id)
}
