// Package token provides the PacUSD stablecoin ledger and the MMF asset ledger.
package token

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/pac-network/pacusd-go/pkg/events"
)

// Role names a privileged capability on the ledger.
type Role string

// Ledger roles.
const (
	RoleAdmin    Role = "admin"
	RoleApprover Role = "approver"
	RoleMinter   Role = "minter"
	RolePauser   Role = "pauser"
)

// Ledger manages PacUSD balances, supply, blacklist, roles, and the
// two-phase transaction-authorization tables.
type Ledger struct {
	balances    map[common.Address]*big.Int
	totalSupply *big.Int
	blacklist   map[common.Address]bool
	roles       map[Role]map[common.Address]bool
	paused      bool

	mintAuth map[common.Hash]AuthState
	burnAuth map[common.Hash]AuthState

	log *events.Log

	snapshots  map[int]*ledgerSnapshot
	nextSnapID int

	mu sync.RWMutex
}

// ledgerSnapshot holds a deep copy of the ledger state for rollback.
type ledgerSnapshot struct {
	balances    map[common.Address]*big.Int
	totalSupply *big.Int
	blacklist   map[common.Address]bool
	roles       map[Role]map[common.Address]bool
	paused      bool
	mintAuth    map[common.Hash]AuthState
	burnAuth    map[common.Hash]AuthState
}

// NewLedger creates a ledger with the given admin account. The admin holds
// every role initially and can grant roles to other accounts.
func NewLedger(admin common.Address, log *events.Log) *Ledger {
	roles := map[Role]map[common.Address]bool{
		RoleAdmin:    {admin: true},
		RoleApprover: {admin: true},
		RoleMinter:   {admin: true},
		RolePauser:   {admin: true},
	}
	return &Ledger{
		balances:    make(map[common.Address]*big.Int),
		totalSupply: big.NewInt(0),
		blacklist:   make(map[common.Address]bool),
		roles:       roles,
		mintAuth:    make(map[common.Hash]AuthState),
		burnAuth:    make(map[common.Hash]AuthState),
		log:         log,
		snapshots:   make(map[int]*ledgerSnapshot),
	}
}

// hasRole reports whether the account holds the role. Callers must hold mu.
func (l *Ledger) hasRole(role Role, account common.Address) bool {
	return l.roles[role][account]
}

// GrantRole grants a role to an account.
func (l *Ledger) GrantRole(caller common.Address, role Role, account common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRole(RoleAdmin, caller) {
		return ErrUnauthorized
	}
	if account == (common.Address{}) {
		return ErrZeroAddress
	}

	members := l.roles[role]
	if members == nil {
		members = make(map[common.Address]bool)
		l.roles[role] = members
	}
	members[account] = true
	return nil
}

// RevokeRole revokes a role from an account.
func (l *Ledger) RevokeRole(caller common.Address, role Role, account common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRole(RoleAdmin, caller) {
		return ErrUnauthorized
	}
	delete(l.roles[role], account)
	return nil
}

// IsMinter reports whether the account holds the minter role.
func (l *Ledger) IsMinter(account common.Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.hasRole(RoleMinter, account)
}

// Pause halts mint, burn, and transfer operations.
func (l *Ledger) Pause(caller common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRole(RolePauser, caller) {
		return ErrUnauthorized
	}
	if l.paused {
		return ErrPaused
	}
	l.paused = true

	l.log.Append(events.Event{Type: events.TypePaused, Account: caller})
	return nil
}

// Unpause resumes operations.
func (l *Ledger) Unpause(caller common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRole(RolePauser, caller) {
		return ErrUnauthorized
	}
	if !l.paused {
		return ErrNotPaused
	}
	l.paused = false

	l.log.Append(events.Event{Type: events.TypeUnpaused, Account: caller})
	return nil
}

// IsPaused reports the pause state.
func (l *Ledger) IsPaused() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.paused
}

// Blacklist marks an account as blacklisted.
func (l *Ledger) Blacklist(caller, account common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRole(RoleAdmin, caller) {
		return ErrUnauthorized
	}
	if l.blacklist[account] {
		return ErrBlacklisted
	}
	l.blacklist[account] = true

	l.log.Append(events.Event{Type: events.TypeBlacklisted, Account: account})
	return nil
}

// Unblacklist removes an account from the blacklist.
func (l *Ledger) Unblacklist(caller, account common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRole(RoleAdmin, caller) {
		return ErrUnauthorized
	}
	if !l.blacklist[account] {
		return ErrNotBlacklisted
	}
	delete(l.blacklist, account)

	l.log.Append(events.Event{Type: events.TypeUnblacklisted, Account: account})
	return nil
}

// IsBlacklisted reports whether the account is blacklisted.
func (l *Ledger) IsBlacklisted(account common.Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.blacklist[account]
}

// SetMintByTx pre-authorizes a mint under the given transaction identifier.
func (l *Ledger) SetMintByTx(caller common.Address, txID common.Hash) error {
	return l.setAuth(caller, txID, true)
}

// SetBurnByTx pre-authorizes a burn under the given transaction identifier.
func (l *Ledger) SetBurnByTx(caller common.Address, txID common.Hash) error {
	return l.setAuth(caller, txID, false)
}

func (l *Ledger) setAuth(caller common.Address, txID common.Hash, mint bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRole(RoleApprover, caller) {
		return ErrUnauthorized
	}

	table := l.burnAuth
	evType := events.TypeBurnAuthorized
	if mint {
		table = l.mintAuth
		evType = events.TypeMintAuthorized
	}

	// Re-setting an authorized or executed id must fail.
	if table[txID] != AuthUnset {
		return ErrTxAlreadySet
	}
	table[txID] = AuthAuthorized

	l.log.Append(events.Event{Type: evType, Account: caller, TxID: txID})
	return nil
}

// CancelMintByTx cancels a pending mint authorization.
func (l *Ledger) CancelMintByTx(caller common.Address, txID common.Hash) error {
	return l.cancelAuth(caller, txID, true)
}

// CancelBurnByTx cancels a pending burn authorization.
func (l *Ledger) CancelBurnByTx(caller common.Address, txID common.Hash) error {
	return l.cancelAuth(caller, txID, false)
}

func (l *Ledger) cancelAuth(caller common.Address, txID common.Hash, mint bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRole(RoleApprover, caller) {
		return ErrUnauthorized
	}

	table := l.burnAuth
	evType := events.TypeBurnCancelled
	if mint {
		table = l.mintAuth
		evType = events.TypeMintCancelled
	}

	if table[txID] != AuthAuthorized {
		return ErrTxNotSet
	}
	delete(table, txID)

	l.log.Append(events.Event{Type: evType, Account: caller, TxID: txID})
	return nil
}

// MintAuthState returns the authorization state of a mint transaction id.
func (l *Ledger) MintAuthState(txID common.Hash) AuthState {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.mintAuth[txID]
}

// BurnAuthState returns the authorization state of a burn transaction id.
func (l *Ledger) BurnAuthState(txID common.Hash) AuthState {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.burnAuth[txID]
}

// MintByTx executes a pre-authorized mint. The identifier is consumed and
// can never be executed again.
func (l *Ledger) MintByTx(caller common.Address, txID common.Hash, amount *big.Int, to common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRole(RoleMinter, caller) {
		return ErrUnauthorized
	}
	if l.paused {
		return ErrPaused
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if l.blacklist[to] {
		return ErrBlacklisted
	}
	if l.mintAuth[txID] != AuthAuthorized {
		return ErrTxNotSet
	}

	l.mintAuth[txID] = AuthExecuted
	l.credit(to, amount)
	l.totalSupply = new(big.Int).Add(l.totalSupply, amount)

	l.log.Append(events.Event{Type: events.TypeMinted, Account: to, Amount: amount, TxID: txID})
	return nil
}

// BurnByTx executes a pre-authorized burn from the given account.
func (l *Ledger) BurnByTx(caller common.Address, txID common.Hash, amount *big.Int, from common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRole(RoleMinter, caller) {
		return ErrUnauthorized
	}
	if l.paused {
		return ErrPaused
	}
	if from == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if l.blacklist[from] {
		return ErrBlacklisted
	}
	if l.burnAuth[txID] != AuthAuthorized {
		return ErrTxNotSet
	}

	balance := l.balanceOrZero(from)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	l.burnAuth[txID] = AuthExecuted
	l.balances[from] = new(big.Int).Sub(balance, amount)
	l.totalSupply = new(big.Int).Sub(l.totalSupply, amount)

	l.log.Append(events.Event{Type: events.TypeBurned, Account: from, Amount: amount, TxID: txID})
	return nil
}

// MintReward mints stablecoin without a prior authorization. Restricted to
// the minter role; used by the exchange vault's reward path.
func (l *Ledger) MintReward(caller common.Address, amount *big.Int, to common.Address) error {
	return l.trustedMint(caller, amount, to, events.TypeRewardMinted)
}

// MintFee mints stablecoin to the fee receiver without a prior authorization.
func (l *Ledger) MintFee(caller common.Address, amount *big.Int, to common.Address) error {
	return l.trustedMint(caller, amount, to, events.TypeFeeCollected)
}

func (l *Ledger) trustedMint(caller common.Address, amount *big.Int, to common.Address, evType events.Type) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRole(RoleMinter, caller) {
		return ErrUnauthorized
	}
	if l.paused {
		return ErrPaused
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if l.blacklist[to] {
		return ErrBlacklisted
	}

	l.credit(to, amount)
	l.totalSupply = new(big.Int).Add(l.totalSupply, amount)

	l.log.Append(events.Event{Type: evType, Account: to, Amount: amount})
	return nil
}

// Transfer moves stablecoin between accounts.
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.paused {
		return ErrPaused
	}
	if from == (common.Address{}) || to == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if l.blacklist[from] || l.blacklist[to] {
		return ErrBlacklisted
	}

	balance := l.balanceOrZero(from)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	l.balances[from] = new(big.Int).Sub(balance, amount)
	l.credit(to, amount)

	l.log.Append(events.Event{Type: events.TypeTransferred, Account: from, Related: to, Amount: amount})
	return nil
}

// RescueTokens moves foreign asset-ledger funds held by an account out to a
// recovery address.
func (l *Ledger) RescueTokens(caller common.Address, asset *AssetLedger, holder, to common.Address, amount *big.Int) error {
	l.mu.RLock()
	isAdmin := l.hasRole(RoleAdmin, caller)
	l.mu.RUnlock()

	if !isAdmin {
		return ErrUnauthorized
	}
	if err := asset.Transfer(holder, to, amount); err != nil {
		return err
	}

	l.log.Append(events.Event{Type: events.TypeTokensRescued, Account: holder, Related: to, Amount: amount})
	return nil
}

// GetBalance returns the stablecoin balance of an account.
func (l *Ledger) GetBalance(account common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return new(big.Int).Set(l.balanceOrZero(account))
}

// GetTotalSupply returns the total stablecoin supply.
func (l *Ledger) GetTotalSupply() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return new(big.Int).Set(l.totalSupply)
}

// balanceOrZero returns the stored balance. Callers must hold mu.
func (l *Ledger) balanceOrZero(account common.Address) *big.Int {
	balance := l.balances[account]
	if balance == nil {
		return big.NewInt(0)
	}
	return balance
}

// credit adds amount to an account. Callers must hold mu.
func (l *Ledger) credit(account common.Address, amount *big.Int) {
	l.balances[account] = new(big.Int).Add(l.balanceOrZero(account), amount)
}

// Snapshot captures the full ledger state and returns a snapshot id.
func (l *Ledger) Snapshot() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := &ledgerSnapshot{
		balances:    make(map[common.Address]*big.Int, len(l.balances)),
		totalSupply: new(big.Int).Set(l.totalSupply),
		blacklist:   make(map[common.Address]bool, len(l.blacklist)),
		roles:       make(map[Role]map[common.Address]bool, len(l.roles)),
		paused:      l.paused,
		mintAuth:    make(map[common.Hash]AuthState, len(l.mintAuth)),
		burnAuth:    make(map[common.Hash]AuthState, len(l.burnAuth)),
	}
	for addr, bal := range l.balances {
		snap.balances[addr] = new(big.Int).Set(bal)
	}
	for addr := range l.blacklist {
		snap.blacklist[addr] = true
	}
	for role, members := range l.roles {
		copied := make(map[common.Address]bool, len(members))
		for addr := range members {
			copied[addr] = true
		}
		snap.roles[role] = copied
	}
	for id, st := range l.mintAuth {
		snap.mintAuth[id] = st
	}
	for id, st := range l.burnAuth {
		snap.burnAuth[id] = st
	}

	id := l.nextSnapID
	l.snapshots[id] = snap
	l.nextSnapID++
	return id
}

// RevertToSnapshot restores the ledger to a previously captured snapshot.
// The snapshot and all later ones are discarded.
func (l *Ledger) RevertToSnapshot(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap, ok := l.snapshots[id]
	if !ok {
		return
	}

	l.balances = snap.balances
	l.totalSupply = snap.totalSupply
	l.blacklist = snap.blacklist
	l.roles = snap.roles
	l.paused = snap.paused
	l.mintAuth = snap.mintAuth
	l.burnAuth = snap.burnAuth

	for i := id; i < l.nextSnapID; i++ {
		delete(l.snapshots, i)
	}
	l.nextSnapID = id
}

// DiscardSnapshot drops a snapshot without reverting.
func (l *Ledger) DiscardSnapshot(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.snapshots, id)
}
