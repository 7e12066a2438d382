// Package staking provides the PacUSD staking ledger with accumulator-based
// reward distribution.
package staking

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/pac-network/pacusd-go/pkg/events"
	"github.com/pac-network/pacusd-go/pkg/token"
)

// Version string reported by the staking ledger.
const Version = "staking-ledger/v1.0.0"

// Precision scales the reward accumulator (18 decimals).
var Precision = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Staking errors.
var (
	ErrZeroAmount         = errors.New("zero amount")
	ErrInsufficientStake  = errors.New("insufficient staked amount")
	ErrInsufficientReward = errors.New("insufficient unclaimed reward")
	ErrNotVault           = errors.New("caller is not a registered vault")
	ErrUnauthorized       = errors.New("unauthorized operation")
	ErrReentrantCall      = errors.New("reentrant call")
)

// userState tracks a single staker.
type userState struct {
	stakedAmount    *big.Int
	entryRewardRate *big.Int
	unclaimedReward *big.Int
	lastActionTime  uint64
}

func newUserState() *userState {
	return &userState{
		stakedAmount:    big.NewInt(0),
		entryRewardRate: big.NewInt(0),
		unclaimedReward: big.NewInt(0),
	}
}

func (u *userState) copy() *userState {
	return &userState{
		stakedAmount:    new(big.Int).Set(u.stakedAmount),
		entryRewardRate: new(big.Int).Set(u.entryRewardRate),
		unclaimedReward: new(big.Int).Set(u.unclaimedReward),
		lastActionTime:  u.lastActionTime,
	}
}

// vaultRecord tracks reward distributions per vault.
type vaultRecord struct {
	lastAmount       *big.Int
	totalDistributed *big.Int
}

// Ledger manages per-user stakes and the global reward accumulator.
type Ledger struct {
	token   *token.Ledger
	account common.Address
	admin   common.Address

	totalStaked   *big.Int
	accRewardRate *big.Int
	undistributed *big.Int

	users        map[common.Address]*userState
	vaults       map[common.Address]bool
	vaultRecords map[common.Address]*vaultRecord

	log     *events.Log
	entered bool

	snapshots  map[int]*ledgerSnapshot
	nextSnapID int

	mu sync.RWMutex
}

type ledgerSnapshot struct {
	totalStaked   *big.Int
	accRewardRate *big.Int
	undistributed *big.Int
	users         map[common.Address]*userState
	vaultRecords  map[common.Address]*vaultRecord
}

// NewLedger creates a staking ledger. The account is the address under which
// the ledger custodies staked tokens and undistributed rewards on the
// stablecoin ledger.
func NewLedger(tok *token.Ledger, account, admin common.Address, log *events.Log) *Ledger {
	return &Ledger{
		token:         tok,
		account:       account,
		admin:         admin,
		totalStaked:   big.NewInt(0),
		accRewardRate: big.NewInt(0),
		undistributed: big.NewInt(0),
		users:         make(map[common.Address]*userState),
		vaults:        make(map[common.Address]bool),
		vaultRecords:  make(map[common.Address]*vaultRecord),
		log:           log,
		snapshots:     make(map[int]*ledgerSnapshot),
	}
}

// Account returns the ledger's custody account address.
func (s *Ledger) Account() common.Address {
	return s.account
}

// RegisterVault allows a vault to distribute rewards.
func (s *Ledger) RegisterVault(caller, vault common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.admin {
		return ErrUnauthorized
	}
	s.vaults[vault] = true
	return nil
}

// IsVault reports whether an address is a registered vault.
func (s *Ledger) IsVault(addr common.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.vaults[addr]
}

// realize folds the accrual delta since the user's last checkpoint into
// unclaimedReward and resets the entry rate. Callers must hold mu.
func (s *Ledger) realize(user *userState) {
	delta := new(big.Int).Sub(s.accRewardRate, user.entryRewardRate)
	if delta.Sign() > 0 && user.stakedAmount.Sign() > 0 {
		accrued := new(big.Int).Mul(user.stakedAmount, delta)
		accrued.Div(accrued, Precision)
		user.unclaimedReward = new(big.Int).Add(user.unclaimedReward, accrued)
	}
	user.entryRewardRate = new(big.Int).Set(s.accRewardRate)
}

func (s *Ledger) userOrNew(addr common.Address) *userState {
	u := s.users[addr]
	if u == nil {
		u = newUserState()
		s.users[addr] = u
	}
	return u
}

// Stake locks the caller's stablecoin into the staking pool.
func (s *Ledger) Stake(caller common.Address, amount *big.Int, now uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if s.entered {
		return ErrReentrantCall
	}
	s.entered = true
	defer func() { s.entered = false }()

	// Pull tokens before touching stake state; the transfer performs all
	// balance and blacklist checks.
	if err := s.token.Transfer(caller, s.account, amount); err != nil {
		return err
	}

	user := s.userOrNew(caller)
	s.realize(user)
	user.stakedAmount = new(big.Int).Add(user.stakedAmount, amount)
	user.lastActionTime = now
	s.totalStaked = new(big.Int).Add(s.totalStaked, amount)

	s.log.Append(events.Event{Type: events.TypeStaked, Account: caller, Amount: amount})
	return nil
}

// Unstake returns staked stablecoin to the caller.
func (s *Ledger) Unstake(caller common.Address, amount *big.Int, now uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if s.entered {
		return ErrReentrantCall
	}
	s.entered = true
	defer func() { s.entered = false }()

	user := s.userOrNew(caller)
	s.realize(user)

	if user.stakedAmount.Cmp(amount) < 0 {
		return ErrInsufficientStake
	}

	if err := s.token.Transfer(s.account, caller, amount); err != nil {
		return err
	}

	user.stakedAmount = new(big.Int).Sub(user.stakedAmount, amount)
	user.lastActionTime = now
	s.totalStaked = new(big.Int).Sub(s.totalStaked, amount)

	s.log.Append(events.Event{Type: events.TypeUnstaked, Account: caller, Amount: amount})
	return nil
}

// Restake moves unclaimed reward into the caller's stake. No tokens move;
// the reward already sits in the ledger's custody account.
func (s *Ledger) Restake(caller common.Address, amount *big.Int, now uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}

	user := s.userOrNew(caller)
	s.realize(user)

	if user.unclaimedReward.Cmp(amount) < 0 {
		return ErrInsufficientReward
	}

	user.unclaimedReward = new(big.Int).Sub(user.unclaimedReward, amount)
	user.stakedAmount = new(big.Int).Add(user.stakedAmount, amount)
	user.lastActionTime = now
	s.totalStaked = new(big.Int).Add(s.totalStaked, amount)

	s.log.Append(events.Event{Type: events.TypeRestaked, Account: caller, Amount: amount})
	return nil
}

// ClaimReward withdraws realized reward to the caller.
func (s *Ledger) ClaimReward(caller common.Address, amount *big.Int, now uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if s.entered {
		return ErrReentrantCall
	}
	s.entered = true
	defer func() { s.entered = false }()

	user := s.userOrNew(caller)
	s.realize(user)

	if user.unclaimedReward.Cmp(amount) < 0 {
		return ErrInsufficientReward
	}

	if err := s.token.Transfer(s.account, caller, amount); err != nil {
		return err
	}

	user.unclaimedReward = new(big.Int).Sub(user.unclaimedReward, amount)
	user.lastActionTime = now

	s.log.Append(events.Event{Type: events.TypeRewardClaimed, Account: caller, Amount: amount})
	return nil
}

// DistributeReward advances the accumulator by amount/totalStaked. Only
// registered vaults may call it. With no stakers the amount is retained in
// the undistributed reserve and folded in on the next distribution that
// finds a nonzero stake.
func (s *Ledger) DistributeReward(vault common.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.vaults[vault] {
		return ErrNotVault
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}

	rec := s.vaultRecords[vault]
	if rec == nil {
		rec = &vaultRecord{lastAmount: big.NewInt(0), totalDistributed: big.NewInt(0)}
		s.vaultRecords[vault] = rec
	}
	rec.lastAmount = new(big.Int).Set(amount)
	rec.totalDistributed = new(big.Int).Add(rec.totalDistributed, amount)

	if s.totalStaked.Sign() == 0 {
		s.undistributed = new(big.Int).Add(s.undistributed, amount)
	} else {
		pool := new(big.Int).Add(amount, s.undistributed)
		delta := new(big.Int).Mul(pool, Precision)
		delta.Div(delta, s.totalStaked)
		s.accRewardRate = new(big.Int).Add(s.accRewardRate, delta)
		s.undistributed = big.NewInt(0)
	}

	s.log.Append(events.Event{Type: events.TypeRewardDistributed, Account: vault, Amount: amount})
	return nil
}

// BalanceOf returns the user's staked amount.
func (s *Ledger) BalanceOf(user common.Address) *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u := s.users[user]
	if u == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(u.stakedAmount)
}

// RewardOf returns the user's true pending reward: the checkpointed
// unclaimed balance plus the accrual delta since the last checkpoint.
func (s *Ledger) RewardOf(user common.Address) *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u := s.users[user]
	if u == nil {
		return big.NewInt(0)
	}

	pending := new(big.Int).Set(u.unclaimedReward)
	delta := new(big.Int).Sub(s.accRewardRate, u.entryRewardRate)
	if delta.Sign() > 0 && u.stakedAmount.Sign() > 0 {
		accrued := new(big.Int).Mul(u.stakedAmount, delta)
		accrued.Div(accrued, Precision)
		pending.Add(pending, accrued)
	}
	return pending
}

// TotalStaked returns the total staked amount across all users.
func (s *Ledger) TotalStaked() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return new(big.Int).Set(s.totalStaked)
}

// AccRewardRate returns the current accumulator value.
func (s *Ledger) AccRewardRate() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return new(big.Int).Set(s.accRewardRate)
}

// Undistributed returns the reward reserve held back while no stake exists.
func (s *Ledger) Undistributed() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return new(big.Int).Set(s.undistributed)
}

// LastDistribution returns the last and cumulative distributed amounts for a
// vault.
func (s *Ledger) LastDistribution(vault common.Address) (last, total *big.Int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := s.vaultRecords[vault]
	if rec == nil {
		return big.NewInt(0), big.NewInt(0)
	}
	return new(big.Int).Set(rec.lastAmount), new(big.Int).Set(rec.totalDistributed)
}

// Snapshot captures the staking state and returns a snapshot id.
func (s *Ledger) Snapshot() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &ledgerSnapshot{
		totalStaked:   new(big.Int).Set(s.totalStaked),
		accRewardRate: new(big.Int).Set(s.accRewardRate),
		undistributed: new(big.Int).Set(s.undistributed),
		users:         make(map[common.Address]*userState, len(s.users)),
		vaultRecords:  make(map[common.Address]*vaultRecord, len(s.vaultRecords)),
	}
	for addr, u := range s.users {
		snap.users[addr] = u.copy()
	}
	for addr, rec := range s.vaultRecords {
		snap.vaultRecords[addr] = &vaultRecord{
			lastAmount:       new(big.Int).Set(rec.lastAmount),
			totalDistributed: new(big.Int).Set(rec.totalDistributed),
		}
	}

	id := s.nextSnapID
	s.snapshots[id] = snap
	s.nextSnapID++
	return id
}

// RevertToSnapshot restores a previously captured snapshot.
func (s *Ledger) RevertToSnapshot(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return
	}

	s.totalStaked = snap.totalStaked
	s.accRewardRate = snap.accRewardRate
	s.undistributed = snap.undistributed
	s.users = snap.users
	s.vaultRecords = snap.vaultRecords

	for i := id; i < s.nextSnapID; i++ {
		delete(s.snapshots, i)
	}
	s.nextSnapID = id
}

// DiscardSnapshot drops a snapshot without reverting.
func (s *Ledger) DiscardSnapshot(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, id)
}
