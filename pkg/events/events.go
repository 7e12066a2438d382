// Package events provides an append-only event log for the accounting engine.
package events

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Type identifies the kind of an event.
type Type string

// Event types emitted by the components.
const (
	TypePriceAdded        Type = "PriceAdded"
	TypePriceUpdated      Type = "PriceUpdated"
	TypeMintAuthorized    Type = "MintAuthorized"
	TypeMintCancelled     Type = "MintCancelled"
	TypeBurnAuthorized    Type = "BurnAuthorized"
	TypeBurnCancelled     Type = "BurnCancelled"
	TypeMinted            Type = "Minted"
	TypeBurned            Type = "Burned"
	TypeTransferred       Type = "Transferred"
	TypeFeeCollected      Type = "FeeCollected"
	TypeRewardMinted      Type = "RewardMinted"
	TypeRewardDistributed Type = "RewardDistributed"
	TypeStaked            Type = "Staked"
	TypeUnstaked          Type = "Unstaked"
	TypeRestaked          Type = "Restaked"
	TypeRewardClaimed     Type = "RewardClaimed"
	TypeBlacklisted       Type = "Blacklisted"
	TypeUnblacklisted     Type = "Unblacklisted"
	TypePaused            Type = "Paused"
	TypeUnpaused          Type = "Unpaused"
	TypeTokensRescued     Type = "TokensRescued"
)

// Event is a single record in the log.
type Event struct {
	Seq     uint64
	Type    Type
	Account common.Address
	Related common.Address
	Amount  *big.Int
	TxID    common.Hash
}

// Log is an append-only in-memory event log.
type Log struct {
	events []Event
	seq    uint64

	mu sync.RWMutex
}

// NewLog creates an empty event log.
func NewLog() *Log {
	return &Log{
		events: make([]Event, 0),
	}
}

// Append records an event and returns its sequence number.
func (l *Log) Append(ev Event) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	ev.Seq = l.seq
	if ev.Amount != nil {
		ev.Amount = new(big.Int).Set(ev.Amount)
	}
	l.events = append(l.events, ev)
	l.seq++

	return ev.Seq
}

// Events returns a copy of all recorded events.
func (l *Log) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]Event, len(l.events))
	copy(result, l.events)
	return result
}

// EventsByType returns all events of the given type.
func (l *Log) EventsByType(t Type) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []Event
	for _, ev := range l.events {
		if ev.Type == t {
			result = append(result, ev)
		}
	}
	return result
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.events)
}

// Snapshot returns the current log length for later rollback.
func (l *Log) Snapshot() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.events)
}

// RevertToSnapshot discards events appended after the snapshot was taken.
func (l *Log) RevertToSnapshot(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id < 0 || id > len(l.events) {
		return
	}
	l.events = l.events[:id]
	l.seq = uint64(id)
}

// DiscardSnapshot is a no-op; log snapshots are plain lengths.
func (l *Log) DiscardSnapshot(int) {}
