// Package oracle provides the MMF/PacUSD price source.
package oracle

import (
	"errors"
	"math/big"
	"sync"

	"github.com/pac-network/pacusd-go/pkg/events"
)

// PriceScale is the fixed-point scale of reported prices (8 decimals).
var PriceScale = big.NewInt(100_000_000)

// Oracle errors.
var (
	ErrInvalidPrice        = errors.New("invalid price")
	ErrPriceIDDoesNotExist = errors.New("price id does not exist")
	ErrNoPrice             = errors.New("no price reported yet")
)

// entry is a single reported price point.
type entry struct {
	price     *big.Int
	timestamp uint64
}

// Oracle manages the reported price series for the reference asset.
type Oracle struct {
	prices []entry
	log    *events.Log

	mu sync.RWMutex
}

// New creates an empty oracle.
func New(log *events.Log) *Oracle {
	return &Oracle{
		prices: make([]entry, 0),
		log:    log,
	}
}

// AddPrice appends a new price point and returns its id.
func (o *Oracle) AddPrice(price *big.Int, timestamp uint64) (uint64, error) {
	if price == nil || price.Sign() <= 0 {
		return 0, ErrInvalidPrice
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.prices = append(o.prices, entry{
		price:     new(big.Int).Set(price),
		timestamp: timestamp,
	})
	id := uint64(len(o.prices) - 1)

	o.log.Append(events.Event{Type: events.TypePriceAdded, Amount: price})
	return id, nil
}

// UpdatePrice replaces the price at the given id.
func (o *Oracle) UpdatePrice(id uint64, price *big.Int) error {
	if price == nil || price.Sign() <= 0 {
		return ErrInvalidPrice
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if id >= uint64(len(o.prices)) {
		return ErrPriceIDDoesNotExist
	}

	o.prices[id].price = new(big.Int).Set(price)

	o.log.Append(events.Event{Type: events.TypePriceUpdated, Amount: price})
	return nil
}

// GetPrice returns the price at the given id.
func (o *Oracle) GetPrice(id uint64) (*big.Int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if id >= uint64(len(o.prices)) {
		return nil, ErrPriceIDDoesNotExist
	}
	return new(big.Int).Set(o.prices[id].price), nil
}

// GetLatestPrice returns the most recently reported price.
func (o *Oracle) GetLatestPrice() (*big.Int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if len(o.prices) == 0 {
		return nil, ErrNoPrice
	}
	return new(big.Int).Set(o.prices[len(o.prices)-1].price), nil
}

// Count returns the number of reported price points.
func (o *Oracle) Count() int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return len(o.prices)
}
