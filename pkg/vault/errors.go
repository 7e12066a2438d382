package vault

import "errors"

// Validation errors.
var (
	ErrZeroAddress  = errors.New("zero address")
	ErrZeroAmount   = errors.New("zero amount")
	ErrTxIDMismatch = errors.New("transaction id does not match parameters")
)

// Price-consistency errors.
var (
	ErrRewardNotSettled = errors.New("price increased: settle reward before swapping")
	ErrPriceRetreat     = errors.New("price lower than last settled price")
	ErrPriceMismatch    = errors.New("observed price does not match oracle price")
)

// Fee and backing errors.
var (
	ErrFeeExceedsAmount    = errors.New("fee exceeds gross amount")
	ErrFeeRateTooHigh      = errors.New("fee rate above maximum")
	ErrInsufficientBacking = errors.New("insufficient reference asset backing")
)

// Access errors.
var (
	ErrUnauthorized  = errors.New("unauthorized operation")
	ErrPaused        = errors.New("vault is paused")
	ErrNotPaused     = errors.New("vault is not paused")
	ErrReentrantCall = errors.New("reentrant call")
)
