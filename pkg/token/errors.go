package token

import "errors"

// Validation errors.
var (
	ErrZeroAddress = errors.New("zero address")
	ErrZeroAmount  = errors.New("zero amount")
)

// Authorization state errors.
var (
	ErrTxAlreadySet = errors.New("transaction id already authorized or executed")
	ErrTxNotSet     = errors.New("transaction id not authorized")
)

// Balance errors.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Access errors.
var (
	ErrUnauthorized = errors.New("unauthorized operation")
	ErrPaused       = errors.New("contract is paused")
	ErrNotPaused    = errors.New("contract is not paused")
)

// Blacklist errors.
var (
	ErrBlacklisted    = errors.New("account is blacklisted")
	ErrNotBlacklisted = errors.New("account is not blacklisted")
)
