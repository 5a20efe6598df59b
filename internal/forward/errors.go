package forward

import "errors"

var (
	// ErrUnknownCurrency indicates a currency code missing from the rate table.
	ErrUnknownCurrency = errors.New("forward: unknown currency")
	// ErrTenorNotFound indicates a tenor label outside the curve schedule.
	ErrTenorNotFound = errors.New("forward: tenor not found")
	// ErrInvalidPair indicates a malformed currency pair.
	ErrInvalidPair = errors.New("forward: invalid currency pair")
	// ErrInvalidSpot indicates a non-positive spot rate.
	ErrInvalidSpot = errors.New("forward: spot rate must be positive")
)
