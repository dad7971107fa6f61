package trade

import "errors"

var (
	ErrInvalidSymbol = errors.New("symbol must not be empty")
	ErrInvalidShares = errors.New("shares must be a positive integer")
)
