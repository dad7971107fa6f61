package db

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInsufficientFunds  = errors.New("insufficient cash for purchase")
	ErrInsufficientShares = errors.New("insufficient shares to sell")
)
