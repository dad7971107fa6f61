package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a registered user
type User struct {
	ID           int             `json:"id"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"`
	Cash         decimal.Decimal `json:"cash"`
	CreatedAt    time.Time       `json:"created_at"`
}

// PurchaseEvent is one row of the trade ledger. Shares is signed:
// positive rows are buys, negative rows are partial sells. Rows are
// never updated; a full liquidation deletes every row for the
// (user, stock) pair instead.
type PurchaseEvent struct {
	ID           int             `json:"id"`
	UserID       int             `json:"user_id"`
	Stock        string          `json:"stock"`
	Price        decimal.Decimal `json:"price"`
	Shares       int64           `json:"shares"`
	PurchaseDate time.Time       `json:"purchase_date"`
}

// Holding is the current position in one stock, derived from the
// ledger. Name is filled in from the quote service when available.
type Holding struct {
	Symbol      string          `json:"symbol"`
	Name        string          `json:"name,omitempty"`
	TotalShares int64           `json:"total_shares"`
	LastPrice   decimal.Decimal `json:"last_price"`
	MarketValue decimal.Decimal `json:"market_value"`
}

// Quote is the answer from the external quote service
type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}
