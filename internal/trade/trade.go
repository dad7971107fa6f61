package trade

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zJvco/finance/internal/models"

	"github.com/shopspring/decimal"
)

// Store is the write side of the ledger: both commits are atomic and
// report insufficient funds/shares through db sentinel errors.
type Store interface {
	ExecuteBuy(ctx context.Context, userID int, symbol string, price decimal.Decimal, shares int64) error
	ExecuteSell(ctx context.Context, userID int, symbol string, shares int64) (decimal.Decimal, error)
}

// Quoter resolves a ticker to a quote.
type Quoter interface {
	Lookup(ctx context.Context, symbol string) (models.Quote, error)
}

// Service validates and commits buys and sells.
type Service struct {
	store  Store
	quotes Quoter
}

func NewService(store Store, quotes Quoter) *Service {
	return &Service{store: store, quotes: quotes}
}

// Buy purchases shares at the live quoted price. The store commit
// checks affordability under lock, so a concurrent trade can never
// push cash negative.
func (s *Service) Buy(ctx context.Context, userID int, symbol string, shares int64) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return ErrInvalidSymbol
	}
	if shares <= 0 {
		return ErrInvalidShares
	}

	q, err := s.quotes.Lookup(ctx, symbol)
	if err != nil {
		return err
	}

	if err := s.store.ExecuteBuy(ctx, userID, q.Symbol, q.Price, shares); err != nil {
		return fmt.Errorf("buy %d %s: %w", shares, q.Symbol, err)
	}

	slog.Info("buy committed",
		slog.Int("user_id", userID),
		slog.String("symbol", q.Symbol),
		slog.Int64("shares", shares),
		slog.String("price", q.Price.String()))
	return nil
}

// Sell disposes of shares at the last price recorded in the ledger,
// not a fresh quote. The store aggregates the holding and settles in
// one transaction.
func (s *Service) Sell(ctx context.Context, userID int, symbol string, shares int64) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return ErrInvalidSymbol
	}
	if shares <= 0 {
		return ErrInvalidShares
	}

	proceeds, err := s.store.ExecuteSell(ctx, userID, symbol, shares)
	if err != nil {
		return fmt.Errorf("sell %d %s: %w", shares, symbol, err)
	}

	slog.Info("sell committed",
		slog.Int("user_id", userID),
		slog.String("symbol", symbol),
		slog.Int64("shares", shares),
		slog.String("proceeds", proceeds.String()))
	return nil
}
