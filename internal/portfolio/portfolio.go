package portfolio

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/zJvco/finance/internal/models"

	"github.com/shopspring/decimal"
)

// Store is the read side of the ledger the engine needs.
type Store interface {
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserPurchases(ctx context.Context, userID int) ([]models.PurchaseEvent, error)
}

// Quoter resolves a ticker to a quote.
type Quoter interface {
	Lookup(ctx context.Context, symbol string) (models.Quote, error)
}

// Engine derives current holdings and valuation from the ledger.
// It never writes.
type Engine struct {
	store  Store
	quotes Quoter
}

func NewEngine(store Store, quotes Quoter) *Engine {
	return &Engine{store: store, quotes: quotes}
}

// Aggregate folds ordered purchase events into current holdings: per
// symbol the signed shares are summed and the price of the most recent
// event is carried as the current price. Symbols whose shares sum to
// zero are dropped. The result is sorted by symbol.
func Aggregate(events []models.PurchaseEvent) []models.Holding {
	type position struct {
		shares    int64
		lastPrice decimal.Decimal
	}

	positions := make(map[string]*position)
	for _, ev := range events {
		pos, ok := positions[ev.Stock]
		if !ok {
			pos = &position{}
			positions[ev.Stock] = pos
		}
		pos.shares += ev.Shares
		pos.lastPrice = ev.Price
	}

	holdings := make([]models.Holding, 0, len(positions))
	for symbol, pos := range positions {
		if pos.shares == 0 {
			continue
		}
		holdings = append(holdings, models.Holding{
			Symbol:      symbol,
			TotalShares: pos.shares,
			LastPrice:   pos.lastPrice,
			MarketValue: pos.lastPrice.Mul(decimal.NewFromInt(pos.shares)),
		})
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })
	return holdings
}

// Holdings returns the user's current positions with company names
// filled in from the quote service. A failed name lookup only leaves
// that holding's name empty; it never fails the portfolio view.
func (e *Engine) Holdings(ctx context.Context, userID int) ([]models.Holding, error) {
	events, err := e.store.GetUserPurchases(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	holdings := Aggregate(events)
	for i := range holdings {
		q, err := e.quotes.Lookup(ctx, holdings[i].Symbol)
		if err != nil {
			slog.Debug("skipping name enrichment", slog.String("symbol", holdings[i].Symbol), slog.String("err", err.Error()))
			continue
		}
		holdings[i].Name = q.Name
	}
	return holdings, nil
}

// CashBalance returns the user's current cash.
func (e *Engine) CashBalance(ctx context.Context, userID int) (decimal.Decimal, error) {
	user, err := e.store.GetUserByID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return user.Cash, nil
}

// TotalEquity returns cash plus the market value of every holding.
func (e *Engine) TotalEquity(ctx context.Context, userID int) (decimal.Decimal, error) {
	user, err := e.store.GetUserByID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	events, err := e.store.GetUserPurchases(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load ledger: %w", err)
	}

	total := user.Cash
	for _, h := range Aggregate(events) {
		total = total.Add(h.MarketValue)
	}
	return total, nil
}
