package trade

import (
	"context"
	"testing"

	"github.com/zJvco/finance/internal/db"
	"github.com/zJvco/finance/internal/models"
	"github.com/zJvco/finance/internal/portfolio"
	"github.com/zJvco/finance/internal/quote"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// memStore mirrors the store's trade semantics in memory: a locked
// affordability check on buy, last-event pricing on sell and the
// delete-vs-negative-row liquidation split.
type memStore struct {
	cash   decimal.Decimal
	events []models.PurchaseEvent
}

func (m *memStore) ExecuteBuy(ctx context.Context, userID int, symbol string, price decimal.Decimal, shares int64) error {
	cost := price.Mul(decimal.NewFromInt(shares))
	if m.cash.LessThan(cost) {
		return db.ErrInsufficientFunds
	}
	m.cash = m.cash.Sub(cost)
	m.events = append(m.events, models.PurchaseEvent{UserID: userID, Stock: symbol, Price: price, Shares: shares})
	return nil
}

func (m *memStore) ExecuteSell(ctx context.Context, userID int, symbol string, shares int64) (decimal.Decimal, error) {
	var total int64
	var lastPrice decimal.Decimal
	for _, ev := range m.events {
		if ev.Stock == symbol {
			total += ev.Shares
			lastPrice = ev.Price
		}
	}
	if total == 0 {
		return decimal.Zero, db.ErrNotFound
	}
	if shares > total {
		return decimal.Zero, db.ErrInsufficientShares
	}

	proceeds := lastPrice.Mul(decimal.NewFromInt(shares))
	m.cash = m.cash.Add(proceeds)

	if shares == total {
		kept := m.events[:0]
		for _, ev := range m.events {
			if ev.Stock != symbol {
				kept = append(kept, ev)
			}
		}
		m.events = kept
	} else {
		m.events = append(m.events, models.PurchaseEvent{UserID: userID, Stock: symbol, Price: lastPrice, Shares: -shares})
	}
	return proceeds, nil
}

type fakeQuoter struct {
	quotes map[string]models.Quote
}

func (f *fakeQuoter) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	q, ok := f.quotes[symbol]
	if !ok {
		return models.Quote{}, quote.ErrNotFound
	}
	return q, nil
}

func newFixture(cash string) (*Service, *memStore) {
	store := &memStore{cash: decimal.RequireFromString(cash)}
	quoter := &fakeQuoter{quotes: map[string]models.Quote{
		"AAPL": {Symbol: "AAPL", Name: "Apple Inc.", Price: decimal.RequireFromString("50.00")},
		"NFLX": {Symbol: "NFLX", Name: "Netflix Inc.", Price: decimal.RequireFromString("20.00")},
	}}
	return NewService(store, quoter), store
}

func TestService_Buy_Validation(t *testing.T) {
	svc, store := newFixture("10000")

	tests := []struct {
		name    string
		symbol  string
		shares  int64
		wantErr error
	}{
		{name: "EmptySymbol", symbol: "", shares: 1, wantErr: ErrInvalidSymbol},
		{name: "WhitespaceSymbol", symbol: "   ", shares: 1, wantErr: ErrInvalidSymbol},
		{name: "ZeroShares", symbol: "AAPL", shares: 0, wantErr: ErrInvalidShares},
		{name: "NegativeShares", symbol: "AAPL", shares: -5, wantErr: ErrInvalidShares},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Buy(context.Background(), 1, tt.symbol, tt.shares)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, store.events, "validation failure must not touch the ledger")
		})
	}
}

func TestService_Buy_DebitsExactCost(t *testing.T) {
	svc, store := newFixture("10000")

	err := svc.Buy(context.Background(), 1, "AAPL", 10)
	assert.NoError(t, err)

	// cash = 10000 - 10*50
	assert.True(t, store.cash.Equal(decimal.RequireFromString("9500")), "cash is %s", store.cash)
	if assert.Len(t, store.events, 1) {
		assert.Equal(t, "AAPL", store.events[0].Stock)
		assert.Equal(t, int64(10), store.events[0].Shares)
		assert.True(t, store.events[0].Price.Equal(decimal.RequireFromString("50.00")))
	}
}

func TestService_Buy_InsufficientFunds(t *testing.T) {
	svc, store := newFixture("100")

	err := svc.Buy(context.Background(), 1, "AAPL", 3) // cost 150 > 100
	assert.ErrorIs(t, err, db.ErrInsufficientFunds)
	assert.True(t, store.cash.Equal(decimal.RequireFromString("100")), "failed buy must not move cash")
	assert.Empty(t, store.events)
}

func TestService_Buy_UnknownSymbol(t *testing.T) {
	svc, store := newFixture("10000")

	err := svc.Buy(context.Background(), 1, "ZZZZ", 1)
	assert.ErrorIs(t, err, quote.ErrNotFound)
	assert.Empty(t, store.events)
}

func TestService_Sell_Validation(t *testing.T) {
	svc, _ := newFixture("10000")

	assert.ErrorIs(t, svc.Sell(context.Background(), 1, "", 1), ErrInvalidSymbol)
	assert.ErrorIs(t, svc.Sell(context.Background(), 1, "AAPL", 0), ErrInvalidShares)
	assert.ErrorIs(t, svc.Sell(context.Background(), 1, "AAPL", -2), ErrInvalidShares)
}

func TestService_Sell_NoHolding(t *testing.T) {
	svc, _ := newFixture("10000")

	err := svc.Sell(context.Background(), 1, "AAPL", 1)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestService_Sell_InsufficientShares(t *testing.T) {
	svc, store := newFixture("10000")

	// buy 5 of NFLX at 20 (cost 100), then try to sell 6
	assert.NoError(t, svc.Buy(context.Background(), 1, "NFLX", 5))
	err := svc.Sell(context.Background(), 1, "NFLX", 6)

	assert.ErrorIs(t, err, db.ErrInsufficientShares)
	assert.True(t, store.cash.Equal(decimal.RequireFromString("9900")), "failed sell must not move cash, got %s", store.cash)
	assert.Len(t, store.events, 1)
}

func TestService_BuySell_RoundTrip(t *testing.T) {
	svc, store := newFixture("10000")

	// buy 10 at 50 -> cash 9500, holding worth 500
	assert.NoError(t, svc.Buy(context.Background(), 1, "AAPL", 10))
	holdings := portfolio.Aggregate(store.events)
	if assert.Len(t, holdings, 1) {
		assert.Equal(t, int64(10), holdings[0].TotalShares)
		assert.True(t, holdings[0].MarketValue.Equal(decimal.RequireFromString("500")))
	}

	// sell all 10 at the last recorded price -> cash restored, holding gone
	assert.NoError(t, svc.Sell(context.Background(), 1, "AAPL", 10))
	assert.True(t, store.cash.Equal(decimal.RequireFromString("10000")), "round trip should conserve cash, got %s", store.cash)
	assert.Empty(t, portfolio.Aggregate(store.events))
	assert.Empty(t, store.events, "full liquidation removes the ledger rows")
}

func TestService_Sell_Partial(t *testing.T) {
	svc, store := newFixture("10000")

	assert.NoError(t, svc.Buy(context.Background(), 1, "AAPL", 10))
	assert.NoError(t, svc.Sell(context.Background(), 1, "AAPL", 4))

	// 9500 + 4*50
	assert.True(t, store.cash.Equal(decimal.RequireFromString("9700")), "cash is %s", store.cash)
	holdings := portfolio.Aggregate(store.events)
	if assert.Len(t, holdings, 1) {
		assert.Equal(t, int64(6), holdings[0].TotalShares)
	}
	// partial sell is a negative row, not a rewrite
	if assert.Len(t, store.events, 2) {
		assert.Equal(t, int64(-4), store.events[1].Shares)
	}
}

func TestService_Sell_NormalizesSymbol(t *testing.T) {
	svc, store := newFixture("10000")

	assert.NoError(t, svc.Buy(context.Background(), 1, "AAPL", 2))
	assert.NoError(t, svc.Sell(context.Background(), 1, " aapl ", 2))
	assert.Empty(t, store.events)
}
