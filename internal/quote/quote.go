package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zJvco/finance/internal/config"
	"github.com/zJvco/finance/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// ErrNotFound means the quote service does not know the symbol.
var ErrNotFound = errors.New("unknown symbol")

// Client looks up quotes against an IEX-style REST API. Every lookup
// hits the service fresh; there is no caching and no retry, and the
// resty timeout bounds the blocking call.
type Client struct {
	client *resty.Client
	token  string
}

func New(cfg *config.Config) *Client {
	client := resty.New().
		SetDebug(cfg.Quote.Debug).
		SetTimeout(cfg.Quote.Timeout).
		SetBaseURL(cfg.Quote.URL)
	return &Client{client: client, token: cfg.Quote.APIKey}
}

// Lookup resolves a ticker symbol to {symbol, name, price}.
func (c *Client) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	slog.Debug("start quote lookup", slog.String("symbol", symbol))

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetPathParam("symbol", symbol).
		SetQueryParam("token", c.token).
		Get("/stable/stock/{symbol}/quote")
	if err != nil {
		slog.Error("error while dialing quote service", slog.String("err", err.Error()), slog.String("symbol", symbol))
		return models.Quote{}, fmt.Errorf("quote lookup failed: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return models.Quote{}, ErrNotFound
	}
	if resp.IsError() {
		return models.Quote{}, fmt.Errorf("quote service returned %s", resp.Status())
	}

	var body struct {
		Symbol      string          `json:"symbol"`
		CompanyName string          `json:"companyName"`
		LatestPrice decimal.Decimal `json:"latestPrice"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		slog.Error("can't unmarshal quote response", slog.String("err", err.Error()), slog.String("symbol", symbol))
		return models.Quote{}, fmt.Errorf("failed to decode quote: %w", err)
	}
	if body.Symbol == "" {
		return models.Quote{}, ErrNotFound
	}

	slog.Debug("quote lookup complete", slog.String("symbol", body.Symbol))

	return models.Quote{
		Symbol: body.Symbol,
		Name:   body.CompanyName,
		Price:  body.LatestPrice,
	}, nil
}
