package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zJvco/finance/internal/auth"
	"github.com/zJvco/finance/internal/db"
	"github.com/zJvco/finance/internal/models"
	"github.com/zJvco/finance/internal/portfolio"
	"github.com/zJvco/finance/internal/quote"
	"github.com/zJvco/finance/internal/trade"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Ledger is the raw-history read path.
type Ledger interface {
	GetUserPurchases(ctx context.Context, userID int) ([]models.PurchaseEvent, error)
}

// Quoter resolves a ticker to a quote.
type Quoter interface {
	Lookup(ctx context.Context, symbol string) (models.Quote, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Auth      *auth.Service
	Trades    *trade.Service
	Portfolio *portfolio.Engine
	Ledger    Ledger
	Quotes    Quoter
}

// NewHandler creates a new handler
func NewHandler(authService *auth.Service, trades *trade.Service, engine *portfolio.Engine, ledger Ledger, quotes Quoter) *Handler {
	return &Handler{
		Auth:      authService,
		Trades:    trades,
		Portfolio: engine,
		Ledger:    ledger,
		Quotes:    quotes,
	}
}

// statusFor maps domain errors onto HTTP statuses. Anything
// unrecognized is an internal error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, trade.ErrInvalidSymbol),
		errors.Is(err, trade.ErrInvalidShares),
		errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, auth.ErrFieldTooLong),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, db.ErrInsufficientFunds),
		errors.Is(err, db.ErrInsufficientShares):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusForbidden
	case errors.Is(err, db.ErrNotFound), errors.Is(err, quote.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", slog.String("err", err.Error()))
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// JWTAuthMiddleware verifies JWT tokens
func (h *Handler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authorization header required"})
			return
		}

		// Remove "Bearer " prefix if present
		if len(tokenString) > 7 && tokenString[:7] == "Bearer " {
			tokenString = tokenString[7:]
		}

		userID, err := h.Auth.UserFromToken(tokenString)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) (int, bool) {
	id, ok := r.Context().Value(userIDKey).(int)
	return id, ok
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username     string `json:"username"`
		Password     string `json:"password"`
		Confirmation string `json:"confirmation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	user, err := h.Auth.Register(r.Context(), req.Username, req.Password, req.Confirmation)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
	})
}

// Login handles user login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	token, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Logout acknowledges a logout. Sessions are stateless JWTs, so the
// client simply discards its token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Index shows the portfolio: cash, current holdings and total equity
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	holdings, err := h.Portfolio.Holdings(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	cash, err := h.Portfolio.CashBalance(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	total, err := h.Portfolio.TotalEquity(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cash":     cash,
		"holdings": holdings,
		"total":    total,
	})
}

// Buy handles a share purchase
func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	var req struct {
		Symbol string `json:"symbol"`
		Shares int64  `json:"shares"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	if err := h.Trades.Buy(r.Context(), id, req.Symbol, req.Shares); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "purchase completed"})
}

// Sell handles a share sale
func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	var req struct {
		Symbol string `json:"symbol"`
		Shares int64  `json:"shares"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	if err := h.Trades.Sell(r.Context(), id, req.Symbol, req.Shares); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "sale completed"})
}

// History returns the raw signed ledger rows for the user
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	events, err := h.Ledger.GetUserPurchases(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []models.PurchaseEvent{}
	}

	writeJSON(w, http.StatusOK, events)
}

// Quote looks up a live quote for ?symbol=
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "symbol parameter required"})
		return
	}

	q, err := h.Quotes.Lookup(r.Context(), symbol)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, q)
}

// ChangePassword rotates the user's password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
		Confirmation    string `json:"confirmation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	if err := h.Auth.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword, req.Confirmation); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}
