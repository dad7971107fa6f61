package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/zJvco/finance/internal/models"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB initializes a new database connection pool with the decimal
// codec registered, so NUMERIC columns scan into decimal.Decimal.
func NewDB(ctx context.Context, connString string) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.Pool.Close()
}

// CreateUser inserts a new user with the given starting cash balance
func (db *DB) CreateUser(ctx context.Context, username, passwordHash string, cash decimal.Decimal) (*models.User, error) {
	user := &models.User{}
	err := db.Pool.QueryRow(ctx,
		"INSERT INTO users (username, password_hash, cash) VALUES ($1, $2, $3) RETURNING id, username, password_hash, cash, created_at",
		username, passwordHash, cash).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Cash, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := db.Pool.QueryRow(ctx,
		"SELECT id, username, password_hash, cash, created_at FROM users WHERE username = $1",
		username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Cash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by id
func (db *DB) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := db.Pool.QueryRow(ctx,
		"SELECT id, username, password_hash, cash, created_at FROM users WHERE id = $1",
		id).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Cash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateUserPassword overwrites a user's password hash
func (db *DB) UpdateUserPassword(ctx context.Context, userID int, passwordHash string) error {
	tag, err := db.Pool.Exec(ctx,
		"UPDATE users SET password_hash = $1 WHERE id = $2", passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUserPurchases retrieves the user's full ledger in event order
func (db *DB) GetUserPurchases(ctx context.Context, userID int) ([]models.PurchaseEvent, error) {
	rows, err := db.Pool.Query(ctx,
		"SELECT id, user_id, stock, price, shares, purchase_date FROM purchases WHERE user_id = $1 ORDER BY purchase_date ASC, id ASC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchases: %w", err)
	}
	defer rows.Close()

	var events []models.PurchaseEvent
	for rows.Next() {
		var ev models.PurchaseEvent
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Stock, &ev.Price, &ev.Shares, &ev.PurchaseDate); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read purchases: %w", err)
	}
	return events, nil
}

// ExecuteBuy commits a buy as one transaction: the user's row is
// locked, affordability is checked against the locked cash balance,
// then cash is debited and a positive ledger row appended. A failed
// check leaves both tables untouched.
func (db *DB) ExecuteBuy(ctx context.Context, userID int, symbol string, price decimal.Decimal, shares int64) error {
	cost := price.Mul(decimal.NewFromInt(shares))

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var cash decimal.Decimal
	err = tx.QueryRow(ctx, "SELECT cash FROM users WHERE id = $1 FOR UPDATE", userID).Scan(&cash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read cash balance: %w", err)
	}

	if cash.LessThan(cost) {
		return ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx, "UPDATE users SET cash = cash - $1 WHERE id = $2", cost, userID); err != nil {
		return fmt.Errorf("failed to debit cash: %w", err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO purchases (user_id, stock, price, shares) VALUES ($1, $2, $3, $4)",
		userID, symbol, price, shares); err != nil {
		return fmt.Errorf("failed to record purchase: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ExecuteSell commits a sell as one transaction. The user's row lock
// serializes trades for that user, so the share aggregate cannot move
// under us. The sell executes at the price of the most recent ledger
// event for (user, symbol). Selling the whole position deletes every
// row for the pair; a partial sell appends a negative row.
func (db *DB) ExecuteSell(ctx context.Context, userID int, symbol string, shares int64) (decimal.Decimal, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var cash decimal.Decimal
	err = tx.QueryRow(ctx, "SELECT cash FROM users WHERE id = $1 FOR UPDATE", userID).Scan(&cash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to lock user: %w", err)
	}

	var totalShares int64
	err = tx.QueryRow(ctx,
		"SELECT COALESCE(SUM(shares), 0) FROM purchases WHERE user_id = $1 AND stock = $2",
		userID, symbol).Scan(&totalShares)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to aggregate holding: %w", err)
	}

	if totalShares == 0 {
		return decimal.Zero, ErrNotFound
	}
	if shares > totalShares {
		return decimal.Zero, ErrInsufficientShares
	}

	var lastPrice decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT price FROM purchases WHERE user_id = $1 AND stock = $2 ORDER BY purchase_date DESC, id DESC LIMIT 1",
		userID, symbol).Scan(&lastPrice)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read last price: %w", err)
	}

	proceeds := lastPrice.Mul(decimal.NewFromInt(shares))

	if _, err := tx.Exec(ctx, "UPDATE users SET cash = cash + $1 WHERE id = $2", proceeds, userID); err != nil {
		return decimal.Zero, fmt.Errorf("failed to credit cash: %w", err)
	}

	if shares == totalShares {
		if _, err := tx.Exec(ctx,
			"DELETE FROM purchases WHERE user_id = $1 AND stock = $2", userID, symbol); err != nil {
			return decimal.Zero, fmt.Errorf("failed to liquidate holding: %w", err)
		}
	} else {
		if _, err := tx.Exec(ctx,
			"INSERT INTO purchases (user_id, stock, price, shares) VALUES ($1, $2, $3, $4)",
			userID, symbol, lastPrice, -shares); err != nil {
			return decimal.Zero, fmt.Errorf("failed to record sale: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return proceeds, nil
}
