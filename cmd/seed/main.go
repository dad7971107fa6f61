package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/zJvco/finance/internal/config"
	"github.com/zJvco/finance/internal/db"
	"github.com/zJvco/finance/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Seed the database with demo users and a few trades
func main() {
	cfg := config.MustLoad()
	ctx := context.Background()

	database, err := db.NewDB(ctx, cfg.Postgres.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(cfg.Postgres.MigrationURL(), cfg.Postgres.MigrationDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	alice := seedUser(ctx, database, "alice", "password123", cfg.StartingCashAmount())
	bob := seedUser(ctx, database, "bob", "password123", cfg.StartingCashAmount())

	seedTrade(ctx, database, alice, "AAPL", "150.25", 10)
	seedTrade(ctx, database, alice, "NFLX", "420.50", 3)
	seedTrade(ctx, database, bob, "AAPL", "151.00", 5)

	fmt.Println("Seed complete.")
}

func seedUser(ctx context.Context, database *db.DB, username, password string, cash decimal.Decimal) *models.User {
	existing, err := database.GetUserByUsername(ctx, username)
	if err == nil {
		fmt.Printf("User %s already exists, skipping\n", username)
		return existing
	}
	if !errors.Is(err, db.ErrNotFound) {
		log.Fatalf("Failed to look up user %s: %v", username, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user, err := database.CreateUser(ctx, username, string(hash), cash)
	if err != nil {
		log.Fatalf("Failed to create user %s: %v", username, err)
	}
	fmt.Printf("Created user %s (id %d)\n", username, user.ID)
	return user
}

func seedTrade(ctx context.Context, database *db.DB, user *models.User, symbol, price string, shares int64) {
	err := database.ExecuteBuy(ctx, user.ID, symbol, decimal.RequireFromString(price), shares)
	if err != nil {
		log.Fatalf("Failed to seed buy for %s: %v", user.Username, err)
	}
	fmt.Printf("Seeded buy: %s %d x %s @ %s\n", user.Username, shares, symbol, price)
}
