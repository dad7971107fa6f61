package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":8080"`
	StartingCash string `env:"STARTING_CASH" envDefault:"10000"`
	Postgres     Postgres
	Quote        Quote
	Auth         Auth
}

type Postgres struct {
	Host         string `env:"PG_HOST" envDefault:"localhost"`
	Port         int    `env:"PG_PORT" envDefault:"5432"`
	DbName       string `env:"PG_DB_NAME" envDefault:"finance_db"`
	User         string `env:"PG_USER" envDefault:"finance_user"`
	Password     string `env:"PG_PASSWORD" envDefault:"finance_pass"`
	MigrationDir string `env:"PG_MIGRATION_DIR" envDefault:"migrations"`
}

type Quote struct {
	URL     string        `env:"QUOTE_API_URL" envDefault:"https://cloud.iexapis.com"`
	APIKey  string        `env:"API_KEY"`
	Timeout time.Duration `env:"QUOTE_API_TIMEOUT" envDefault:"5s"`
	Debug   bool          `env:"QUOTE_API_DEBUG"`
}

type Auth struct {
	JWTSecret  string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

// MustLoad reads .env if present, parses the environment and dies on
// anything that would leave the service unable to work.
func MustLoad() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, reading environment directly")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if cfg.Quote.APIKey == "" {
		log.Fatal("API_KEY not set")
	}
	if _, err := decimal.NewFromString(cfg.StartingCash); err != nil {
		log.Fatalf("invalid STARTING_CASH %q: %v", cfg.StartingCash, err)
	}

	return cfg
}

// DSN returns the connection string for the pgx pool.
func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		p.User, p.Password, p.Host, p.Port, p.DbName)
}

// MigrationURL returns the connection string for golang-migrate's pgx driver.
func (p Postgres) MigrationURL() string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%d/%s?sslmode=disable",
		p.User, p.Password, p.Host, p.Port, p.DbName)
}

// StartingCashAmount returns the cash balance granted at registration.
// MustLoad has already validated the value.
func (c *Config) StartingCashAmount() decimal.Decimal {
	return decimal.RequireFromString(c.StartingCash)
}
