package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zJvco/finance/internal/db"
	"github.com/zJvco/finance/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the slice of the store the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string, cash decimal.Decimal) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	UpdateUserPassword(ctx context.Context, userID int, passwordHash string) error
}

// Service handles registration, credential verification and session
// tokens.
type Service struct {
	store        UserStore
	secret       []byte
	ttl          time.Duration
	startingCash decimal.Decimal
}

func NewService(store UserStore, secret string, ttl time.Duration, startingCash decimal.Decimal) *Service {
	return &Service{
		store:        store,
		secret:       []byte(secret),
		ttl:          ttl,
		startingCash: startingCash,
	}
}

// Register creates a new user with a hashed password and the
// configured starting cash.
func (s *Service) Register(ctx context.Context, username, password, confirmation string) (*models.User, error) {
	if username == "" || password == "" || confirmation == "" {
		return nil, ErrMissingFields
	}
	if len(username) > 50 {
		return nil, fmt.Errorf("%w: username (max 50 characters)", ErrFieldTooLong)
	}
	if len(password) > 100 {
		return nil, fmt.Errorf("%w: password (max 100 characters)", ErrFieldTooLong)
	}
	if password != confirmation {
		return nil, ErrPasswordMismatch
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, username, string(hashedPassword), s.startingCash)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and generates a JWT
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", ErrMissingFields
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(s.ttl).Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ChangePassword overwrites the hash after verifying the current
// password.
func (s *Service) ChangePassword(ctx context.Context, userID int, current, newPassword, confirmation string) error {
	if current == "" || newPassword == "" || confirmation == "" {
		return ErrMissingFields
	}
	if newPassword != confirmation {
		return ErrPasswordMismatch
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.UpdateUserPassword(ctx, userID, string(hashedPassword))
}

// UserFromToken extracts the user ID from a JWT
func (s *Service) UserFromToken(tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token")
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errors.New("invalid token claims")
	}
	return int(userID), nil
}
