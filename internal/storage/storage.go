package storage

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/videotube-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrUsernameTaken and ErrEmailTaken narrow ErrAlreadyExists to the column
// that collided. Both match errors.Is(err, ErrAlreadyExists).
var (
	ErrUsernameTaken = fmt.Errorf("username: %w", ErrAlreadyExists)
	ErrEmailTaken    = fmt.Errorf("email: %w", ErrAlreadyExists)
)

//go:generate mockgen -source=storage.go -destination=mocks/mock_storage.go -package=mocks UserStore

// UserStore captures persistence operations needed by registration.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	CreateUser(ctx context.Context, user models.NewUser) (models.User, error)
	// FindPublicByID reads a user without its password hash or refresh token.
	FindPublicByID(ctx context.Context, id int64) (models.PublicUser, error)
}

// HashPassword hashes a raw password for storage. A non-positive cost falls
// back to bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
