package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/videotube-be/internal/models"
	"github.com/hongminglow/videotube-be/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

const (
	uniqueViolation    = "23505"
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

// Store provides Postgres-backed persistence for users.
type Store struct {
	pool       *pgxpool.Pool
	bcryptCost int
}

// NewUserStore creates a new Store and runs migrations.
func NewUserStore(ctx context.Context, databaseURL string, bcryptCost int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool, bcryptCost: bcryptCost}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks the connection pool.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			full_name TEXT NOT NULL,
			username TEXT NOT NULL,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			avatar TEXT NOT NULL CHECK (avatar <> ''),
			cover_image TEXT NOT NULL DEFAULT '',
			refresh_token TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT users_username_key UNIQUE (username),
			CONSTRAINT users_email_key UNIQUE (email)
		);`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS cover_image TEXT NOT NULL DEFAULT '';`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS refresh_token TEXT NOT NULL DEFAULT '';`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW();`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// CreateUser hashes the password and inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.NewUser) (models.User, error) {
	passwordHash, err := storage.HashPassword(user.Password, s.bcryptCost)
	if err != nil {
		return models.User{}, err
	}

	const query = `
		INSERT INTO users (full_name, username, email, password_hash, avatar, cover_image)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, full_name, username, email, password_hash, avatar, cover_image, refresh_token, created_at, updated_at;
		`
	row := s.pool.QueryRow(ctx, query, user.FullName, user.Username, user.Email, passwordHash, user.Avatar, user.CoverImage)
	created, err := scanUser(row)
	if err != nil {
		return models.User{}, translateConflict(err)
	}
	return created, nil
}

// FindByUsername fetches a user by exact username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	const query = `
	SELECT id, full_name, username, email, password_hash, avatar, cover_image, refresh_token, created_at, updated_at
	FROM users
	WHERE username = $1;
	`
	row := s.pool.QueryRow(ctx, query, username)
	return scanUser(row)
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
	SELECT id, full_name, username, email, password_hash, avatar, cover_image, refresh_token, created_at, updated_at
	FROM users
	WHERE email = $1;
	`
	row := s.pool.QueryRow(ctx, query, email)
	return scanUser(row)
}

// FindPublicByID fetches a user by id, never selecting secret columns.
func (s *Store) FindPublicByID(ctx context.Context, id int64) (models.PublicUser, error) {
	const query = `
	SELECT id, full_name, username, email, avatar, cover_image, created_at, updated_at
	FROM users
	WHERE id = $1;
	`
	var user models.PublicUser
	err := s.pool.QueryRow(ctx, query, id).Scan(&user.ID, &user.FullName, &user.Username, &user.Email, &user.Avatar, &user.CoverImage, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PublicUser{}, storage.ErrNotFound
		}
		return models.PublicUser{}, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.FullName, &user.Username, &user.Email, &user.PasswordHash, &user.Avatar, &user.CoverImage, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func translateConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case usernameConstraint:
		return storage.ErrUsernameTaken
	case emailConstraint:
		return storage.ErrEmailTaken
	default:
		return storage.ErrAlreadyExists
	}
}
