//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/videotube-be/internal/models"
	"github.com/hongminglow/videotube-be/internal/storage"
)

type PostgresStoreSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	store     *Store
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("videotube"),
		tcpostgres.WithUsername("videotube"),
		tcpostgres.WithPassword("videotube"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.store, err = NewUserStore(ctx, dsn, bcrypt.MinCost)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.store != nil {
		s.store.Close()
	}
	if s.container != nil {
		_ = testcontainers.TerminateContainer(s.container)
	}
}

func (s *PostgresStoreSuite) newUser() models.NewUser {
	suffix := time.Now().UnixNano()
	return models.NewUser{
		FullName: "Jane Doe",
		Username: fmt.Sprintf("jane_%d", suffix),
		Email:    fmt.Sprintf("jane_%d@example.com", suffix),
		Password: "secret",
		Avatar:   "https://cdn.example/avatar.png",
	}
}

func (s *PostgresStoreSuite) TestCreateAndReadBack() {
	ctx := context.Background()
	in := s.newUser()

	created, err := s.store.CreateUser(ctx, in)
	s.Require().NoError(err)
	s.NotZero(created.ID)
	s.Empty(created.CoverImage)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret")))

	public, err := s.store.FindPublicByID(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(in.Username, public.Username)
	s.Equal(in.Avatar, public.Avatar)

	byName, err := s.store.FindByUsername(ctx, in.Username)
	s.Require().NoError(err)
	s.Equal(created.ID, byName.ID)

	byEmail, err := s.store.FindByEmail(ctx, in.Email)
	s.Require().NoError(err)
	s.Equal(created.ID, byEmail.ID)
}

func (s *PostgresStoreSuite) TestUniqueConstraints() {
	ctx := context.Background()
	first := s.newUser()
	_, err := s.store.CreateUser(ctx, first)
	s.Require().NoError(err)

	s.Run("duplicate username", func() {
		dup := s.newUser()
		dup.Username = first.Username
		_, err := s.store.CreateUser(ctx, dup)
		s.ErrorIs(err, storage.ErrUsernameTaken)
	})

	s.Run("duplicate email", func() {
		dup := s.newUser()
		dup.Email = first.Email
		_, err := s.store.CreateUser(ctx, dup)
		s.ErrorIs(err, storage.ErrEmailTaken)
	})
}

func (s *PostgresStoreSuite) TestMissingRows() {
	ctx := context.Background()
	_, err := s.store.FindByUsername(ctx, "nobody")
	s.ErrorIs(err, storage.ErrNotFound)

	_, err = s.store.FindPublicByID(ctx, -1)
	require.ErrorIs(s.T(), err, storage.ErrNotFound)
}
