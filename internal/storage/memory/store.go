package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hongminglow/videotube-be/internal/models"
	"github.com/hongminglow/videotube-be/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

// Store keeps users in process memory. It enforces the same uniqueness rules
// as the Postgres store and is meant for tests and local development.
type Store struct {
	mu         sync.RWMutex
	nextID     int64
	users      map[int64]models.User
	byUsername map[string]int64
	byEmail    map[string]int64
	bcryptCost int
	now        func() time.Time
}

// New returns an empty store.
func New(bcryptCost int) *Store {
	return &Store{
		users:      make(map[int64]models.User),
		byUsername: make(map[string]int64),
		byEmail:    make(map[string]int64),
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

func (s *Store) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) CreateUser(_ context.Context, user models.NewUser) (models.User, error) {
	passwordHash, err := storage.HashPassword(user.Password, s.bcryptCost)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byUsername[user.Username]; taken {
		return models.User{}, storage.ErrUsernameTaken
	}
	if _, taken := s.byEmail[user.Email]; taken {
		return models.User{}, storage.ErrEmailTaken
	}

	s.nextID++
	now := s.now().UTC()
	created := models.User{
		ID:           s.nextID,
		FullName:     user.FullName,
		Username:     user.Username,
		Email:        user.Email,
		Avatar:       user.Avatar,
		CoverImage:   user.CoverImage,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[created.ID] = created
	s.byUsername[created.Username] = created.ID
	s.byEmail[created.Email] = created.ID
	return created, nil
}

func (s *Store) FindPublicByID(_ context.Context, id int64) (models.PublicUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.PublicUser{}, storage.ErrNotFound
	}
	return user.Public(), nil
}

// Len reports how many users are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
