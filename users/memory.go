package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. It enforces the same uniqueness rules as
// the Postgres schema and is used by tests that exercise the flows end to end.
type MemoryStore struct {
	mu         sync.RWMutex
	byEmail    map[string]*User
	byUserName map[string]*User
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byEmail:    make(map[string]*User),
		byUserName: make(map[string]*User),
	}
}

// ExistsByEmailOrUserName implements Store.
func (s *MemoryStore) ExistsByEmailOrUserName(_ context.Context, email, userName string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, emailTaken := s.byEmail[email]
	_, nameTaken := s.byUserName[userName]
	return emailTaken || nameTaken, nil
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return ErrDuplicate
	}
	if _, ok := s.byUserName[user.UserName]; ok {
		return ErrDuplicate
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now().UTC()

	stored := *user
	s.byEmail[stored.Email] = &stored
	s.byUserName[stored.UserName] = &stored
	return nil
}

// GetByEmail implements Store. It returns a copy so callers cannot mutate the store.
func (s *MemoryStore) GetByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	out := *user
	return &out, nil
}

// Len returns the number of stored users.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEmail)
}
