// Package users implements the credential store: a single shared table of
// username → secret, loaded at startup and rewritten in full after every
// successful registration.
package users

import (
	"fmt"
	"strings"
	"sync"

	"forum/internal/common"
)

// Service owns the in-memory credential table. All access is serialized by
// one exclusive lock; the table is small and contention is not a concern.
type Service struct {
	mu    sync.Mutex
	table map[string]string
	repo  Repository
}

func NewService(repo Repository) (*Service, error) {
	table, err := repo.Load()
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	return &Service{table: table, repo: repo}, nil
}

// Lookup returns the stored secret for name, or common.ErrNotFound.
func (s *Service) Lookup(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	secret, ok := s.table[name]
	if !ok {
		return "", common.ErrNotFound
	}
	return secret, nil
}

// Register adds a new user and persists the whole table. Usernames must be
// a single token with no embedded whitespace.
func (s *Service) Register(name, secret string) error {
	if name == "" || strings.ContainsAny(name, " \t") {
		return common.ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.table[name]; ok {
		return common.ErrAlreadyExists
	}
	s.table[name] = secret
	if err := s.repo.Save(s.table); err != nil {
		delete(s.table, name)
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Count reports the number of registered users.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.table)
}
