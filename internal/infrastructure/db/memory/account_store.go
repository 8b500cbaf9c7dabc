// Package memory provides the volatile in-process AccountStore used for
// development and tests. Data is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/credentio/credential-system/internal/core/domain"
	"github.com/credentio/credential-system/internal/core/ports"
)

// Store keeps account records in a map guarded by one RWMutex. Serializing
// all access behind a single lock is acceptable here; the durable stores
// provide per-record isolation instead.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	byEmail  map[string]string
	nextID   int64
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*domain.Account),
		byEmail:  make(map[string]string),
	}
}

func clone(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	copy := *a
	if a.LastLogin != nil {
		t := *a.LastLogin
		copy.LastLogin = &t
	}
	if a.LockedUntil != nil {
		t := *a.LockedUntil
		copy.LockedUntil = &t
	}
	return &copy
}

func (s *Store) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.Username]; ok {
		return nil, domain.ErrUserExists
	}
	if account.Email != "" {
		if _, ok := s.byEmail[account.Email]; ok {
			return nil, domain.ErrUserExists
		}
	}

	s.nextID++
	stored := clone(account)
	stored.ID = s.nextID
	s.accounts[stored.Username] = stored
	if stored.Email != "" {
		s.byEmail[stored.Email] = stored.Username
	}
	return clone(stored), nil
}

func (s *Store) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(a), nil
}

func (s *Store) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.ID == id {
			return clone(a), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *Store) Exists(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.accounts[username]
	return ok, nil
}

func (s *Store) Update(_ context.Context, username string, upd domain.AccountUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[username]
	if !ok {
		return domain.ErrUserNotFound
	}
	if upd.IsZero() {
		return nil
	}
	if upd.Email != nil && *upd.Email != a.Email {
		if *upd.Email != "" {
			if taken, ok := s.byEmail[*upd.Email]; ok && taken != username {
				return domain.ErrUserExists
			}
		}
		if a.Email != "" {
			delete(s.byEmail, a.Email)
		}
		a.Email = *upd.Email
		if a.Email != "" {
			s.byEmail[a.Email] = username
		}
	}
	if upd.IsActive != nil {
		a.IsActive = *upd.IsActive
	}
	if upd.PasswordHash != nil {
		a.PasswordHash = *upd.PasswordHash
	}
	if upd.Salt != nil {
		a.Salt = *upd.Salt
	}
	if upd.LockedUntil != nil {
		t := *upd.LockedUntil
		a.LockedUntil = &t
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) Delete(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[username]
	if !ok {
		return domain.ErrUserNotFound
	}
	if a.Email != "" {
		delete(s.byEmail, a.Email)
	}
	delete(s.accounts, username)
	return nil
}

func (s *Store) List(_ context.Context, limit, offset int) ([]*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		all = append(all, a)
	}
	// Newest first, matching the durable stores' ordering.
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []*domain.Profile{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}

	profiles := make([]*domain.Profile, len(all))
	for i, a := range all {
		profiles[i] = domain.ProfileOf(a)
	}
	return profiles, nil
}

func (s *Store) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.accounts)), nil
}

func (s *Store) IncrementFailedLogins(_ context.Context, username string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[username]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	a.FailedLoginAttempts++
	return a.FailedLoginAttempts, nil
}

func (s *Store) ResetFailedLogins(_ context.Context, username string, lastLogin time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[username]
	if !ok {
		return domain.ErrUserNotFound
	}
	a.FailedLoginAttempts = 0
	a.LockedUntil = nil
	login := lastLogin
	a.LastLogin = &login
	return nil
}

var _ ports.AccountStore = (*Store)(nil)
