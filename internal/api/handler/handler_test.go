package handler

import (
	"context"
	"time"

	"github.com/credentio/credential-system/internal/core/domain"
)

// stubService is a canned-response CredentialService for handler tests.
type stubService struct {
	account  *domain.Account
	profile  *domain.Profile
	profiles []*domain.Profile
	total    int64
	err      error

	registered      []string
	passwordChanged string
	deleted         string
	updatedEmail    *string
}

func (s *stubService) Register(_ context.Context, username, _, _ string) (*domain.Account, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.registered = append(s.registered, username)
	return s.account, nil
}

func (s *stubService) Authenticate(_ context.Context, _, _ string) (*domain.Account, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.account, nil
}

func (s *stubService) GetProfile(_ context.Context, _ string) (*domain.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.profile, nil
}

func (s *stubService) ChangePassword(_ context.Context, username, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.passwordChanged = username
	return nil
}

func (s *stubService) UpdateAccount(_ context.Context, _ string, email *string, _ *bool) error {
	if s.err != nil {
		return s.err
	}
	s.updatedEmail = email
	return nil
}

func (s *stubService) DeleteAccount(_ context.Context, username string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = username
	return nil
}

func (s *stubService) ListAccounts(_ context.Context, _, _ int) ([]*domain.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.profiles, nil
}

func (s *stubService) CountAccounts(_ context.Context) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.total, nil
}

type stubSessions struct {
	saved   map[string]string
	deleted []string
}

func newStubSessions() *stubSessions {
	return &stubSessions{saved: make(map[string]string)}
}

func (s *stubSessions) Save(_ context.Context, sessionID, username string, _ time.Duration) error {
	s.saved[sessionID] = username
	return nil
}

func (s *stubSessions) Exists(_ context.Context, sessionID string) (bool, error) {
	_, ok := s.saved[sessionID]
	return ok, nil
}

func (s *stubSessions) Delete(_ context.Context, sessionID string) error {
	delete(s.saved, sessionID)
	s.deleted = append(s.deleted, sessionID)
	return nil
}

func testAccount() *domain.Account {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &domain.Account{
		ID:        1,
		Username:  "alice",
		Email:     "alice@example.com",
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  true,
	}
}
