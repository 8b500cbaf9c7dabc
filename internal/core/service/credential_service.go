package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/credentio/credential-system/internal/core/domain"
	"github.com/credentio/credential-system/internal/core/hasher"
	"github.com/credentio/credential-system/internal/core/ports"
	"github.com/credentio/credential-system/internal/core/validate"
)

const (
	defaultMaxFailedLogins = 5
	defaultLockoutDuration = 15 * time.Minute
)

// CredentialService orchestrates registration, authentication, the lockout
// policy, and profile retrieval over an AccountStore.
type CredentialService struct {
	store           ports.AccountStore
	hasher          hasher.Hasher
	logger          zerolog.Logger
	maxFailedLogins int
	lockoutDuration time.Duration
	now             func() time.Time
}

// NewCredentialService builds a service. Non-positive lockout settings fall
// back to 5 attempts / 15 minutes.
func NewCredentialService(store ports.AccountStore, h hasher.Hasher, logger zerolog.Logger, maxFailedLogins int, lockoutDuration time.Duration) *CredentialService {
	if maxFailedLogins <= 0 {
		maxFailedLogins = defaultMaxFailedLogins
	}
	if lockoutDuration <= 0 {
		lockoutDuration = defaultLockoutDuration
	}
	return &CredentialService{
		store:           store,
		hasher:          h,
		logger:          logger,
		maxFailedLogins: maxFailedLogins,
		lockoutDuration: lockoutDuration,
		now:             time.Now,
	}
}

// Register validates inputs, hashes the password, and persists a new active
// account. Validation fails fast without touching the store.
func (s *CredentialService) Register(ctx context.Context, username, password, email string) (*domain.Account, error) {
	if !validate.Username(username) {
		return nil, domain.ErrInvalidUsername
	}
	if err := validate.Password(password); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrWeakPassword, err.Error())
	}
	if email != "" && !validate.Email(email) {
		return nil, domain.ErrInvalidEmail
	}

	exists, err := s.store.Exists(ctx, username)
	if err != nil {
		return nil, s.storageFailure(err, "existence check failed", username)
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	salt, hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.storageFailure(err, "password hashing failed", username)
	}

	now := s.now().UTC()
	account := &domain.Account{
		Username:            username,
		Email:               email,
		PasswordHash:        hash,
		Salt:                salt,
		CreatedAt:           now,
		UpdatedAt:           now,
		IsActive:            true,
		FailedLoginAttempts: 0,
	}

	created, err := s.store.Create(ctx, account)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		return nil, s.storageFailure(err, "account creation failed", username)
	}

	s.logger.Info().Str("username", username).Msg("account registered")
	return created.Redacted(), nil
}

// Authenticate verifies the password and maintains the failed-login counter
// and lockout state. While an account is locked the password is never
// checked, so a probe cannot distinguish a wrong password from a lock by
// timing.
func (s *CredentialService) Authenticate(ctx context.Context, username, password string) (*domain.Account, error) {
	// Only the input shape is checked here. Strength rules apply at
	// registration; a weak guess still reaches Verify so the failed-login
	// counter advances like any other wrong password.
	if !validate.Username(username) || password == "" {
		return nil, domain.ErrInvalidInput
	}

	account, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, s.storageFailure(err, "account lookup failed", username)
	}

	now := s.now().UTC()
	if account.Locked(now) {
		s.logger.Warn().Str("username", username).Time("locked_until", *account.LockedUntil).Msg("authentication refused, account locked")
		return nil, domain.ErrAccountLocked
	}

	if !s.hasher.Verify(password, account.PasswordHash, account.Salt) {
		attempts, err := s.store.IncrementFailedLogins(ctx, username)
		if err != nil {
			return nil, s.storageFailure(err, "failed-login increment failed", username)
		}
		if attempts >= s.maxFailedLogins {
			until := now.Add(s.lockoutDuration)
			if err := s.store.Update(ctx, username, domain.AccountUpdate{LockedUntil: &until}); err != nil {
				return nil, s.storageFailure(err, "lockout update failed", username)
			}
			s.logger.Warn().Str("username", username).Int("attempts", attempts).Time("locked_until", until).Msg("account locked")
		}
		// The caller learns only that the credentials were invalid, never
		// that a lock was just applied.
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.store.ResetFailedLogins(ctx, username, now); err != nil {
		return nil, s.storageFailure(err, "login bookkeeping failed", username)
	}

	account.FailedLoginAttempts = 0
	account.LockedUntil = nil
	account.LastLogin = &now

	s.logger.Info().Str("username", username).Msg("authentication succeeded")
	return account.Redacted(), nil
}

// GetProfile returns the redacted view of an account.
func (s *CredentialService) GetProfile(ctx context.Context, username string) (*domain.Profile, error) {
	if !validate.Username(username) {
		return nil, domain.ErrInvalidUsername
	}
	account, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, s.storageFailure(err, "account lookup failed", username)
	}
	return domain.ProfileOf(account), nil
}

// ChangePassword re-hashes with a freshly generated salt and persists the new
// pair. Requiring a valid session first is the presentation layer's job.
func (s *CredentialService) ChangePassword(ctx context.Context, username, newPassword string) error {
	if !validate.Username(username) {
		return domain.ErrInvalidUsername
	}
	if err := validate.Password(newPassword); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrWeakPassword, err.Error())
	}

	salt, hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return s.storageFailure(err, "password hashing failed", username)
	}

	err = s.store.Update(ctx, username, domain.AccountUpdate{PasswordHash: &hash, Salt: &salt})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return s.storageFailure(err, "password update failed", username)
	}

	s.logger.Info().Str("username", username).Msg("password changed")
	return nil
}

// UpdateAccount applies a selective update to the email and active flag.
func (s *CredentialService) UpdateAccount(ctx context.Context, username string, email *string, isActive *bool) error {
	if !validate.Username(username) {
		return domain.ErrInvalidUsername
	}
	if email != nil && *email != "" && !validate.Email(*email) {
		return domain.ErrInvalidEmail
	}

	err := s.store.Update(ctx, username, domain.AccountUpdate{Email: email, IsActive: isActive})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return s.storageFailure(err, "account update failed", username)
	}
	return nil
}

// DeleteAccount removes the account. Deleting an absent account reports
// ErrUserNotFound rather than failing loudly.
func (s *CredentialService) DeleteAccount(ctx context.Context, username string) error {
	if !validate.Username(username) {
		return domain.ErrInvalidUsername
	}
	err := s.store.Delete(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return s.storageFailure(err, "account deletion failed", username)
	}
	s.logger.Info().Str("username", username).Msg("account deleted")
	return nil
}

// ListAccounts returns redacted views, newest first.
func (s *CredentialService) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Profile, error) {
	profiles, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, s.storageFailure(err, "account listing failed", "")
	}
	return profiles, nil
}

// CountAccounts returns the total number of accounts.
func (s *CredentialService) CountAccounts(ctx context.Context) (int64, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, s.storageFailure(err, "account count failed", "")
	}
	return n, nil
}

// storageFailure logs the underlying fault with detail and returns the
// generic storage error so driver internals never reach callers.
func (s *CredentialService) storageFailure(err error, msg, username string) error {
	ev := s.logger.Error().Err(err)
	if username != "" {
		ev = ev.Str("username", username)
	}
	ev.Msg(msg)
	return domain.ErrStorage
}

var _ ports.CredentialService = (*CredentialService)(nil)
