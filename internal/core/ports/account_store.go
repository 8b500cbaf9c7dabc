package ports

import (
	"context"
	"time"

	"github.com/credentio/credential-system/internal/core/domain"
)

// AccountStore is the persistence contract for account records. Every
// operation is atomic with respect to a single record; implementations must
// serialize per-record mutation so concurrent updates to the same account
// never lose writes, while calls for different usernames proceed without
// contention.
type AccountStore interface {
	// Create persists a new account. Returns domain.ErrUserExists when the
	// username or a supplied email is already taken.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)

	// GetByUsername returns the full record, including credential material.
	// Returns domain.ErrUserNotFound when absent.
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)

	// GetByID returns the full record by numeric id.
	GetByID(ctx context.Context, id int64) (*domain.Account, error)

	// Exists reports whether a username is taken.
	Exists(ctx context.Context, username string) (bool, error)

	// Update applies the set fields of upd and bumps updated_at. Unset
	// fields are ignored; an empty update is a successful no-op. Returns
	// domain.ErrUserNotFound for an unknown username.
	Update(ctx context.Context, username string, upd domain.AccountUpdate) error

	// Delete removes the record. Returns domain.ErrUserNotFound when absent.
	Delete(ctx context.Context, username string) error

	// List returns redacted views ordered by creation time, newest first.
	// limit <= 0 means no limit.
	List(ctx context.Context, limit, offset int) ([]*domain.Profile, error)

	// Count returns the total number of accounts.
	Count(ctx context.Context) (int64, error)

	// IncrementFailedLogins atomically adds one to the failed-login counter
	// and returns the new value.
	IncrementFailedLogins(ctx context.Context, username string) (int, error)

	// ResetFailedLogins atomically zeroes the failed-login counter, clears
	// any lockout, and records the login time.
	ResetFailedLogins(ctx context.Context, username string, lastLogin time.Time) error
}
