package ports

import (
	"context"

	"github.com/credentio/credential-system/internal/core/domain"
)

// CredentialService is the boundary contract of the credential core,
// consumed by any presentation layer. Expected conditions (validation
// failures, not-found, lockout, wrong credentials) surface as domain
// sentinel errors, never as panics; unexpected storage faults come back as
// domain.ErrStorage.
type CredentialService interface {
	Register(ctx context.Context, username, password, email string) (*domain.Account, error)
	Authenticate(ctx context.Context, username, password string) (*domain.Account, error)
	GetProfile(ctx context.Context, username string) (*domain.Profile, error)
	ChangePassword(ctx context.Context, username, newPassword string) error
	UpdateAccount(ctx context.Context, username string, email *string, isActive *bool) error
	DeleteAccount(ctx context.Context, username string) error
	ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Profile, error)
	CountAccounts(ctx context.Context) (int64, error)
}
