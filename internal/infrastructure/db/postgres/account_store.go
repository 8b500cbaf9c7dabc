package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/credentio/credential-system/internal/core/domain"
	"github.com/credentio/credential-system/internal/core/ports"
)

const uniqueViolation = "23505"

// Store is the durable AccountStore backed by PostgreSQL. Every mutation is
// a single row-level statement, so concurrent operations on different
// accounts never contend and same-account updates are serialized by the
// engine.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the accounts table and its indexes when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS accounts (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			salt TEXT NOT NULL,
			email TEXT UNIQUE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			last_login TIMESTAMPTZ,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			failed_login_attempts INT NOT NULL DEFAULT 0 CHECK (failed_login_attempts >= 0),
			account_locked_until TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_accounts_username ON accounts (username);
		CREATE INDEX IF NOT EXISTS idx_accounts_email ON accounts (email);`

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	const query = `
		INSERT INTO accounts (username, password_hash, salt, email, created_at, updated_at, is_active, failed_login_attempts)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)
		RETURNING id`

	created := *account
	err := s.pool.QueryRow(ctx, query,
		account.Username, account.PasswordHash, account.Salt, account.Email,
		account.CreatedAt, account.UpdatedAt, account.IsActive, account.FailedLoginAttempts,
	).Scan(&created.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return &created, nil
}

const selectColumns = `id, username, password_hash, salt, COALESCE(email, ''), created_at, updated_at, last_login, is_active, failed_login_attempts, account_locked_until`

func (s *Store) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	query := `SELECT ` + selectColumns + ` FROM accounts WHERE username = $1`
	return s.scanOne(s.pool.QueryRow(ctx, query, username))
}

func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + selectColumns + ` FROM accounts WHERE id = $1`
	return s.scanOne(s.pool.QueryRow(ctx, query, id))
}

func (s *Store) scanOne(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Salt, &a.Email,
		&a.CreatedAt, &a.UpdatedAt, &a.LastLogin, &a.IsActive,
		&a.FailedLoginAttempts, &a.LockedUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("select account: %w", err)
	}
	return &a, nil
}

func (s *Store) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists check: %w", err)
	}
	return exists, nil
}

func (s *Store) Update(ctx context.Context, username string, upd domain.AccountUpdate) error {
	if upd.IsZero() {
		// No fields to apply; still report unknown usernames.
		exists, err := s.Exists(ctx, username)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrUserNotFound
		}
		return nil
	}

	// COALESCE keeps unset fields untouched inside one atomic statement.
	const query = `
		UPDATE accounts SET
			email = CASE WHEN $2::boolean THEN NULLIF($3::text, '') ELSE email END,
			is_active = COALESCE($4::boolean, is_active),
			password_hash = COALESCE($5::text, password_hash),
			salt = COALESCE($6::text, salt),
			account_locked_until = COALESCE($7::timestamptz, account_locked_until),
			updated_at = $8
		WHERE username = $1`

	var email string
	setEmail := upd.Email != nil
	if setEmail {
		email = *upd.Email
	}

	tag, err := s.pool.Exec(ctx, query, username,
		setEmail, email, upd.IsActive, upd.PasswordHash, upd.Salt, upd.LockedUntil,
		time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrUserExists
		}
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, username string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM accounts WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]*domain.Profile, error) {
	// LIMIT NULL means no limit.
	const query = `
		SELECT username, COALESCE(email, ''), created_at, updated_at, last_login, is_active
		FROM accounts
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	var lim *int
	if limit > 0 {
		lim = &limit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.pool.Query(ctx, query, lim, offset)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	profiles := make([]*domain.Profile, 0)
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.Username, &p.Email, &p.CreatedAt, &p.UpdatedAt, &p.LastLogin, &p.IsActive); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		profiles = append(profiles, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return profiles, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

func (s *Store) IncrementFailedLogins(ctx context.Context, username string) (int, error) {
	const query = `
		UPDATE accounts
		SET failed_login_attempts = failed_login_attempts + 1
		WHERE username = $1
		RETURNING failed_login_attempts`

	var attempts int
	err := s.pool.QueryRow(ctx, query, username).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		return 0, fmt.Errorf("increment failed logins: %w", err)
	}
	return attempts, nil
}

func (s *Store) ResetFailedLogins(ctx context.Context, username string, lastLogin time.Time) error {
	const query = `
		UPDATE accounts
		SET failed_login_attempts = 0, account_locked_until = NULL, last_login = $2
		WHERE username = $1`

	tag, err := s.pool.Exec(ctx, query, username, lastLogin)
	if err != nil {
		return fmt.Errorf("reset failed logins: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

var _ ports.AccountStore = (*Store)(nil)
