package domain

import (
	"errors"
	"time"
)

var ErrInvalidUsername = errors.New("invalid username")
var ErrWeakPassword = errors.New("weak password")
var ErrInvalidEmail = errors.New("invalid email")
var ErrInvalidInput = errors.New("invalid input")
var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrAccountLocked = errors.New("account is temporarily locked")
var ErrStorage = errors.New("storage error")

// Account is the persisted user identity with credentials and status flags.
type Account struct {
	ID                  int64      `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email,omitempty"`
	PasswordHash        string     `json:"-"`
	Salt                string     `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
	IsActive            bool       `json:"is_active"`
	FailedLoginAttempts int        `json:"-"`
	LockedUntil         *time.Time `json:"-"`
}

// Locked reports whether the account is under an active lockout at the given
// instant. An expired lockout timestamp is treated as absent.
func (a *Account) Locked(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// Redacted returns a copy of the account with credential material stripped.
func (a *Account) Redacted() *Account {
	clone := *a
	clone.PasswordHash = ""
	clone.Salt = ""
	return &clone
}

// Profile is the external view of an account. It never carries the hash,
// salt, or lockout internals.
type Profile struct {
	Username  string     `json:"username"`
	Email     string     `json:"email,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	IsActive  bool       `json:"is_active"`
}

// ProfileOf builds the redacted view of an account.
func ProfileOf(a *Account) *Profile {
	return &Profile{
		Username:  a.Username,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
		LastLogin: a.LastLogin,
		IsActive:  a.IsActive,
	}
}

// AccountUpdate is a partial update with named optional fields. Nil fields
// are left untouched by the store. PasswordHash and Salt are always set as a
// pair.
type AccountUpdate struct {
	Email        *string
	IsActive     *bool
	PasswordHash *string
	Salt         *string
	LockedUntil  *time.Time
}

// IsZero reports whether the update carries no fields at all.
func (u AccountUpdate) IsZero() bool {
	return u.Email == nil && u.IsActive == nil && u.PasswordHash == nil &&
		u.Salt == nil && u.LockedUntil == nil
}
