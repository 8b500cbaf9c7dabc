// Package validate holds the pure syntactic rules for usernames, passwords,
// and email addresses. It has no dependencies beyond the standard library on
// purpose: every rule must be checkable before any store access.
package validate

import (
	"errors"
	"regexp"
	"unicode/utf8"
)

const (
	UsernameMinLength = 3
	UsernameMaxLength = 50
	PasswordMinLength = 8
	PasswordMaxLength = 128
)

var ErrPasswordRequired = errors.New("password is required")
var ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
var ErrPasswordTooLong = errors.New("password must be no more than 128 characters long")
var ErrPasswordNoUpper = errors.New("password must contain at least one uppercase letter")
var ErrPasswordNoLower = errors.New("password must contain at least one lowercase letter")
var ErrPasswordNoDigit = errors.New("password must contain at least one number")

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Username reports whether s is 3-50 characters of ASCII letters, digits,
// and underscores.
func Username(s string) bool {
	if len(s) < UsernameMinLength || len(s) > UsernameMaxLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return false
		}
	}
	return true
}

// Password returns nil when s satisfies the strength rules, or the error for
// the first violated rule. Rules are checked in a fixed order so that only
// one reason is ever reported: required, too short, too long, missing
// uppercase, missing lowercase, missing digit.
func Password(s string) error {
	if s == "" {
		return ErrPasswordRequired
	}
	// Length bounds count characters, not bytes; multibyte runes are legal
	// password content.
	if n := utf8.RuneCountInString(s); n < PasswordMinLength {
		return ErrPasswordTooShort
	} else if n > PasswordMaxLength {
		return ErrPasswordTooLong
	}
	var upper, lower, digit bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= '0' && c <= '9':
			digit = true
		}
	}
	if !upper {
		return ErrPasswordNoUpper
	}
	if !lower {
		return ErrPasswordNoLower
	}
	if !digit {
		return ErrPasswordNoDigit
	}
	return nil
}

// Email reports whether s matches a conventional local@domain.tld pattern.
// The check is only meant for supplied addresses; emptiness is the caller's
// concern.
func Email(s string) bool {
	return emailPattern.MatchString(s)
}
