// Package token issues the opaque bearer credentials handed out by the HTTP
// layer. The core never sees tokens; it only authenticates usernames.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTTL = time.Hour

// Issuer signs HS256 bearer tokens carrying the username and a session id.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the lifetime applied to issued tokens.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for the username. The returned session id (the jti
// claim) identifies the token in the session store for revocation.
func (i *Issuer) Issue(username string) (token, sessionID string, err error) {
	sessionID = uuid.NewString()
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"username": username,
		"jti":      sessionID,
		"iat":      now.Unix(),
		"exp":      now.Add(i.ttl).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString(i.secret)
	return token, sessionID, err
}
