package hasher

import "golang.org/x/crypto/bcrypt"

// Bcrypt is an alternative Hasher backed by golang.org/x/crypto/bcrypt.
// Bcrypt embeds its own salt in the hash, so the salt column stays empty for
// accounts created under this scheme and Verify ignores it.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt hasher. A cost outside bcrypt's valid range
// falls back to the library default.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (h *Bcrypt) Hash(password string) (string, string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", "", err
	}
	return "", string(hashed), nil
}

func (h *Bcrypt) Verify(password, hash, _ string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
