package secret

import "golang.org/x/crypto/bcrypt"

// Hasher is the one-way hash primitive used for both stored flags and
// user passwords. Verify must be constant-time-equivalent; plain string
// comparison would open a timing side channel on flag checks.
type Hasher interface {
	// Hash derives an opaque one-way hash of the secret.
	Hash(secret string) (string, error)

	// Verify reports whether the secret matches the stored hash.
	// Malformed or empty inputs are simply incorrect, never an error.
	Verify(secret, hash string) bool
}

// BcryptHasher implements Hasher with bcrypt. The salt lives inside the
// encoded hash, so two hashes of the same flag never compare equal.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the default bcrypt cost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

// NewBcryptHasherWithCost creates a hasher with a custom cost, clamped to
// the bcrypt-supported range.
func NewBcryptHasherWithCost(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash derives a bcrypt hash of the secret.
func (h *BcryptHasher) Hash(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether the secret matches the bcrypt hash.
func (h *BcryptHasher) Verify(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
