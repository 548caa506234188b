package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/eventphotos/internal/common"
)

// PasswordHasher hashes and compares passwords with bcrypt.
type PasswordHasher struct {
	cost int
	// dummy is compared against when the account does not exist, so a
	// missing account costs the same as a wrong password.
	dummy []byte
}

// NewPasswordHasher returns a hasher with the given bcrypt cost.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	dummy, err := bcrypt.GenerateFromPassword(common.GenerateRandByteArray(32), cost)
	if err != nil {
		return nil, err
	}
	return &PasswordHasher{cost: cost, dummy: dummy}, nil
}

// Hash returns the bcrypt hash of plaintext.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare reports whether plaintext matches hash. Errors other than a
// mismatch (e.g. a corrupt hash) are returned.
func (h *PasswordHasher) Compare(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// CompareDummy burns one comparison against a throwaway hash.
func (h *PasswordHasher) CompareDummy(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
}
