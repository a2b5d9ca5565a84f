package hasher

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/passkeeper-server/internal/model"
)

var _ model.Hasher = (*Bcrypt)(nil)

// Bcrypt hashes passwords with a per-hash random salt.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a hasher. A cost outside bcrypt's range falls back to the default.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Compare returns model.ErrInvalidCredentials when plaintext does not match hash.
func (b *Bcrypt) Compare(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrHashTooShort) {
		return model.ErrInvalidCredentials
	}
	return fmt.Errorf("failed to compare password: %w", err)
}
