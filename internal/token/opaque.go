package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/dtroode/passkeeper-server/internal/model"
)

var _ model.TokenGenerator = (*Opaque)(nil)

// Opaque generates random url-safe tokens for email verification links.
type Opaque struct {
	size int
}

// NewOpaque creates a generator producing tokens from size random bytes.
func NewOpaque(size int) *Opaque {
	return &Opaque{size: size}
}

func (o *Opaque) Generate() (string, error) {
	b := make([]byte, o.size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
