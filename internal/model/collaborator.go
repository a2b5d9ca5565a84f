package model

import "context"

// Hasher is the salted credential hashing primitive.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Compare(hash, plaintext string) error
}

// Notifier dispatches account emails. Callers treat delivery as best effort.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, user User, token string) error
	SendEmailChangeEmail(ctx context.Context, user User, token, newEmail string) error
}

// TokenGenerator produces opaque email tokens.
type TokenGenerator interface {
	Generate() (string, error)
}
