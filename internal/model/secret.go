package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SecretStore defines persistence operations for versioned secrets.
// Every read is scoped to the owner.
type SecretStore interface {
	// Create inserts the first version of a secret.
	Create(ctx context.Context, secret Secret) (Secret, error)
	// AppendVersion inserts secret as version MAX(version)+1 of its SecretID
	// in a single statement. It returns ErrNotFound when the owner has no
	// such secret and ErrVersionConflict when a concurrent append won.
	AppendVersion(ctx context.Context, secret Secret) (Secret, error)
	GetCurrentVersion(ctx context.Context, ownerID, secretID uuid.UUID) (int, error)
	GetAllCurrentByOwner(ctx context.Context, ownerID uuid.UUID) ([]Secret, error)
	GetVersion(ctx context.Context, ownerID, secretID uuid.UUID, version int) (Secret, error)
	GetHistory(ctx context.Context, ownerID, secretID uuid.UUID) ([]Secret, error)
	// GetOwner is used only to tell a foreign secret from a missing one.
	GetOwner(ctx context.Context, secretID uuid.UUID) (uuid.UUID, error)
}

// Secret is one stored version of an encrypted secret.
type Secret struct {
	// ID identifies the storage row; SecretID is shared by all versions.
	ID           uuid.UUID
	SecretID     uuid.UUID
	Version      int
	Data         []byte
	PayloadKey   *string
	Type         SecretType
	CreationDate time.Time
	OwnerID      uuid.UUID
}

// SecretType enumerates secret kinds.
type SecretType string

const (
	// SecretTypeLogin is a login/password secret.
	SecretTypeLogin SecretType = "login"
	// SecretTypeNote is a free text note.
	SecretTypeNote SecretType = "note"
	// SecretTypeCard is a payment card.
	SecretTypeCard SecretType = "card"
)

// Valid reports whether t is a known secret type.
func (t SecretType) Valid() bool {
	switch t {
	case SecretTypeLogin, SecretTypeNote, SecretTypeCard:
		return true
	}
	return false
}

// CreateSecretParams contains parameters to create a secret.
type CreateSecretParams struct {
	OwnerID uuid.UUID
	Data    []byte
	Type    SecretType
}

// UpdateSecretParams contains parameters to append a new secret version.
type UpdateSecretParams struct {
	OwnerID  uuid.UUID
	SecretID uuid.UUID
	Data     []byte
	Type     SecretType
}
