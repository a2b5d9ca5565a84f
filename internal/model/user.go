package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, user User) (User, error)
	// Reclaim overwrites the abandoned registration holding user.Email under the
	// new user.ID and drops its secrets. It succeeds only while the row is still
	// unverified and its creation date equals observedCreatedAt.
	Reclaim(ctx context.Context, user User, observedCreatedAt time.Time) (User, error)
	// MarkEmailVerified consumes token and flags the email as verified.
	MarkEmailVerified(ctx context.Context, id uuid.UUID, token string) error
	StageEmailChange(ctx context.Context, id uuid.UUID, newEmail, token string) error
	// CommitEmailChange consumes token and swaps email for the staged address.
	CommitEmailChange(ctx context.Context, id uuid.UUID, token, newEmail string) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// User represents a stored account with its credential hash and email state.
type User struct {
	ID            uuid.UUID
	Name          string
	Email         string
	PasswordHash  string
	EmailVerified bool
	EmailToken    *string
	PendingEmail  *string
	CreationDate  time.Time
	UpdatedAt     time.Time
}

// RegistrationExpired reports whether an unverified account is past the
// registration grace window at now.
func (u User) RegistrationExpired(now time.Time, timeout time.Duration) bool {
	return !u.EmailVerified && now.Sub(u.CreationDate) > timeout
}

// CreateUserParams contains parameters to register a user.
type CreateUserParams struct {
	Name     string
	Email    string
	Password string
}

// ChangePasswordParams contains parameters to rotate the credential hash.
type ChangePasswordParams struct {
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// UserProfile is the caller-facing view of an account.
type UserProfile struct {
	ID            uuid.UUID
	Name          string
	Email         string
	EmailVerified bool
	PendingEmail  *string
	CreationDate  time.Time
}

// SimpleUser is the listing view of an account.
type SimpleUser struct {
	ID    uuid.UUID
	Name  string
	Email string
}
