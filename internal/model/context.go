package model

import (
	"context"

	"github.com/google/uuid"
)

// ContextManager carries the authenticated caller through a request. It is
// the identity resolver the services rely on: handlers read the caller id
// from it and never from request input.
type ContextManager interface {
	SetUserIDToContext(ctx context.Context, userID uuid.UUID) context.Context
	GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool)
}
