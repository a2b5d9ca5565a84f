package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/passkeeper-server/internal/model"
)

// UserStore is a mock type for the model.UserStore type.
type UserStore struct {
	mock.Mock
}

// NewUserStore creates a UserStore that asserts its expectations on cleanup.
func NewUserStore(t testingT) *UserStore {
	m := &UserStore{}
	register(&m.Mock, t)
	return m
}

func (m *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

func (m *UserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	if fn, ok := args.Get(0).(func(context.Context, model.User) model.User); ok {
		return fn(ctx, user), args.Error(1)
	}
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) Reclaim(ctx context.Context, user model.User, observedCreatedAt time.Time) (model.User, error) {
	args := m.Called(ctx, user, observedCreatedAt)
	if fn, ok := args.Get(0).(func(context.Context, model.User, time.Time) model.User); ok {
		return fn(ctx, user, observedCreatedAt), args.Error(1)
	}
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) MarkEmailVerified(ctx context.Context, id uuid.UUID, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

func (m *UserStore) StageEmailChange(ctx context.Context, id uuid.UUID, newEmail, token string) error {
	args := m.Called(ctx, id, newEmail, token)
	return args.Error(0)
}

func (m *UserStore) CommitEmailChange(ctx context.Context, id uuid.UUID, token, newEmail string) error {
	args := m.Called(ctx, id, token, newEmail)
	return args.Error(0)
}

func (m *UserStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}
