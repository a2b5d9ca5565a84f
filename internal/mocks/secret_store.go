package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/passkeeper-server/internal/model"
)

// SecretStore is a mock type for the model.SecretStore type.
type SecretStore struct {
	mock.Mock
}

func NewSecretStore(t testingT) *SecretStore {
	m := &SecretStore{}
	register(&m.Mock, t)
	return m
}

func (m *SecretStore) Create(ctx context.Context, secret model.Secret) (model.Secret, error) {
	args := m.Called(ctx, secret)
	if fn, ok := args.Get(0).(func(context.Context, model.Secret) model.Secret); ok {
		return fn(ctx, secret), args.Error(1)
	}
	return args.Get(0).(model.Secret), args.Error(1)
}

func (m *SecretStore) AppendVersion(ctx context.Context, secret model.Secret) (model.Secret, error) {
	args := m.Called(ctx, secret)
	if fn, ok := args.Get(0).(func(context.Context, model.Secret) model.Secret); ok {
		return fn(ctx, secret), args.Error(1)
	}
	return args.Get(0).(model.Secret), args.Error(1)
}

func (m *SecretStore) GetCurrentVersion(ctx context.Context, ownerID, secretID uuid.UUID) (int, error) {
	args := m.Called(ctx, ownerID, secretID)
	return args.Int(0), args.Error(1)
}

func (m *SecretStore) GetAllCurrentByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Secret, error) {
	args := m.Called(ctx, ownerID)
	secrets, _ := args.Get(0).([]model.Secret)
	return secrets, args.Error(1)
}

func (m *SecretStore) GetVersion(ctx context.Context, ownerID, secretID uuid.UUID, version int) (model.Secret, error) {
	args := m.Called(ctx, ownerID, secretID, version)
	return args.Get(0).(model.Secret), args.Error(1)
}

func (m *SecretStore) GetHistory(ctx context.Context, ownerID, secretID uuid.UUID) ([]model.Secret, error) {
	args := m.Called(ctx, ownerID, secretID)
	secrets, _ := args.Get(0).([]model.Secret)
	return secrets, args.Error(1)
}

func (m *SecretStore) GetOwner(ctx context.Context, secretID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, secretID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}
