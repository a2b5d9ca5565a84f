package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/passkeeper-server/internal/model"
)

// AccountService is a mock type for the handler.AccountService type.
type AccountService struct {
	mock.Mock
}

func NewAccountService(t testingT) *AccountService {
	m := &AccountService{}
	register(&m.Mock, t)
	return m
}

func (m *AccountService) CreateUser(ctx context.Context, params model.CreateUserParams) (model.User, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *AccountService) VerifyEmail(ctx context.Context, userID uuid.UUID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *AccountService) RequestEmailChange(ctx context.Context, userID uuid.UUID, newEmail string) error {
	args := m.Called(ctx, userID, newEmail)
	return args.Error(0)
}

func (m *AccountService) ConfirmEmailChange(ctx context.Context, userID uuid.UUID, token, newEmail string) error {
	args := m.Called(ctx, userID, token, newEmail)
	return args.Error(0)
}

func (m *AccountService) ChangePassword(ctx context.Context, params model.ChangePasswordParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *AccountService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (model.UserProfile, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.UserProfile), args.Error(1)
}

func (m *AccountService) ListUsers(ctx context.Context) ([]model.SimpleUser, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]model.SimpleUser)
	return users, args.Error(1)
}

// SecretService is a mock type for the handler.SecretService type.
type SecretService struct {
	mock.Mock
}

func NewSecretService(t testingT) *SecretService {
	m := &SecretService{}
	register(&m.Mock, t)
	return m
}

func (m *SecretService) CreateSecret(ctx context.Context, params model.CreateSecretParams) (model.Secret, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(model.Secret), args.Error(1)
}

func (m *SecretService) UpdateSecret(ctx context.Context, params model.UpdateSecretParams) (model.Secret, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(model.Secret), args.Error(1)
}

func (m *SecretService) GetAllSecrets(ctx context.Context, ownerID uuid.UUID) ([]model.Secret, error) {
	args := m.Called(ctx, ownerID)
	secrets, _ := args.Get(0).([]model.Secret)
	return secrets, args.Error(1)
}

func (m *SecretService) GetSecret(ctx context.Context, ownerID, secretID uuid.UUID) (model.Secret, error) {
	args := m.Called(ctx, ownerID, secretID)
	return args.Get(0).(model.Secret), args.Error(1)
}

func (m *SecretService) GetSecretVersion(ctx context.Context, ownerID, secretID uuid.UUID, version int) (model.Secret, error) {
	args := m.Called(ctx, ownerID, secretID, version)
	return args.Get(0).(model.Secret), args.Error(1)
}

func (m *SecretService) GetSecretHistory(ctx context.Context, ownerID, secretID uuid.UUID) ([]model.Secret, error) {
	args := m.Called(ctx, ownerID, secretID)
	secrets, _ := args.Get(0).([]model.Secret)
	return secrets, args.Error(1)
}
