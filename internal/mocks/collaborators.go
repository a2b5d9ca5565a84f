package mocks

import (
	"context"
	"net"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/passkeeper-server/internal/model"
)

// Hasher is a mock type for the model.Hasher type.
type Hasher struct {
	mock.Mock
}

func NewHasher(t testingT) *Hasher {
	m := &Hasher{}
	register(&m.Mock, t)
	return m
}

func (m *Hasher) Hash(plaintext string) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

func (m *Hasher) Compare(hash, plaintext string) error {
	args := m.Called(hash, plaintext)
	return args.Error(0)
}

// Notifier is a mock type for the model.Notifier type.
type Notifier struct {
	mock.Mock
}

func NewNotifier(t testingT) *Notifier {
	m := &Notifier{}
	register(&m.Mock, t)
	return m
}

func (m *Notifier) SendVerificationEmail(ctx context.Context, user model.User, token string) error {
	args := m.Called(ctx, user, token)
	return args.Error(0)
}

func (m *Notifier) SendEmailChangeEmail(ctx context.Context, user model.User, token, newEmail string) error {
	args := m.Called(ctx, user, token, newEmail)
	return args.Error(0)
}

// TokenGenerator is a mock type for the model.TokenGenerator type.
type TokenGenerator struct {
	mock.Mock
}

func NewTokenGenerator(t testingT) *TokenGenerator {
	m := &TokenGenerator{}
	register(&m.Mock, t)
	return m
}

func (m *TokenGenerator) Generate() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// TokenManager is a mock type for the model.TokenManager type.
type TokenManager struct {
	mock.Mock
}

func NewTokenManager(t testingT) *TokenManager {
	m := &TokenManager{}
	register(&m.Mock, t)
	return m
}

func (m *TokenManager) GenerateAccessToken(userID uuid.UUID) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *TokenManager) ParseAccessToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// PayloadStore is a mock type for the model.PayloadStore type.
type PayloadStore struct {
	mock.Mock
}

func NewPayloadStore(t testingT) *PayloadStore {
	m := &PayloadStore{}
	register(&m.Mock, t)
	return m
}

func (m *PayloadStore) Put(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func (m *PayloadStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *PayloadStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// ContextManager is a mock type for the model.ContextManager type.
type ContextManager struct {
	mock.Mock
}

func NewContextManager(t testingT) *ContextManager {
	m := &ContextManager{}
	register(&m.Mock, t)
	return m
}

func (m *ContextManager) SetUserIDToContext(ctx context.Context, userID uuid.UUID) context.Context {
	args := m.Called(ctx, userID)
	return args.Get(0).(context.Context)
}

func (m *ContextManager) GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	args := m.Called(ctx)
	return args.Get(0).(uuid.UUID), args.Bool(1)
}

// TokenService is a mock type for the middleware.TokenService type.
type TokenService struct {
	mock.Mock
}

func NewTokenService(t testingT) *TokenService {
	m := &TokenService{}
	register(&m.Mock, t)
	return m
}

func (m *TokenService) GetUserID(ctx context.Context, token string) (uuid.UUID, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// SecurityLayer is a mock type for the model.SecurityLayer type.
type SecurityLayer struct {
	mock.Mock
}

func NewSecurityLayer(t testingT) *SecurityLayer {
	m := &SecurityLayer{}
	register(&m.Mock, t)
	return m
}

func (m *SecurityLayer) Listen(network, addr string) (net.Listener, error) {
	args := m.Called(network, addr)
	ln, _ := args.Get(0).(net.Listener)
	return ln, args.Error(1)
}

// Pinger is a mock type for the handler.Pinger type.
type Pinger struct {
	mock.Mock
}

func NewPinger(t testingT) *Pinger {
	m := &Pinger{}
	register(&m.Mock, t)
	return m
}

func (m *Pinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
