package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/passkeeper-server/internal/logger"
	"github.com/dtroode/passkeeper-server/internal/metrics"
	"github.com/dtroode/passkeeper-server/internal/model"
)

// Registration outcomes reported to metrics.
const (
	outcomeCreated   = "created"
	outcomeReclaimed = "reclaimed"
	outcomeRejected  = "rejected"
)

// Account manages user identity, credentials and email verification.
type Account struct {
	userStore           model.UserStore
	hasher              model.Hasher
	notifier            model.Notifier
	tokens              model.TokenGenerator
	tokenService        *TokenService
	metrics             *metrics.Metrics
	logger              *logger.Logger
	registrationTimeout time.Duration
	now                 func() time.Time
}

func NewAccount(
	userStore model.UserStore,
	hasher model.Hasher,
	notifier model.Notifier,
	tokens model.TokenGenerator,
	tokenService *TokenService,
	metrics *metrics.Metrics,
	logger *logger.Logger,
	registrationTimeout time.Duration,
) *Account {
	return &Account{
		userStore:           userStore,
		hasher:              hasher,
		notifier:            notifier,
		tokens:              tokens,
		tokenService:        tokenService,
		metrics:             metrics,
		logger:              logger,
		registrationTimeout: registrationTimeout,
		now:                 time.Now,
	}
}

// CreateUser registers an account, or takes over an abandoned unverified one
// with the same email, and sends the verification link.
func (a *Account) CreateUser(ctx context.Context, params model.CreateUserParams) (model.User, error) {
	name := strings.TrimSpace(params.Name)
	email, err := normalizeEmail(params.Email)
	if err != nil {
		return model.User{}, err
	}
	if name == "" {
		return model.User{}, fmt.Errorf("%w: name is required", model.ErrValidation)
	}
	if params.Password == "" {
		return model.User{}, fmt.Errorf("%w: password is required", model.ErrValidation)
	}

	a.logger.Debug("Account service: starting user registration", "email", email)

	now := a.now().UTC()

	existing, err := a.userStore.GetByEmail(ctx, email)
	found := err == nil
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Account service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if found && !existing.RegistrationExpired(now, a.registrationTimeout) {
		a.logger.Info("Account service: email already claimed", "email", email)
		a.metrics.Registered(outcomeRejected)
		return model.User{}, model.ErrAlreadyExists
	}

	hash, err := a.hasher.Hash(params.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	token, err := a.tokens.Generate()
	if err != nil {
		return model.User{}, fmt.Errorf("failed to generate verification token: %w", err)
	}

	var saved model.User
	outcome := outcomeCreated
	if found {
		outcome = outcomeReclaimed
		// a fresh id cuts off tokens and secrets of the abandoned registrant
		candidate := existing
		candidate.ID = uuid.New()
		candidate.Name = name
		candidate.PasswordHash = hash
		candidate.EmailToken = &token
		candidate.PendingEmail = nil
		candidate.CreationDate = now

		saved, err = a.userStore.Reclaim(ctx, candidate, existing.CreationDate)
	} else {
		saved, err = a.userStore.Create(ctx, model.User{
			ID:            uuid.New(),
			Name:          name,
			Email:         email,
			PasswordHash:  hash,
			EmailVerified: false,
			EmailToken:    &token,
			CreationDate:  now,
		})
	}
	if err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			a.logger.Info("Account service: lost registration race", "email", email)
			a.metrics.Registered(outcomeRejected)
			return model.User{}, model.ErrAlreadyExists
		}
		a.logger.Error("Account service: failed to save user",
			"email", email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to save user: %w", err)
	}

	a.metrics.Registered(outcome)
	a.logger.Info("Account service: user registered",
		"user_id", saved.ID,
		"outcome", outcome)

	err = a.notifier.SendVerificationEmail(context.WithoutCancel(ctx), saved, token)
	a.emailDispatched("verification", saved.ID, err)

	return saved, nil
}

// VerifyEmail redeems the registration token. An elapsed registration window
// wins over a token mismatch.
func (a *Account) VerifyEmail(ctx context.Context, userID uuid.UUID, token string) error {
	user, err := a.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if user.RegistrationExpired(a.now().UTC(), a.registrationTimeout) {
		a.logger.Info("Account service: verification token expired", "user_id", userID)
		return model.ErrTokenExpired
	}

	if user.EmailVerified || user.PendingEmail != nil || !tokenMatches(user.EmailToken, token) {
		return model.ErrInvalidToken
	}

	if err := a.userStore.MarkEmailVerified(ctx, userID, token); err != nil {
		if errors.Is(err, model.ErrInvalidToken) {
			return err
		}
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	a.logger.Info("Account service: email verified", "user_id", userID)
	return nil
}

// RequestEmailChange stages newEmail behind a fresh token and sends the confirmation link.
func (a *Account) RequestEmailChange(ctx context.Context, userID uuid.UUID, newEmail string) error {
	newEmail, err := normalizeEmail(newEmail)
	if err != nil {
		return err
	}

	user, err := a.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if newEmail == user.Email {
		return fmt.Errorf("%w: new email matches the current one", model.ErrValidation)
	}

	if _, err := a.userStore.GetByEmail(ctx, newEmail); err == nil {
		return model.ErrAlreadyExists
	} else if !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	token, err := a.freshToken(user.EmailToken)
	if err != nil {
		return err
	}

	if err := a.userStore.StageEmailChange(ctx, userID, newEmail, token); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrUserNotFound
		}
		return fmt.Errorf("failed to stage email change: %w", err)
	}

	a.logger.Info("Account service: email change requested", "user_id", userID)

	err = a.notifier.SendEmailChangeEmail(context.WithoutCancel(ctx), user, token, newEmail)
	a.emailDispatched("email_change", userID, err)

	return nil
}

// ConfirmEmailChange redeems an email change token. These tokens do not expire.
func (a *Account) ConfirmEmailChange(ctx context.Context, userID uuid.UUID, token, newEmail string) error {
	newEmail, err := normalizeEmail(newEmail)
	if err != nil {
		return err
	}

	user, err := a.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if user.PendingEmail == nil || *user.PendingEmail != newEmail || !tokenMatches(user.EmailToken, token) {
		return model.ErrInvalidToken
	}

	if err := a.userStore.CommitEmailChange(ctx, userID, token, newEmail); err != nil {
		if errors.Is(err, model.ErrInvalidToken) || errors.Is(err, model.ErrAlreadyExists) {
			return err
		}
		return fmt.Errorf("failed to commit email change: %w", err)
	}

	a.logger.Info("Account service: email changed", "user_id", userID)
	return nil
}

func (a *Account) ChangePassword(ctx context.Context, params model.ChangePasswordParams) error {
	if params.NewPassword == "" {
		return fmt.Errorf("%w: new password is required", model.ErrValidation)
	}

	user, err := a.getUser(ctx, params.UserID)
	if err != nil {
		return err
	}

	if err := a.hasher.Compare(user.PasswordHash, params.CurrentPassword); err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			return err
		}
		return fmt.Errorf("failed to compare password: %w", err)
	}

	hash, err := a.hasher.Hash(params.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := a.userStore.UpdatePasswordHash(ctx, params.UserID, hash); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrUserNotFound
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	a.logger.Info("Account service: password changed", "user_id", params.UserID)
	return nil
}

// Login checks credentials and issues an access token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (a *Account) Login(ctx context.Context, email, password string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", model.ErrInvalidCredentials
	}

	user, err := a.userStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return "", model.ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := a.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			a.logger.Info("Account service: login rejected", "user_id", user.ID)
			return "", err
		}
		return "", fmt.Errorf("failed to compare password: %w", err)
	}

	token, err := a.tokenService.Issue(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	return token, nil
}

func (a *Account) GetCurrentUser(ctx context.Context, userID uuid.UUID) (model.UserProfile, error) {
	user, err := a.getUser(ctx, userID)
	if err != nil {
		return model.UserProfile{}, err
	}

	return model.UserProfile{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		PendingEmail:  user.PendingEmail,
		CreationDate:  user.CreationDate,
	}, nil
}

// ListUsers returns verified accounts only.
func (a *Account) ListUsers(ctx context.Context) ([]model.SimpleUser, error) {
	users, err := a.userStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	result := make([]model.SimpleUser, 0, len(users))
	for _, u := range users {
		result = append(result, model.SimpleUser{ID: u.ID, Name: u.Name, Email: u.Email})
	}

	return result, nil
}

func (a *Account) getUser(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := a.userStore.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// freshToken generates a token different from previous.
func (a *Account) freshToken(previous *string) (string, error) {
	for {
		token, err := a.tokens.Generate()
		if err != nil {
			return "", fmt.Errorf("failed to generate token: %w", err)
		}
		if previous == nil || token != *previous {
			return token, nil
		}
	}
}

func (a *Account) emailDispatched(kind string, userID uuid.UUID, err error) {
	a.metrics.EmailDispatched(kind, err)
	if err != nil {
		a.logger.Error("Account service: failed to send email",
			"kind", kind,
			"user_id", userID,
			"error", err.Error())
	}
}

func tokenMatches(stored *string, presented string) bool {
	if stored == nil || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(presented)) == 1
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", model.ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: malformed email", model.ErrValidation)
	}
	return email, nil
}
