package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dtroode/passkeeper-server/internal/logger"
	"github.com/dtroode/passkeeper-server/internal/metrics"
	"github.com/dtroode/passkeeper-server/internal/model"
)

const defaultAppendBackoff = 5 * time.Millisecond

// SecretConfig tunes the secret version store.
type SecretConfig struct {
	RequireVerifiedEmail bool
	MaxAppendAttempts    int
	// InlineLimit is the largest payload kept in the row when a PayloadStore is set.
	InlineLimit int
}

// Secret stores append-only versions of encrypted secrets.
type Secret struct {
	secretStore   model.SecretStore
	userStore     model.UserStore
	payloads      model.PayloadStore
	metrics       *metrics.Metrics
	logger        *logger.Logger
	cfg           SecretConfig
	appendBackoff time.Duration
	now           func() time.Time
}

// NewSecret creates the service. payloads may be nil, in which case every
// payload stays inline.
func NewSecret(
	secretStore model.SecretStore,
	userStore model.UserStore,
	payloads model.PayloadStore,
	metrics *metrics.Metrics,
	logger *logger.Logger,
	cfg SecretConfig,
) *Secret {
	if cfg.MaxAppendAttempts < 1 {
		cfg.MaxAppendAttempts = 1
	}
	return &Secret{
		secretStore:   secretStore,
		userStore:     userStore,
		payloads:      payloads,
		metrics:       metrics,
		logger:        logger,
		cfg:           cfg,
		appendBackoff: defaultAppendBackoff,
		now:           time.Now,
	}
}

// CreateSecret stores version 0 of a new secret.
func (s *Secret) CreateSecret(ctx context.Context, params model.CreateSecretParams) (model.Secret, error) {
	if err := validatePayload(params.Data, params.Type); err != nil {
		return model.Secret{}, err
	}

	if err := s.checkOwner(ctx, params.OwnerID, true); err != nil {
		return model.Secret{}, err
	}

	secret := model.Secret{
		ID:           uuid.New(),
		SecretID:     uuid.New(),
		Version:      0,
		Type:         params.Type,
		CreationDate: s.now().UTC(),
		OwnerID:      params.OwnerID,
	}

	if err := s.placePayload(ctx, &secret, params.Data); err != nil {
		return model.Secret{}, err
	}

	saved, err := s.secretStore.Create(ctx, secret)
	if err != nil {
		s.dropPayload(ctx, secret)
		s.logger.Error("Secret service: failed to create secret",
			"owner_id", params.OwnerID,
			"error", err.Error())
		return model.Secret{}, fmt.Errorf("failed to create secret: %w", err)
	}
	saved.Data = params.Data

	s.logger.Info("Secret service: secret created",
		"owner_id", saved.OwnerID,
		"secret_id", saved.SecretID)

	return saved, nil
}

// UpdateSecret appends the next version of a secret owned by the caller.
// Concurrent appends that lose the version race are retried.
func (s *Secret) UpdateSecret(ctx context.Context, params model.UpdateSecretParams) (model.Secret, error) {
	if err := validatePayload(params.Data, params.Type); err != nil {
		return model.Secret{}, err
	}

	if s.cfg.RequireVerifiedEmail {
		if err := s.checkOwner(ctx, params.OwnerID, false); err != nil {
			return model.Secret{}, err
		}
	}

	secret := model.Secret{
		ID:       uuid.New(),
		SecretID: params.SecretID,
		Type:     params.Type,
		OwnerID:  params.OwnerID,
	}

	if err := s.placePayload(ctx, &secret, params.Data); err != nil {
		return model.Secret{}, err
	}

	backoff := retry.WithMaxRetries(uint64(s.cfg.MaxAppendAttempts-1), retry.NewConstant(s.appendBackoff))

	var saved model.Secret
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			s.metrics.AppendRetried()
		}

		secret.CreationDate = s.now().UTC()
		var err error
		saved, err = s.secretStore.AppendVersion(ctx, secret)
		if errors.Is(err, model.ErrVersionConflict) {
			s.logger.Debug("Secret service: version conflict, retrying",
				"secret_id", params.SecretID,
				"attempt", attempt)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		s.dropPayload(ctx, secret)
		return model.Secret{}, s.classifyAppendError(ctx, params, err)
	}
	saved.Data = params.Data

	s.logger.Info("Secret service: secret updated",
		"owner_id", saved.OwnerID,
		"secret_id", saved.SecretID,
		"version", saved.Version)

	return saved, nil
}

// GetAllSecrets returns the current version of every secret the owner has.
func (s *Secret) GetAllSecrets(ctx context.Context, ownerID uuid.UUID) ([]model.Secret, error) {
	secrets, err := s.secretStore.GetAllCurrentByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get secrets: %w", err)
	}

	return s.hydrateAll(ctx, secrets)
}

// GetSecret returns the current version of one secret.
func (s *Secret) GetSecret(ctx context.Context, ownerID, secretID uuid.UUID) (model.Secret, error) {
	version, err := s.secretStore.GetCurrentVersion(ctx, ownerID, secretID)
	if err != nil {
		return model.Secret{}, s.classifyReadError(ctx, ownerID, secretID, err)
	}

	return s.GetSecretVersion(ctx, ownerID, secretID, version)
}

func (s *Secret) GetSecretVersion(ctx context.Context, ownerID, secretID uuid.UUID, version int) (model.Secret, error) {
	if version < 0 {
		return model.Secret{}, fmt.Errorf("%w: version must not be negative", model.ErrValidation)
	}

	secret, err := s.secretStore.GetVersion(ctx, ownerID, secretID, version)
	if err != nil {
		return model.Secret{}, s.classifyReadError(ctx, ownerID, secretID, err)
	}

	if err := s.hydrate(ctx, &secret); err != nil {
		return model.Secret{}, err
	}

	return secret, nil
}

// GetSecretHistory returns all versions in ascending order.
func (s *Secret) GetSecretHistory(ctx context.Context, ownerID, secretID uuid.UUID) ([]model.Secret, error) {
	secrets, err := s.secretStore.GetHistory(ctx, ownerID, secretID)
	if err != nil {
		return nil, s.classifyReadError(ctx, ownerID, secretID, err)
	}

	return s.hydrateAll(ctx, secrets)
}

// checkOwner makes sure the owner exists and, when configured, has a verified email.
func (s *Secret) checkOwner(ctx context.Context, ownerID uuid.UUID, mustExist bool) error {
	if !mustExist && !s.cfg.RequireVerifiedEmail {
		return nil
	}

	user, err := s.userStore.GetByID(ctx, ownerID)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get user by id: %w", err)
	}

	if s.cfg.RequireVerifiedEmail && !user.EmailVerified {
		return model.ErrEmailNotVerified
	}

	return nil
}

func (s *Secret) classifyAppendError(ctx context.Context, params model.UpdateSecretParams, err error) error {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return s.classifyReadError(ctx, params.OwnerID, params.SecretID, err)
	case errors.Is(err, model.ErrVersionConflict):
		s.logger.Warn("Secret service: giving up after version conflicts",
			"secret_id", params.SecretID,
			"attempts", s.cfg.MaxAppendAttempts)
		return model.ErrVersionConflict
	default:
		s.logger.Error("Secret service: failed to append version",
			"secret_id", params.SecretID,
			"error", err.Error())
		return fmt.Errorf("failed to append secret version: %w", err)
	}
}

// classifyReadError tells a foreign secret from a missing one after an
// owner-scoped lookup came back empty.
func (s *Secret) classifyReadError(ctx context.Context, ownerID, secretID uuid.UUID, err error) error {
	if !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to get secret: %w", err)
	}

	actualOwner, err := s.secretStore.GetOwner(ctx, secretID)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrSecretNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get secret owner: %w", err)
	}

	if actualOwner != ownerID {
		s.logger.Info("Secret service: access to foreign secret rejected",
			"owner_id", ownerID,
			"secret_id", secretID)
		return model.ErrNotOwner
	}

	return model.ErrSecretNotFound
}

// placePayload sets secret.Data, or uploads it when it exceeds the inline limit.
func (s *Secret) placePayload(ctx context.Context, secret *model.Secret, data []byte) error {
	if s.payloads == nil || len(data) <= s.cfg.InlineLimit {
		secret.Data = data
		return nil
	}

	key := payloadKey(secret.SecretID, secret.ID)
	if err := s.payloads.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to store payload: %w", err)
	}

	secret.Data = []byte{}
	secret.PayloadKey = &key
	return nil
}

func (s *Secret) dropPayload(ctx context.Context, secret model.Secret) {
	if secret.PayloadKey == nil || s.payloads == nil {
		return
	}
	if err := s.payloads.Delete(context.WithoutCancel(ctx), *secret.PayloadKey); err != nil {
		s.logger.Warn("Secret service: failed to delete orphaned payload",
			"key", *secret.PayloadKey,
			"error", err.Error())
	}
}

func (s *Secret) hydrate(ctx context.Context, secret *model.Secret) error {
	if secret.PayloadKey == nil {
		return nil
	}
	if s.payloads == nil {
		return fmt.Errorf("secret %s version %d is stored off-row but payload storage is disabled", secret.SecretID, secret.Version)
	}

	data, err := s.payloads.Get(ctx, *secret.PayloadKey)
	if err != nil {
		return fmt.Errorf("failed to load payload: %w", err)
	}
	secret.Data = data
	return nil
}

func (s *Secret) hydrateAll(ctx context.Context, secrets []model.Secret) ([]model.Secret, error) {
	for i := range secrets {
		if err := s.hydrate(ctx, &secrets[i]); err != nil {
			return nil, err
		}
	}
	return secrets, nil
}

func payloadKey(secretID, rowID uuid.UUID) string {
	return fmt.Sprintf("secrets/%s/%s", secretID, rowID)
}

func validatePayload(data []byte, secretType model.SecretType) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: data is required", model.ErrValidation)
	}
	if !secretType.Valid() {
		return fmt.Errorf("%w: unknown secret type %q", model.ErrValidation, secretType)
	}
	return nil
}
