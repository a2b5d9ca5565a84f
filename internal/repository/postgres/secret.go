package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/passkeeper-server/internal/model"
)

var _ model.SecretStore = (*SecretRepository)(nil)

const (
	secretColumns = `id, secret_id, version, data, payload_key, type, creation_date, user_id`

	versionConstraint = "secrets_secret_id_version_key"
)

type SecretRepository struct {
	db *Connection
}

func NewSecretRepository(db *Connection) *SecretRepository {
	return &SecretRepository{
		db: db,
	}
}

func scanSecret(row pgx.Row) (model.Secret, error) {
	var (
		secret     model.Secret
		secretType string
	)
	err := row.Scan(
		&secret.ID, &secret.SecretID, &secret.Version, &secret.Data, &secret.PayloadKey,
		&secretType, &secret.CreationDate, &secret.OwnerID,
	)
	secret.Type = model.SecretType(secretType)
	return secret, err
}

func collectSecrets(rows pgx.Rows) ([]model.Secret, error) {
	defer rows.Close()

	var secrets []model.Secret
	for rows.Next() {
		secret, err := scanSecret(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan secret: %w", err)
		}
		secrets = append(secrets, secret)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate secrets: %w", err)
	}

	return secrets, nil
}

func (r *SecretRepository) Create(ctx context.Context, secret model.Secret) (model.Secret, error) {
	query := `INSERT INTO secrets (` + secretColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING ` + secretColumns

	saved, err := scanSecret(r.db.QueryRow(ctx, query,
		secret.ID, secret.SecretID, secret.Version, secret.Data, secret.PayloadKey,
		string(secret.Type), secret.CreationDate, secret.OwnerID,
	))
	if err != nil {
		if isUniqueViolation(err, versionConstraint) {
			return model.Secret{}, model.ErrVersionConflict
		}
		return model.Secret{}, fmt.Errorf("failed to create secret: %w", err)
	}

	return saved, nil
}

// AppendVersion computes the next version and inserts it in one statement.
// The HAVING clause yields no row when the owner has no such secret.
func (r *SecretRepository) AppendVersion(ctx context.Context, secret model.Secret) (model.Secret, error) {
	query := `INSERT INTO secrets (` + secretColumns + `)
			  SELECT $1::uuid, $2::uuid, MAX(version) + 1, $3::bytea, $4::text, $5::text, $6::timestamptz, $7::uuid
			  FROM secrets
			  WHERE secret_id = $2::uuid AND user_id = $7::uuid
			  HAVING COUNT(*) > 0
			  RETURNING ` + secretColumns

	saved, err := scanSecret(r.db.QueryRow(ctx, query,
		secret.ID, secret.SecretID, secret.Data, secret.PayloadKey,
		string(secret.Type), secret.CreationDate, secret.OwnerID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Secret{}, model.ErrNotFound
		}
		if isUniqueViolation(err, versionConstraint) {
			return model.Secret{}, model.ErrVersionConflict
		}
		return model.Secret{}, fmt.Errorf("failed to append secret version: %w", err)
	}

	return saved, nil
}

func (r *SecretRepository) GetCurrentVersion(ctx context.Context, ownerID, secretID uuid.UUID) (int, error) {
	query := `SELECT MAX(version) FROM secrets WHERE secret_id = $1 AND user_id = $2`

	var version *int
	if err := r.db.QueryRow(ctx, query, secretID, ownerID).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	if version == nil {
		return 0, model.ErrNotFound
	}

	return *version, nil
}

// GetAllCurrentByOwner returns the highest version of every secret owned by ownerID.
func (r *SecretRepository) GetAllCurrentByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Secret, error) {
	query := `SELECT DISTINCT ON (secret_id) ` + secretColumns + `
			  FROM secrets
			  WHERE user_id = $1
			  ORDER BY secret_id, version DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current secrets: %w", err)
	}

	return collectSecrets(rows)
}

func (r *SecretRepository) GetVersion(ctx context.Context, ownerID, secretID uuid.UUID, version int) (model.Secret, error) {
	query := `SELECT ` + secretColumns + ` FROM secrets WHERE secret_id = $1 AND user_id = $2 AND version = $3`

	secret, err := scanSecret(r.db.QueryRow(ctx, query, secretID, ownerID, version))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Secret{}, model.ErrNotFound
		}
		return model.Secret{}, fmt.Errorf("failed to get secret version: %w", err)
	}

	return secret, nil
}

// GetHistory returns every version of a secret in ascending order.
func (r *SecretRepository) GetHistory(ctx context.Context, ownerID, secretID uuid.UUID) ([]model.Secret, error) {
	query := `SELECT ` + secretColumns + ` FROM secrets WHERE secret_id = $1 AND user_id = $2 ORDER BY version`

	rows, err := r.db.Query(ctx, query, secretID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get secret history: %w", err)
	}

	secrets, err := collectSecrets(rows)
	if err != nil {
		return nil, err
	}
	if len(secrets) == 0 {
		return nil, model.ErrNotFound
	}

	return secrets, nil
}

func (r *SecretRepository) GetOwner(ctx context.Context, secretID uuid.UUID) (uuid.UUID, error) {
	query := `SELECT user_id FROM secrets WHERE secret_id = $1 LIMIT 1`

	var ownerID uuid.UUID
	if err := r.db.QueryRow(ctx, query, secretID).Scan(&ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, model.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to get secret owner: %w", err)
	}

	return ownerID, nil
}
