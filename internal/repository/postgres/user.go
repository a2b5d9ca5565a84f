package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/passkeeper-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

const (
	userColumns = `id, name, email, password_hash, email_verified, email_token, pending_email, creation_date, updated_at`

	emailConstraint = "users_email_key"
)

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.EmailVerified,
		&user.EmailToken, &user.PendingEmail, &user.CreationDate, &user.UpdatedAt,
	)
	return user, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// List returns verified users ordered by name.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email_verified ORDER BY name, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (id, name, email, password_hash, email_verified, email_token, pending_email, creation_date, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			  RETURNING ` + userColumns

	saved, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.EmailVerified,
		user.EmailToken, user.PendingEmail, user.CreationDate,
	))
	if err != nil {
		if isUniqueViolation(err, emailConstraint) {
			return model.User{}, model.ErrAlreadyExists
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return saved, nil
}

// Reclaim moves an abandoned registration to user.ID and purges the secrets
// the previous registrant stored. The row must still be unverified and carry
// observedCreatedAt, otherwise another request got there first.
func (r *UserRepository) Reclaim(ctx context.Context, user model.User, observedCreatedAt time.Time) (model.User, error) {
	var saved model.User

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var previousID uuid.UUID
		err := tx.QueryRow(ctx,
			`SELECT id FROM users
			 WHERE email = $1 AND email_verified = FALSE AND creation_date = $2
			 FOR UPDATE`,
			user.Email, observedCreatedAt,
		).Scan(&previousID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrAlreadyExists
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}

		// TODO: remove object storage payloads (payload_key) of the purged rows.
		if _, err := tx.Exec(ctx, `DELETE FROM secrets WHERE user_id = $1`, previousID); err != nil {
			return fmt.Errorf("failed to purge secrets: %w", err)
		}

		query := `UPDATE users
				  SET id = $2, name = $3, password_hash = $4, email_token = $5, pending_email = NULL,
				      creation_date = $6, updated_at = $6
				  WHERE id = $1
				  RETURNING ` + userColumns

		saved, err = scanUser(tx.QueryRow(ctx, query,
			previousID, user.ID, user.Name, user.PasswordHash, user.EmailToken, user.CreationDate,
		))
		if err != nil {
			return fmt.Errorf("failed to reclaim user: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.User{}, err
	}

	return saved, nil
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID, token string) error {
	query := `UPDATE users
			  SET email_verified = TRUE, email_token = NULL, updated_at = NOW()
			  WHERE id = $1 AND email_token = $2 AND email_verified = FALSE AND pending_email IS NULL`

	tag, err := r.db.Exec(ctx, query, id, token)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrInvalidToken
	}

	return nil
}

func (r *UserRepository) StageEmailChange(ctx context.Context, id uuid.UUID, newEmail, token string) error {
	query := `UPDATE users
			  SET pending_email = $2, email_token = $3, updated_at = NOW()
			  WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, newEmail, token)
	if err != nil {
		return fmt.Errorf("failed to stage email change: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

// CommitEmailChange swaps email for the staged address. The new address may
// have been claimed since staging, which surfaces as ErrAlreadyExists.
func (r *UserRepository) CommitEmailChange(ctx context.Context, id uuid.UUID, token, newEmail string) error {
	query := `UPDATE users
			  SET email = pending_email, pending_email = NULL, email_token = NULL, updated_at = NOW()
			  WHERE id = $1 AND email_token = $2 AND pending_email = $3`

	tag, err := r.db.Exec(ctx, query, id, token, newEmail)
	if err != nil {
		if isUniqueViolation(err, emailConstraint) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("failed to commit email change: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrInvalidToken
	}

	return nil
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}
