package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnection_NilPool(t *testing.T) {
	conn := &Connection{}

	require.NoError(t, conn.Close())

	err := conn.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection pool is nil")
}

func TestNewConnection_InvalidDSN(t *testing.T) {
	_, err := NewConnection(context.Background(), "postgres://%zz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse postgres dsn")
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{
			name:       "matching constraint",
			err:        &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_email_key"},
			constraint: "users_email_key",
			want:       true,
		},
		{
			name:       "wrapped",
			err:        fmt.Errorf("insert: %w", &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_email_key"}),
			constraint: "users_email_key",
			want:       true,
		},
		{
			name:       "any constraint",
			err:        &pgconn.PgError{Code: uniqueViolation, ConstraintName: "secrets_pkey"},
			constraint: "",
			want:       true,
		},
		{
			name:       "other constraint",
			err:        &pgconn.PgError{Code: uniqueViolation, ConstraintName: "secrets_pkey"},
			constraint: "users_email_key",
			want:       false,
		},
		{
			name:       "foreign key violation",
			err:        &pgconn.PgError{Code: "23503"},
			constraint: "",
			want:       false,
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			constraint: "",
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err, tt.constraint))
		})
	}
}
