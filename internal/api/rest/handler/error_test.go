package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dtroode/passkeeper-server/internal/model"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{err: fmt.Errorf("%w: name is required", model.ErrValidation), wantStatus: http.StatusBadRequest, wantCode: "validation"},
		{err: model.ErrUserNotFound, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{err: model.ErrSecretNotFound, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{err: model.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{err: model.ErrAlreadyExists, wantStatus: http.StatusConflict, wantCode: "already_exists"},
		{err: model.ErrInvalidToken, wantStatus: http.StatusBadRequest, wantCode: "invalid_token"},
		{err: model.ErrTokenExpired, wantStatus: http.StatusGone, wantCode: "token_expired"},
		{err: model.ErrNotOwner, wantStatus: http.StatusForbidden, wantCode: "not_owner"},
		{err: model.ErrVersionConflict, wantStatus: http.StatusConflict, wantCode: "version_conflict"},
		{err: model.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized, wantCode: "invalid_credentials"},
		{err: model.ErrEmailNotVerified, wantStatus: http.StatusForbidden, wantCode: "email_not_verified"},
		{err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError, wantCode: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got := handleError(tt.err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestHandleError_ValidationKeepsDetail(t *testing.T) {
	got := handleError(fmt.Errorf("%w: malformed email", model.ErrValidation))
	assert.Contains(t, got.Message, "malformed email")
}

func TestHandleError_InternalHidesDetail(t *testing.T) {
	got := handleError(errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal server error", got.Message)
}
