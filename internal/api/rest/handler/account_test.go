package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	servermocks "github.com/dtroode/passkeeper-server/internal/mocks"
	"github.com/dtroode/passkeeper-server/internal/model"
	"github.com/dtroode/passkeeper-server/internal/testutil"
)

func newAccountHandler(t *testing.T) (*Account, *servermocks.AccountService) {
	t.Helper()

	svc := servermocks.NewAccountService(t)
	return NewAccount(svc, ctxMgr, testutil.MakeNoopLogger()), svc
}

func TestAccount_CreateUser(t *testing.T) {
	t.Parallel()

	h, svc := newAccountHandler(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := "secret-token"
	user := model.User{
		ID:           uuid.New(),
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		EmailToken:   &token,
		CreationDate: created,
	}

	svc.On("CreateUser", mock.Anything, model.CreateUserParams{Name: "Alice", Email: "alice@example.com", Password: "pw"}).Return(user, nil).Once()

	rec := httptest.NewRecorder()
	h.CreateUser(rec, newRequest(http.MethodPost, "/api/users", `{"name":"Alice","email":"alice@example.com","password":"pw"}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), token)
	assert.NotContains(t, rec.Body.String(), "hash")

	var body userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, user.ID, body.ID)
	assert.False(t, body.EmailVerified)
	assert.True(t, created.Equal(body.CreationDate))
}

func TestAccount_CreateUser_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{name: "malformed json", body: `{"name":`, wantStatus: http.StatusBadRequest, wantCode: "bad_request"},
		{name: "unknown field", body: `{"login":"x"}`, wantStatus: http.StatusBadRequest, wantCode: "bad_request"},
		{name: "email taken", body: `{"name":"A","email":"a@x.com","password":"pw"}`, svcErr: model.ErrAlreadyExists, wantStatus: http.StatusConflict, wantCode: "already_exists"},
		{name: "validation", body: `{"name":"","email":"a@x.com","password":"pw"}`, svcErr: model.ErrValidation, wantStatus: http.StatusBadRequest, wantCode: "validation"},
		{name: "store failure", body: `{"name":"A","email":"a@x.com","password":"pw"}`, svcErr: errors.New("db down"), wantStatus: http.StatusInternalServerError, wantCode: "internal"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, svc := newAccountHandler(t)
			if tt.svcErr != nil {
				svc.On("CreateUser", mock.Anything, mock.Anything).Return(model.User{}, tt.svcErr).Once()
			}

			rec := httptest.NewRecorder()
			h.CreateUser(rec, newRequest(http.MethodPost, "/api/users", tt.body))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestAccount_Login(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		h, svc := newAccountHandler(t)
		svc.On("Login", mock.Anything, "a@x.com", "pw").Return("jwt", nil).Once()

		rec := httptest.NewRecorder()
		h.Login(rec, newRequest(http.MethodPost, "/api/login", `{"email":"a@x.com","password":"pw"}`))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"access_token":"jwt","token_type":"Bearer"}`, rec.Body.String())
	})

	t.Run("bad credentials", func(t *testing.T) {
		h, svc := newAccountHandler(t)
		svc.On("Login", mock.Anything, "a@x.com", "bad").Return("", model.ErrInvalidCredentials).Once()

		rec := httptest.NewRecorder()
		h.Login(rec, newRequest(http.MethodPost, "/api/login", `{"email":"a@x.com","password":"bad"}`))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid_credentials", decodeError(t, rec).Code)
	})
}

func TestAccount_VerifyEmail(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	tests := []struct {
		name       string
		userParam  string
		svcErr     error
		callSvc    bool
		wantStatus int
	}{
		{name: "verified", userParam: userID.String(), callSvc: true, wantStatus: http.StatusNoContent},
		{name: "expired", userParam: userID.String(), callSvc: true, svcErr: model.ErrTokenExpired, wantStatus: http.StatusGone},
		{name: "invalid token", userParam: userID.String(), callSvc: true, svcErr: model.ErrInvalidToken, wantStatus: http.StatusBadRequest},
		{name: "unknown user", userParam: userID.String(), callSvc: true, svcErr: model.ErrUserNotFound, wantStatus: http.StatusNotFound},
		{name: "malformed user id", userParam: "nope", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, svc := newAccountHandler(t)
			if tt.callSvc {
				svc.On("VerifyEmail", mock.Anything, userID, "tok").Return(tt.svcErr).Once()
			}

			req := withParams(newRequest(http.MethodGet, "/api/users/"+tt.userParam+"/email/verify?token=tok", ""), "userID", tt.userParam)
			rec := httptest.NewRecorder()
			h.VerifyEmail(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAccount_ConfirmEmailChange(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("confirmed", func(t *testing.T) {
		h, svc := newAccountHandler(t)
		svc.On("ConfirmEmailChange", mock.Anything, userID, "tok", "b@x.com").Return(nil).Once()

		req := withParams(newRequest(http.MethodGet, "/api/users/"+userID.String()+"/email/change?token=tok&email=b%40x.com", ""), "userID", userID.String())
		rec := httptest.NewRecorder()
		h.ConfirmEmailChange(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("address claimed meanwhile", func(t *testing.T) {
		h, svc := newAccountHandler(t)
		svc.On("ConfirmEmailChange", mock.Anything, userID, "tok", "b@x.com").Return(model.ErrAlreadyExists).Once()

		req := withParams(newRequest(http.MethodGet, "/api/users/"+userID.String()+"/email/change?token=tok&email=b@x.com", ""), "userID", userID.String())
		rec := httptest.NewRecorder()
		h.ConfirmEmailChange(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestAccount_RequestEmailChange(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("accepted", func(t *testing.T) {
		h, svc := newAccountHandler(t)
		svc.On("RequestEmailChange", mock.Anything, userID, "b@x.com").Return(nil).Once()

		rec := httptest.NewRecorder()
		h.RequestEmailChange(rec, asUser(newRequest(http.MethodPost, "/api/currentuser/email/change-request", `{"email":"b@x.com"}`), userID))

		assert.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("unverified", func(t *testing.T) {
		h, svc := newAccountHandler(t)
		svc.On("RequestEmailChange", mock.Anything, userID, "b@x.com").Return(model.ErrEmailNotVerified).Once()

		rec := httptest.NewRecorder()
		h.RequestEmailChange(rec, asUser(newRequest(http.MethodPost, "/api/currentuser/email/change-request", `{"email":"b@x.com"}`), userID))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "email_not_verified", decodeError(t, rec).Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		h, _ := newAccountHandler(t)

		rec := httptest.NewRecorder()
		h.RequestEmailChange(rec, newRequest(http.MethodPost, "/api/currentuser/email/change-request", `{"email":"b@x.com"}`))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAccount_ChangePassword(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	h, svc := newAccountHandler(t)
	svc.On("ChangePassword", mock.Anything, model.ChangePasswordParams{UserID: userID, CurrentPassword: "old", NewPassword: "new"}).Return(nil).Once()

	rec := httptest.NewRecorder()
	h.ChangePassword(rec, asUser(newRequest(http.MethodPut, "/api/currentuser/password", `{"current_password":"old","new_password":"new"}`), userID))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAccount_GetCurrentUser(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	pending := "b@x.com"
	h, svc := newAccountHandler(t)
	svc.On("GetCurrentUser", mock.Anything, userID).Return(model.UserProfile{
		ID:            userID,
		Name:          "A",
		Email:         "a@x.com",
		EmailVerified: true,
		PendingEmail:  &pending,
	}, nil).Once()

	rec := httptest.NewRecorder()
	h.GetCurrentUser(rec, asUser(newRequest(http.MethodGet, "/api/currentuser", ""), userID))

	require.Equal(t, http.StatusOK, rec.Code)
	var body userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "a@x.com", body.Email)
	require.NotNil(t, body.PendingEmail)
	assert.Equal(t, pending, *body.PendingEmail)
}

func TestAccount_ListUsers(t *testing.T) {
	t.Parallel()

	t.Run("users", func(t *testing.T) {
		h, svc := newAccountHandler(t)
		id := uuid.New()
		svc.On("ListUsers", mock.Anything).Return([]model.SimpleUser{{ID: id, Name: "A", Email: "a@x.com"}}, nil).Once()

		rec := httptest.NewRecorder()
		h.ListUsers(rec, newRequest(http.MethodGet, "/api/users", ""))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"id":"`+id.String()+`","name":"A","email":"a@x.com"}]`, rec.Body.String())
	})

	t.Run("empty list is an array", func(t *testing.T) {
		h, svc := newAccountHandler(t)
		svc.On("ListUsers", mock.Anything).Return(nil, nil).Once()

		rec := httptest.NewRecorder()
		h.ListUsers(rec, newRequest(http.MethodGet, "/api/users", ""))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}
