package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/passkeeper-server/internal/api/rest/response"
	"github.com/dtroode/passkeeper-server/internal/logger"
	"github.com/dtroode/passkeeper-server/internal/model"
)

// AccountService defines registration, verification and credential operations.
type AccountService interface {
	CreateUser(ctx context.Context, params model.CreateUserParams) (model.User, error)
	VerifyEmail(ctx context.Context, userID uuid.UUID, token string) error
	RequestEmailChange(ctx context.Context, userID uuid.UUID, newEmail string) error
	ConfirmEmailChange(ctx context.Context, userID uuid.UUID, token, newEmail string) error
	ChangePassword(ctx context.Context, params model.ChangePasswordParams) error
	Login(ctx context.Context, email, password string) (string, error)
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (model.UserProfile, error)
	ListUsers(ctx context.Context) ([]model.SimpleUser, error)
}

// Account handles HTTP endpoints for accounts.
type Account struct {
	accountService AccountService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAccount creates a new Account handler.
func NewAccount(accountService AccountService, contextManager model.ContextManager, logger *logger.Logger) *Account {
	return &Account{
		accountService: accountService,
		contextManager: contextManager,
		logger:         logger,
	}
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type emailChangeRequest struct {
	Email string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type userResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	PendingEmail  *string   `json:"pending_email,omitempty"`
	CreationDate  time.Time `json:"creation_date"`
}

type simpleUserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// CreateUser registers an account and sends the verification email.
func (h *Account) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if httpErr := decodeJSON(w, r, &req); httpErr != nil {
		response.WriteError(w, httpErr)
		return
	}

	user, err := h.accountService.CreateUser(r.Context(), model.CreateUserParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(w, "registration failed", err)
		return
	}

	h.logger.Info("Account handler: user registered", "user_id", user.ID)

	response.WriteJSON(w, http.StatusCreated, userResponse{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		CreationDate:  user.CreationDate,
	})
}

func (h *Account) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if httpErr := decodeJSON(w, r, &req); httpErr != nil {
		response.WriteError(w, httpErr)
		return
	}

	token, err := h.accountService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, "login failed", err)
		return
	}

	response.WriteJSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "Bearer"})
}

// VerifyEmail redeems the link sent on registration.
func (h *Account) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	userID, httpErr := uuidParam(r, "userID")
	if httpErr != nil {
		response.WriteError(w, httpErr)
		return
	}

	if err := h.accountService.VerifyEmail(r.Context(), userID, r.URL.Query().Get("token")); err != nil {
		h.fail(w, "email verification failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ConfirmEmailChange redeems the link sent on an email change request.
func (h *Account) ConfirmEmailChange(w http.ResponseWriter, r *http.Request) {
	userID, httpErr := uuidParam(r, "userID")
	if httpErr != nil {
		response.WriteError(w, httpErr)
		return
	}

	query := r.URL.Query()
	if err := h.accountService.ConfirmEmailChange(r.Context(), userID, query.Get("token"), query.Get("email")); err != nil {
		h.fail(w, "email change confirmation failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Account) RequestEmailChange(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, response.ErrUnauthorized)
		return
	}

	var req emailChangeRequest
	if httpErr := decodeJSON(w, r, &req); httpErr != nil {
		response.WriteError(w, httpErr)
		return
	}

	if err := h.accountService.RequestEmailChange(r.Context(), userID, req.Email); err != nil {
		h.fail(w, "email change request failed", err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *Account) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, response.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if httpErr := decodeJSON(w, r, &req); httpErr != nil {
		response.WriteError(w, httpErr)
		return
	}

	err := h.accountService.ChangePassword(r.Context(), model.ChangePasswordParams{
		UserID:          userID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.fail(w, "password change failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Account) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, response.ErrUnauthorized)
		return
	}

	profile, err := h.accountService.GetCurrentUser(r.Context(), userID)
	if err != nil {
		h.fail(w, "get current user failed", err)
		return
	}

	response.WriteJSON(w, http.StatusOK, userResponse{
		ID:            profile.ID,
		Name:          profile.Name,
		Email:         profile.Email,
		EmailVerified: profile.EmailVerified,
		PendingEmail:  profile.PendingEmail,
		CreationDate:  profile.CreationDate,
	})
}

func (h *Account) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accountService.ListUsers(r.Context())
	if err != nil {
		h.fail(w, "list users failed", err)
		return
	}

	out := make([]simpleUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, simpleUserResponse{ID: u.ID, Name: u.Name, Email: u.Email})
	}

	response.WriteJSON(w, http.StatusOK, out)
}

func (h *Account) fail(w http.ResponseWriter, msg string, err error) {
	httpErr := handleError(err)
	if httpErr.Status >= http.StatusInternalServerError {
		h.logger.Error("Account handler: "+msg, "error", err.Error())
	} else {
		h.logger.Debug("Account handler: "+msg, "code", httpErr.Code)
	}
	response.WriteError(w, httpErr)
}
