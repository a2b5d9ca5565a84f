package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dtroode/passkeeper-server/internal/api/rest/response"
	"github.com/dtroode/passkeeper-server/internal/logger"
	"github.com/dtroode/passkeeper-server/internal/model"
)

// SecretService defines versioned secret operations.
type SecretService interface {
	CreateSecret(ctx context.Context, params model.CreateSecretParams) (model.Secret, error)
	UpdateSecret(ctx context.Context, params model.UpdateSecretParams) (model.Secret, error)
	GetAllSecrets(ctx context.Context, ownerID uuid.UUID) ([]model.Secret, error)
	GetSecret(ctx context.Context, ownerID, secretID uuid.UUID) (model.Secret, error)
	GetSecretVersion(ctx context.Context, ownerID, secretID uuid.UUID, version int) (model.Secret, error)
	GetSecretHistory(ctx context.Context, ownerID, secretID uuid.UUID) ([]model.Secret, error)
}

// Secret handles HTTP endpoints for secrets. The owner always comes from
// the authenticated context.
type Secret struct {
	secretService  SecretService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewSecret creates a new Secret handler.
func NewSecret(secretService SecretService, contextManager model.ContextManager, logger *logger.Logger) *Secret {
	return &Secret{
		secretService:  secretService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// secretRequest carries client-side encrypted bytes, base64 in JSON.
type secretRequest struct {
	Type string `json:"type"`
	Data []byte `json:"data"`
}

type secretResponse struct {
	ID           uuid.UUID `json:"id"`
	Version      int       `json:"version"`
	Type         string    `json:"type"`
	Data         []byte    `json:"data"`
	CreationDate time.Time `json:"creation_date"`
}

func toSecretResponse(s model.Secret) secretResponse {
	return secretResponse{
		ID:           s.SecretID,
		Version:      s.Version,
		Type:         string(s.Type),
		Data:         s.Data,
		CreationDate: s.CreationDate,
	}
}

func toSecretResponses(secrets []model.Secret) []secretResponse {
	out := make([]secretResponse, 0, len(secrets))
	for _, s := range secrets {
		out = append(out, toSecretResponse(s))
	}
	return out
}

func (h *Secret) CreateSecret(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, response.ErrUnauthorized)
		return
	}

	var req secretRequest
	if httpErr := decodeJSON(w, r, &req); httpErr != nil {
		response.WriteError(w, httpErr)
		return
	}

	secret, err := h.secretService.CreateSecret(r.Context(), model.CreateSecretParams{
		OwnerID: ownerID,
		Data:    req.Data,
		Type:    model.SecretType(req.Type),
	})
	if err != nil {
		h.fail(w, "create secret failed", err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, toSecretResponse(secret))
}

// UpdateSecret appends a new version.
func (h *Secret) UpdateSecret(w http.ResponseWriter, r *http.Request) {
	ownerID, secretID, ok := h.target(w, r)
	if !ok {
		return
	}

	var req secretRequest
	if httpErr := decodeJSON(w, r, &req); httpErr != nil {
		response.WriteError(w, httpErr)
		return
	}

	secret, err := h.secretService.UpdateSecret(r.Context(), model.UpdateSecretParams{
		OwnerID:  ownerID,
		SecretID: secretID,
		Data:     req.Data,
		Type:     model.SecretType(req.Type),
	})
	if err != nil {
		h.fail(w, "update secret failed", err)
		return
	}

	response.WriteJSON(w, http.StatusOK, toSecretResponse(secret))
}

func (h *Secret) GetAllSecrets(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, response.ErrUnauthorized)
		return
	}

	secrets, err := h.secretService.GetAllSecrets(r.Context(), ownerID)
	if err != nil {
		h.fail(w, "get secrets failed", err)
		return
	}

	response.WriteJSON(w, http.StatusOK, toSecretResponses(secrets))
}

func (h *Secret) GetSecret(w http.ResponseWriter, r *http.Request) {
	ownerID, secretID, ok := h.target(w, r)
	if !ok {
		return
	}

	secret, err := h.secretService.GetSecret(r.Context(), ownerID, secretID)
	if err != nil {
		h.fail(w, "get secret failed", err)
		return
	}

	response.WriteJSON(w, http.StatusOK, toSecretResponse(secret))
}

func (h *Secret) GetSecretVersion(w http.ResponseWriter, r *http.Request) {
	ownerID, secretID, ok := h.target(w, r)
	if !ok {
		return
	}

	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		response.WriteError(w, response.ErrValidation.WithMessage("version must be an integer"))
		return
	}

	secret, err := h.secretService.GetSecretVersion(r.Context(), ownerID, secretID, version)
	if err != nil {
		h.fail(w, "get secret version failed", err)
		return
	}

	response.WriteJSON(w, http.StatusOK, toSecretResponse(secret))
}

func (h *Secret) GetSecretHistory(w http.ResponseWriter, r *http.Request) {
	ownerID, secretID, ok := h.target(w, r)
	if !ok {
		return
	}

	secrets, err := h.secretService.GetSecretHistory(r.Context(), ownerID, secretID)
	if err != nil {
		h.fail(w, "get secret history failed", err)
		return
	}

	response.WriteJSON(w, http.StatusOK, toSecretResponses(secrets))
}

// target resolves the caller and the {secretID} path parameter, writing the
// error response itself when either is missing.
func (h *Secret) target(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	ownerID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, response.ErrUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}

	secretID, httpErr := uuidParam(r, "secretID")
	if httpErr != nil {
		response.WriteError(w, httpErr)
		return uuid.Nil, uuid.Nil, false
	}

	return ownerID, secretID, true
}

func (h *Secret) fail(w http.ResponseWriter, msg string, err error) {
	httpErr := handleError(err)
	if httpErr.Status >= http.StatusInternalServerError {
		h.logger.Error("Secret handler: "+msg, "error", err.Error())
	} else {
		h.logger.Debug("Secret handler: "+msg, "code", httpErr.Code)
	}
	response.WriteError(w, httpErr)
}
