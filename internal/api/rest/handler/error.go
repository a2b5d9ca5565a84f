package handler

import (
	"errors"

	"github.com/dtroode/passkeeper-server/internal/api/rest/response"
	"github.com/dtroode/passkeeper-server/internal/model"
)

func handleError(err error) *response.HTTPError {
	switch {
	case errors.Is(err, model.ErrValidation):
		return response.ErrValidation.WithMessage(err.Error())
	case errors.Is(err, model.ErrUserNotFound):
		return response.ErrNotFound.WithMessage("user not found")
	case errors.Is(err, model.ErrSecretNotFound):
		return response.ErrNotFound.WithMessage("secret not found")
	case errors.Is(err, model.ErrNotFound):
		return response.ErrNotFound
	case errors.Is(err, model.ErrAlreadyExists):
		return response.ErrAlreadyExists
	case errors.Is(err, model.ErrInvalidToken):
		return response.ErrInvalidToken
	case errors.Is(err, model.ErrTokenExpired):
		return response.ErrTokenExpired
	case errors.Is(err, model.ErrNotOwner):
		return response.ErrNotOwner
	case errors.Is(err, model.ErrVersionConflict):
		return response.ErrVersionConflict
	case errors.Is(err, model.ErrInvalidCredentials):
		return response.ErrInvalidCredentials
	case errors.Is(err, model.ErrEmailNotVerified):
		return response.ErrEmailNotVerified
	default:
		return response.ErrInternalServerError
	}
}
