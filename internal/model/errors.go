package model

import "errors"

var (
	// ErrNotFound is returned by stores when a row does not exist.
	ErrNotFound = errors.New("not found")

	ErrUserNotFound       = errors.New("user not found")
	ErrSecretNotFound     = errors.New("secret not found")
	ErrAlreadyExists      = errors.New("email already claimed")
	ErrInvalidToken       = errors.New("invalid verification token")
	ErrTokenExpired       = errors.New("verification token expired")
	ErrNotOwner           = errors.New("secret belongs to another user")
	ErrVersionConflict    = errors.New("concurrent secret version write")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrValidation         = errors.New("validation failed")
)
