package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/passkeeper-server/internal/logger"
	"github.com/dtroode/passkeeper-server/internal/model"
)

// TokenService issues and resolves bearer tokens on top of a TokenManager.
type TokenService struct {
	manager model.TokenManager
	logger  *logger.Logger
}

func NewTokenService(manager model.TokenManager, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, logger: logger}
}

func (s *TokenService) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	access, err := s.manager.GenerateAccessToken(userID)
	if err != nil {
		return "", fmt.Errorf("issue access: %w", err)
	}

	s.logger.Debug("Token service: access token issued", "user_id", userID)
	return access, nil
}

// GetUserID resolves the caller identity carried by an access token.
func (s *TokenService) GetUserID(ctx context.Context, token string) (uuid.UUID, error) {
	return s.manager.ParseAccessToken(token)
}
