package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/passkeeper-server/internal/model"
)

const (
	issuer     = "passkeeper"
	typeAccess = "access"
)

// Claims carries the caller id in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"typ"`
}

// JWT signs and verifies HS256 access tokens.
type JWT struct {
	secretKey []byte
	accessTTL time.Duration
	now       func() time.Time
}

var _ model.TokenManager = (*JWT)(nil)

// NewJWT creates a token manager issuing access tokens valid for accessTTL.
func NewJWT(secretKey string, accessTTL time.Duration) *JWT {
	return &JWT{
		secretKey: []byte(secretKey),
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

func (j *JWT) AccessTTL() time.Duration {
	return j.accessTTL
}

func (j *JWT) GenerateAccessToken(userID uuid.UUID) (string, error) {
	issuedAt := j.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(j.accessTTL)),
		},
		TokenType: typeAccess,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, nil
}

// ParseAccessToken verifies signature, issuer, expiry and token type, and
// returns the user id from the subject.
func (j *JWT) ParseAccessToken(tokenString string) (uuid.UUID, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (any, error) { return j.secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse access token: %w", err)
	}

	if claims.TokenType != typeAccess {
		return uuid.Nil, fmt.Errorf("token type mismatch: %s", claims.TokenType)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, errors.Join(jwt.ErrTokenInvalidSubject, err)
	}

	return userID, nil
}
