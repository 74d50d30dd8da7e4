package auth

import (
	"errors"
	"time"

	"billvault/internal/domain/billing"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and verifies the bearer tokens the HTTP layer accepts
// as proof of identity. The token subject is the caller's ledger identity.
type TokenService struct {
	secretKey []byte
	expiresIn time.Duration
}

func NewTokenService(secret string, expiresIn time.Duration) *TokenService {
	return &TokenService{
		secretKey: []byte(secret),
		expiresIn: expiresIn,
	}
}

// GenerateToken signs a token for the given identity.
func (s *TokenService) GenerateToken(identity billing.Identity) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   string(identity),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ParseToken verifies a token and returns the identity it was issued to.
func (s *TokenService) ParseToken(tokenStr string) (billing.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secretKey, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token claims")
	}
	return billing.Identity(claims.Subject), nil
}
