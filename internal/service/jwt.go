package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/Payphone-Digital/content-api/internal/errors"
)

// Claims carried by access tokens. Tokens are issued out of band (see the
// token command); the API only verifies them.
type Claims struct {
	Email        string `json:"email,omitempty"`
	Name         string `json:"name,omitempty"`
	IsSubscribed bool   `json:"isSubscribed"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secretKey []byte
	expiry    time.Duration
	now       func() time.Time
}

func NewJWTService(secretKey string, expiry time.Duration) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		expiry:    expiry,
		now:       time.Now,
	}
}

// GenerateToken signs an HS256 token for subject
func (s *JWTService) GenerateToken(subject, email, name string, subscribed bool) (string, error) {
	if subject == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "token subject is required")
	}
	now := s.now()
	claims := Claims{
		Email:        email,
		Name:         name,
		IsSubscribed: subscribed,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature and expiry and returns the claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
