package serverutils

import (
	"errors"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload of the credential token issued by the identity service.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the resolved owner of a credential token.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

func (m *TokenManager) Issue(userID uuid.UUID, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID.String(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse validates a signed token and resolves it to an identity.
// A bare user id is not a credential and is rejected before any parsing.
func (m *TokenManager) Parse(tokenStr string) (Identity, error) {
	if tokenStr == "" {
		return Identity{}, apperror.Auth("missing credential token")
	}
	if _, err := uuid.Parse(tokenStr); err == nil {
		return Identity{}, apperror.Auth("raw user id is not a credential")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, apperror.Wrap(apperror.KindAuth, "credential token expired", err)
		}
		return Identity{}, apperror.Wrap(apperror.KindAuth, "invalid credential token", err)
	}
	if !token.Valid {
		return Identity{}, apperror.Auth("invalid credential token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Identity{}, apperror.Auth("invalid user id in token")
	}
	return Identity{UserID: userID, Role: claims.Role}, nil
}
