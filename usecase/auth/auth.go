// Package auth defines the identity collaborator port and a local
// development implementation. In production the verifier is backed by
// the managed identity provider's admin SDK; locally tokens are minted
// and verified with an HMAC secret so the gateway runs without
// credentials.
package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/taskmaster/gateway/domain"
)

// TokenVerifier validates a bearer token and resolves the credential
// it carries.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*domain.AuthUser, error)
}

const defaultTokenTTL = 24 * time.Hour

// LocalIssuer mints and verifies HMAC-signed tokens for development
// mode sign-in.
type LocalIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	logger *zap.Logger
}

func NewLocalIssuer(secret, issuer string, ttl time.Duration, logger *zap.Logger) *LocalIssuer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		logger: logger,
	}
}

type localClaims struct {
	jwt.RegisteredClaims
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`
	PhotoURL    string `json:"picture,omitempty"`
}

// SignIn mints a token for the given identity.
func (i *LocalIssuer) SignIn(ctx context.Context, user domain.AuthUser) (string, error) {
	if user.UID == "" {
		return "", domain.ErrInvalidPayload
	}
	now := time.Now()
	claims := localClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "token signing failed", err)
	}
	i.logger.Debug("local token minted", zap.String("uid", user.UID))
	return signed, nil
}

// Verify implements TokenVerifier.
func (i *LocalIssuer) Verify(ctx context.Context, tokenString string) (*domain.AuthUser, error) {
	var claims localClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthorized
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "invalid token", err)
	}
	if claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return &domain.AuthUser{
		UID:         claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		PhotoURL:    claims.PhotoURL,
	}, nil
}
