package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"agromarket-dispatch/internal/domain"
)

// Claims carries the authenticated actor inside the token.
type Claims struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HMAC-signed tokens.
type TokenService struct {
	secret []byte
	expiry time.Duration
}

// NewTokenService creates a TokenService around the shared secret.
func NewTokenService(secret string, expiry time.Duration) *TokenService {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &TokenService{
		secret: []byte(secret),
		expiry: expiry,
	}
}

// Generate creates a signed token for the actor.
func (s *TokenService) Generate(actor domain.Actor) (string, error) {
	now := time.Now()
	claims := &Claims{
		ActorID: actor.ID,
		Role:    string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "agromarket-dispatch",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses the token and returns the actor it names.
func (s *TokenService) Validate(tokenString string) (domain.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return domain.Actor{}, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.Actor{}, fmt.Errorf("invalid token")
	}

	actor := domain.Actor{ID: claims.ActorID, Role: domain.Role(claims.Role)}
	if actor.ID == "" || !actor.Role.Valid() {
		return domain.Actor{}, fmt.Errorf("malformed claims")
	}
	return actor, nil
}

type contextKey struct{}

// WithActor stores the actor in the context.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// FromContext returns the actor stored by the auth middleware.
func FromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(contextKey{}).(domain.Actor)
	return actor, ok
}
