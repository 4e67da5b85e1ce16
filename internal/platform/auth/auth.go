// Package auth verifies bearer tokens and carries the resulting actor through
// request contexts.
//
// Tokens are HS256 JWTs. The subject claim names the actor and the optional
// "roles" claim lists role tags:
//
//	v := auth.NewVerifier(cfg.Auth)
//	actor, err := v.Verify(rawToken)
//	ctx = auth.WithActor(ctx, actor)
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Aidzix/Monday/internal/domain"
	"github.com/Aidzix/Monday/internal/domain/access"
	"github.com/Aidzix/Monday/internal/platform/config"
)

// leeway absorbs clock skew between the token issuer and this service.
const leeway = 30 * time.Second

// Claims is the token payload.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks token signatures and registered claims.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// NewVerifier creates a Verifier from the auth config. Issuer and audience are
// only enforced when configured.
func NewVerifier(cfg config.AuthConfig) *Verifier {
	return &Verifier{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		now:      time.Now,
	}
}

// Verify parses raw and returns the actor it names. Every failure wraps
// domain.ErrUnauthenticated.
func (v *Verifier) Verify(raw string) (access.Actor, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims Claims
	_, err := jwt.NewParser(opts...).ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return access.Actor{}, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return access.Actor{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}

	return access.Actor{ID: claims.Subject, Roles: claims.Roles}, nil
}

// Issue signs a token for subject that expires after ttl. It is used by
// local tooling and tests; production tokens come from the identity service.
func (v *Verifier) Issue(subject string, roles []string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("issuing token: empty subject")
	}
	now := v.now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: missing bearer token", domain.ErrUnauthenticated)
	}
	return strings.TrimSpace(token), nil
}
