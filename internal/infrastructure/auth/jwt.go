// Package auth signs and verifies identity tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/leadflow/role-service/internal/core/domain"
)

// reserved claim names never overwritten by an account's custom claims.
var reserved = map[string]struct{}{
	"sub": {}, "jti": {}, "iat": {}, "exp": {}, "nbf": {}, "iss": {}, "aud": {}, "email": {},
}

// JWTIssuer issues HS256 tokens that carry an account's custom claims at the
// top level of the payload.
type JWTIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTIssuer(secret, issuer string, ttl time.Duration) *JWTIssuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (j *JWTIssuer) Issue(account *domain.Account) (string, *domain.TokenClaims, error) {
	if account == nil || account.UID == "" {
		return "", nil, errors.New("issue token: account required")
	}
	now := j.now().UTC().Truncate(time.Second)
	exp := now.Add(j.ttl)
	id := uuid.NewString()

	claims := jwt.MapClaims{}
	for k, v := range account.CustomClaims {
		if _, skip := reserved[k]; skip {
			continue
		}
		claims[k] = v
	}
	claims["sub"] = account.UID
	claims["jti"] = id
	claims["iat"] = now.Unix()
	claims["exp"] = exp.Unix()
	claims["iss"] = j.issuer
	claims["email"] = account.Email

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	role, _ := account.CustomClaims[domain.ClaimRole].(string)
	return signed, &domain.TokenClaims{
		ID:        id,
		UID:       account.UID,
		Email:     account.Email,
		Role:      role,
		Custom:    customClaims(claims),
		IssuedAt:  now,
		ExpiresAt: exp,
	}, nil
}

// Verify checks signature, algorithm, expiry and issuer. Any failure maps to
// domain.ErrUnauthenticated.
func (j *JWTIssuer) Verify(raw string) (*domain.TokenClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrUnauthenticated)
	}
	out := &domain.TokenClaims{UID: sub, Custom: customClaims(claims)}
	out.ID, _ = claims["jti"].(string)
	out.Email, _ = claims["email"].(string)
	out.Role, _ = claims[domain.ClaimRole].(string)
	if iat, _ := claims.GetIssuedAt(); iat != nil {
		out.IssuedAt = iat.Time.UTC()
	}
	if exp, _ := claims.GetExpirationTime(); exp != nil {
		out.ExpiresAt = exp.Time.UTC()
	}
	return out, nil
}

func customClaims(claims jwt.MapClaims) map[string]any {
	out := make(map[string]any)
	for k, v := range claims {
		if _, skip := reserved[k]; skip {
			continue
		}
		out[k] = v
	}
	return out
}
