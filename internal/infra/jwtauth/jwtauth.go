// Package jwtauth signs and verifies HS256 access tokens.
//
// Tokens issued by the hosted identity provider and by the local one share
// the same shape: sub is the user ID and aud is "authenticated". Local tokens
// additionally carry type=access so refresh material can never be replayed
// as an access token.
package jwtauth

import (
	"fmt"
	"time"

	"github.com/boddenberg/leilao-agil-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Audience is the aud claim of every access token.
	Audience = "authenticated"
	issuer   = "leilao-api"
)

// Claims are the access token claims.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	Type  string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c *Claims) UserID() string {
	return c.Subject
}

// Sign issues an access token for user valid for ttl.
func Sign(secret []byte, user domain.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: user.Email,
		Role:  Audience,
		Type:  "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Audience:  jwt.ClaimStrings{Audience},
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Parse verifies tokenString and returns its claims. Any failure is reported
// as *domain.ErrUnauthorized.
func Parse(secret []byte, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido ou expirado"}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido"}
	}
	if claims.Type != "" && claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "Tipo de token inválido"}
	}
	return claims, nil
}
