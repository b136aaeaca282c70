package jwtauth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/leilao-agil-go/internal/domain"
	"github.com/boddenberg/leilao-agil-go/internal/infra/jwtauth"

	"github.com/golang-jwt/jwt/v5"
)

var secret = []byte("test-secret")

func TestSignParse_RoundTrip(t *testing.T) {
	tok, err := jwtauth.Sign(secret, domain.User{ID: "u1", Email: "ana@example.com"}, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := jwtauth.Parse(secret, tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID() != "u1" || claims.Email != "ana@example.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestParse_Rejects(t *testing.T) {
	expired, _ := jwtauth.Sign(secret, domain.User{ID: "u1"}, -time.Minute)
	otherKey, _ := jwtauth.Sign([]byte("other"), domain.User{ID: "u1"}, time.Hour)
	refreshType, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtauth.Claims{
		Type: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(secret)
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtauth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(secret)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"expired", expired},
		{"wrong key", otherKey},
		{"refresh type", refreshType},
		{"no subject", noSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jwtauth.Parse(secret, tt.token)
			var ua *domain.ErrUnauthorized
			if !errors.As(err, &ua) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestParse_AcceptsHostedProviderShape(t *testing.T) {
	// hosted tokens carry no type claim
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtauth.Claims{
		Email: "ana@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "5b3c",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(secret)

	claims, err := jwtauth.Parse(secret, tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID() != "5b3c" {
		t.Errorf("unexpected subject %q", claims.UserID())
	}
}
