// Package service implements the use cases of the API. AuthService handles
// sign-up, sign-in, session refresh and access token verification.
package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/boddenberg/leilao-agil-go/internal/domain"
	"github.com/boddenberg/leilao-agil-go/internal/infra/jwtauth"
	"github.com/boddenberg/leilao-agil-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

const minPasswordLength = 6

// AuthService orchestrates authentication flows.
type AuthService struct {
	identity  port.IdentityProvider
	jwtSecret []byte
	logger    *zap.Logger
}

// NewAuthService creates a new auth service. jwtSecret verifies access tokens
// issued by the identity provider.
func NewAuthService(identity port.IdentityProvider, jwtSecret string, logger *zap.Logger) *AuthService {
	return &AuthService{
		identity:  identity,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
	}
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return &domain.ErrValidation{Field: "email", Message: "e-mail inválido"}
	}
	return nil
}

// ============================================================
// SignUp: POST /v1/auth/signup
// ============================================================

func (s *AuthService) SignUp(ctx context.Context, req *domain.SignUpRequest) (*domain.Session, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.SignUp")
	defer span.End()

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, &domain.ErrValidation{Field: "password", Message: fmt.Sprintf("senha deve ter ao menos %d caracteres", minPasswordLength)}
	}

	session, err := s.identity.SignUp(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	s.logger.Info("user signed up", zap.String("user_id", session.User.ID))
	return session, nil
}

// ============================================================
// Login: POST /v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.Session, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "e-mail e senha são obrigatórios"}
	}

	session, err := s.identity.SignIn(ctx, req)
	if err != nil {
		s.logger.Warn("login failed", zap.Error(err))
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return session, nil
}

// ============================================================
// Refresh: POST /v1/auth/refresh
// ============================================================

func (s *AuthService) Refresh(ctx context.Context, req *domain.RefreshRequest) (*domain.Session, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Refresh")
	defer span.End()

	if strings.TrimSpace(req.RefreshToken) == "" {
		return nil, &domain.ErrValidation{Field: "refreshToken", Message: "refresh token é obrigatório"}
	}
	session, err := s.identity.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return session, nil
}

// ============================================================
// Logout: POST /v1/auth/logout
// ============================================================

func (s *AuthService) Logout(ctx context.Context, userID, accessToken string) error {
	ctx, span := authTracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	if err := s.identity.SignOut(ctx, accessToken); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	s.logger.Info("user logged out", zap.String("user_id", userID))
	return nil
}

// Me returns the profile behind the access token.
func (s *AuthService) Me(ctx context.Context, accessToken string) (*domain.User, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Me")
	defer span.End()

	u, err := s.identity.GetUser(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ValidateAccessToken verifies an access token locally. Used by middleware.
func (s *AuthService) ValidateAccessToken(tokenString string) (*jwtauth.Claims, error) {
	return jwtauth.Parse(s.jwtSecret, tokenString)
}
