package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/boddenberg/leilao-agil-go/internal/domain"
)

// ============================================================
// IdentityProvider implementation: GoTrue (/auth/v1)
// ============================================================

type gotrueUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		DisplayName string `json:"display_name"`
		FullName    string `json:"full_name"`
		AvatarURL   string `json:"avatar_url"`
	} `json:"user_metadata"`
}

func (u gotrueUser) toDomain() domain.User {
	name := u.UserMetadata.DisplayName
	if name == "" {
		name = u.UserMetadata.FullName
	}
	return domain.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: name,
		PhotoURL:    u.UserMetadata.AvatarURL,
	}
}

type gotrueSession struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"`
	User         *gotrueUser `json:"user"`

	// signup without auto-confirm answers with the bare user
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (s gotrueSession) toDomain() *domain.Session {
	out := &domain.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
	}
	if s.User != nil {
		out.User = s.User.toDomain()
	} else {
		out.User = domain.User{ID: s.ID, Email: s.Email}
	}
	return out
}

// authError translates GoTrue 4xx answers into domain errors.
func authError(err error, unauthorizedMsg string) error {
	var ae *apiError
	if !errors.As(err, &ae) {
		return &domain.ErrExternalService{Service: "identity", Err: err}
	}
	body := strings.ToLower(ae.Body)
	switch {
	case strings.Contains(body, "already registered") || strings.Contains(body, "already exists"):
		return &domain.ErrConflict{Message: "e-mail já cadastrado"}
	case ae.Status == http.StatusUnprocessableEntity && strings.Contains(body, "password"):
		return &domain.ErrValidation{Field: "password", Message: "senha não atende aos requisitos"}
	case ae.Status == http.StatusBadRequest || ae.Status == http.StatusUnauthorized || ae.Status == http.StatusForbidden:
		return &domain.ErrUnauthorized{Message: unauthorizedMsg}
	case ae.Status == http.StatusUnprocessableEntity:
		return &domain.ErrValidation{Field: "email", Message: "e-mail inválido"}
	}
	return &domain.ErrExternalService{Service: "identity", Err: err}
}

func (c *Client) sessionCall(ctx context.Context, path string, payload any, unauthorizedMsg string) (*domain.Session, error) {
	var session *domain.Session
	err := c.guard(ctx, "supabase/auth", false, func() error {
		body, err := c.doAuth(ctx, http.MethodPost, path, "", payload)
		if err != nil {
			return err
		}
		var raw gotrueSession
		if err := json.Unmarshal(body, &raw); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		session = raw.toDomain()
		return nil
	})
	if err != nil {
		return nil, authError(err, unauthorizedMsg)
	}
	return session, nil
}

// SignUp registers a new e-mail/password user.
func (c *Client) SignUp(ctx context.Context, req *domain.SignUpRequest) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SignUp")
	defer span.End()

	payload := map[string]any{
		"email":    req.Email,
		"password": req.Password,
	}
	if req.DisplayName != "" {
		payload["data"] = map[string]string{"display_name": req.DisplayName}
	}
	return c.sessionCall(ctx, "signup", payload, "cadastro não autorizado")
}

// SignIn exchanges e-mail and password for a session.
func (c *Client) SignIn(ctx context.Context, req *domain.LoginRequest) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SignIn")
	defer span.End()

	payload := map[string]string{"email": req.Email, "password": req.Password}
	return c.sessionCall(ctx, "token?grant_type=password", payload, "e-mail ou senha inválidos")
}

// Refresh exchanges a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Refresh")
	defer span.End()

	payload := map[string]string{"refresh_token": refreshToken}
	return c.sessionCall(ctx, "token?grant_type=refresh_token", payload, "refresh token inválido ou expirado")
}

// SignOut revokes the refresh tokens of the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	ctx, span := tracer.Start(ctx, "Supabase.SignOut")
	defer span.End()

	err := c.guard(ctx, "supabase/auth", false, func() error {
		_, err := c.doAuth(ctx, http.MethodPost, "logout", accessToken, nil)
		return err
	})
	if err != nil {
		return authError(err, "sessão inválida")
	}
	return nil
}

// GetUser returns the user the access token belongs to.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUser")
	defer span.End()

	var user *domain.User
	err := c.guard(ctx, "supabase/auth", true, func() error {
		body, err := c.doAuth(ctx, http.MethodGet, "user", accessToken, nil)
		if err != nil {
			return err
		}
		var raw gotrueUser
		if err := json.Unmarshal(body, &raw); err != nil {
			return fmt.Errorf("decode user: %w", err)
		}
		u := raw.toDomain()
		user = &u
		return nil
	})
	if err != nil {
		return nil, authError(err, "sessão inválida")
	}
	return user, nil
}
