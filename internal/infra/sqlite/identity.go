package sqlite

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/leilao-agil-go/internal/domain"
	"github.com/boddenberg/leilao-agil-go/internal/infra/jwtauth"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

// ============================================================
// IdentityProvider implementation: local e-mail/password users
// ============================================================

const bcryptCost = 12

var errInvalidCredentials = &domain.ErrUnauthorized{Message: "e-mail ou senha inválidos"}

// SignUp creates a user and opens a session for it.
func (s *Store) SignUp(ctx context.Context, req *domain.SignUpRequest) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "SQLite.SignUp")
	defer span.End()

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:          uuid.NewString(),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		DisplayName: strings.TrimSpace(req.DisplayName),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.DisplayName, string(hash), s.now().Format(timeLayout))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, &domain.ErrConflict{Message: "e-mail já cadastrado"}
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return s.openSession(ctx, user)
}

// SignIn checks the password and opens a session.
func (s *Store) SignIn(ctx context.Context, req *domain.LoginRequest) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "SQLite.SignIn")
	defer span.End()

	cred, err := s.credentialByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}
	return s.openSession(ctx, cred.User)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// session is issued.
func (s *Store) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "SQLite.Refresh")
	defer span.End()

	tokenHash := hashToken(refreshToken)
	var (
		rec       domain.RefreshTokenRecord
		expiresAt string
		revoked   int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT token_hash, user_id, expires_at, revoked FROM refresh_tokens WHERE token_hash = ?`, tokenHash,
	).Scan(&rec.TokenHash, &rec.UserID, &expiresAt, &revoked)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrUnauthorized{Message: "refresh token inválido"}
	}
	if err != nil {
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	rec.Revoked = revoked != 0
	rec.ExpiresAt, _ = time.Parse(timeLayout, expiresAt)

	if rec.Revoked || !rec.ExpiresAt.After(s.now()) {
		return nil, &domain.ErrUnauthorized{Message: "refresh token inválido ou expirado"}
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = 1 WHERE token_hash = ?`, tokenHash); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}

	user, err := s.userByID(ctx, rec.UserID)
	if err != nil {
		return nil, err
	}
	return s.openSession(ctx, *user)
}

// SignOut revokes every refresh token of the token's user.
func (s *Store) SignOut(ctx context.Context, accessToken string) error {
	ctx, span := tracer.Start(ctx, "SQLite.SignOut")
	defer span.End()

	claims, err := jwtauth.Parse(s.jwtSecret, accessToken)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = 1 WHERE user_id = ?`, claims.UserID()); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

// GetUser returns the user the access token belongs to.
func (s *Store) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetUser")
	defer span.End()

	claims, err := jwtauth.Parse(s.jwtSecret, accessToken)
	if err != nil {
		return nil, err
	}
	return s.userByID(ctx, claims.UserID())
}

func (s *Store) openSession(ctx context.Context, user domain.User) (*domain.Session, error) {
	accessToken, err := jwtauth.Sign(s.jwtSecret, user, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	refreshToken := hex.EncodeToString(raw)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token_hash, user_id, expires_at) VALUES (?, ?, ?)`,
		hashToken(refreshToken), user.ID, s.now().Add(s.refreshTTL).Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.accessTTL.Seconds()),
		User:         user,
	}, nil
}

func (s *Store) credentialByEmail(ctx context.Context, email string) (*domain.LocalCredential, error) {
	var (
		cred      domain.LocalCredential
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, photo_url, password_hash, created_at FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&cred.ID, &cred.Email, &cred.DisplayName, &cred.PhotoURL, &cred.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	cred.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return &cred, nil
}

func (s *Store) userByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, photo_url FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.PhotoURL)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrUnauthorized{Message: "usuário não encontrado"}
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
