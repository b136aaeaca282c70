package domain

import "time"

// ============================================================
// Auth: Request / Response types
// ============================================================

// SignUpRequest is the body for POST /v1/auth/signup.
type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body for POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// User is the identity as reported by the identity provider.
// ID is the stable identifier every property is scoped by.
type User struct {
	ID          string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// GreetingName is what the dashboard header welcomes the user with.
func (u *User) GreetingName() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// Session is returned by sign-up, login and refresh.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	User         User   `json:"user"`
}

// LocalCredential is a user row of the local (sqlite) identity provider.
type LocalCredential struct {
	User
	PasswordHash string
	CreatedAt    time.Time
}

// RefreshTokenRecord is a hashed refresh token of the local identity provider.
type RefreshTokenRecord struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	Revoked   bool
}
