// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/leilao-agil-go/internal/domain"
)

// PropertyStore persists the properties of each user.
// Every operation is scoped to userID; a property owned by someone else is
// reported as *domain.ErrNotFound.
type PropertyStore interface {
	ListProperties(ctx context.Context, userID string) ([]domain.Property, error)
	GetProperty(ctx context.Context, userID, propertyID string) (*domain.Property, error)
	CreateProperty(ctx context.Context, userID string, p domain.Property) (*domain.Property, error)
	UpdateProperty(ctx context.Context, userID, propertyID string, p domain.Property) (*domain.Property, error)
	DeleteProperty(ctx context.Context, userID, propertyID string) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

// IdentityProvider authenticates users and issues sessions.
type IdentityProvider interface {
	SignUp(ctx context.Context, req *domain.SignUpRequest) (*domain.Session, error)
	SignIn(ctx context.Context, req *domain.LoginRequest) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*domain.User, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
