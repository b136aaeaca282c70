package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/leilao-agil-go/internal/domain"
)

// --- Mocks ---

type mockStore struct {
	mu        sync.Mutex
	props     map[string][]domain.Property
	listCalls int
	listErr   error
	nextID    int
}

func newMockStore() *mockStore {
	return &mockStore{props: map[string][]domain.Property{}}
}

func (m *mockStore) ListProperties(_ context.Context, userID string) ([]domain.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Property, len(m.props[userID]))
	copy(out, m.props[userID])
	return out, nil
}

func (m *mockStore) GetProperty(_ context.Context, userID, id string) (*domain.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.props[userID] {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "property", ID: id}
}

func (m *mockStore) CreateProperty(_ context.Context, userID string, p domain.Property) (*domain.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	now := time.Unix(int64(1700000000+m.nextID), 0)
	p.ID = fmt.Sprintf("p%d", m.nextID)
	p.UserID = userID
	p.CreatedAt = &now
	m.props[userID] = append([]domain.Property{p}, m.props[userID]...)
	return &p, nil
}

func (m *mockStore) UpdateProperty(_ context.Context, userID, id string, p domain.Property) (*domain.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, old := range m.props[userID] {
		if old.ID == id {
			p.ID, p.UserID, p.CreatedAt = old.ID, userID, old.CreatedAt
			m.props[userID][i] = p
			return &p, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "property", ID: id}
}

func (m *mockStore) DeleteProperty(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.props[userID] {
		if p.ID == id {
			m.props[userID] = append(m.props[userID][:i], m.props[userID][i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "property", ID: id}
}

func (m *mockStore) Ping(context.Context) error { return nil }

type mockIdentity struct {
	user    *domain.User
	session *domain.Session
	err     error

	signedOut string
}

func (m *mockIdentity) SignUp(_ context.Context, req *domain.SignUpRequest) (*domain.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Session{AccessToken: "at", User: domain.User{ID: "u1", Email: req.Email, DisplayName: req.DisplayName}}, nil
}

func (m *mockIdentity) SignIn(context.Context, *domain.LoginRequest) (*domain.Session, error) {
	return m.session, m.err
}

func (m *mockIdentity) Refresh(context.Context, string) (*domain.Session, error) {
	return m.session, m.err
}

func (m *mockIdentity) SignOut(_ context.Context, accessToken string) error {
	m.signedOut = accessToken
	return m.err
}

func (m *mockIdentity) GetUser(context.Context, string) (*domain.User, error) {
	return m.user, m.err
}
