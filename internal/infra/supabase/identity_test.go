package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/boddenberg/leilao-agil-go/internal/domain"
)

func TestSignIn_PasswordGrant(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if r.Header.Get("Authorization") != "Bearer anon" {
			t.Errorf("anonymous auth calls must use the anon key")
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "ana@example.com" {
			t.Errorf("unexpected body %v", body)
		}
		w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600,"user":{"id":"u1","email":"ana@example.com","user_metadata":{"full_name":"Ana"}}}`))
	})

	s, err := c.SignIn(context.Background(), &domain.LoginRequest{Email: "ana@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.AccessToken != "at" || s.RefreshToken != "rt" || s.ExpiresIn != 3600 {
		t.Errorf("unexpected session: %+v", s)
	}
	if s.User.ID != "u1" || s.User.DisplayName != "Ana" {
		t.Errorf("unexpected user: %+v", s.User)
	}
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	})

	_, err := c.SignIn(context.Background(), &domain.LoginRequest{Email: "a@b.c", Password: "x"})
	var ua *domain.ErrUnauthorized
	if !errors.As(err, &ua) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSignUp_AlreadyRegistered(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"code":422,"msg":"User already registered"}`))
	})

	_, err := c.SignUp(context.Background(), &domain.SignUpRequest{Email: "a@b.c", Password: "secret123"})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestSignUp_WithoutAutoConfirm(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		data, _ := body["data"].(map[string]any)
		if data["display_name"] != "Bia" {
			t.Errorf("expected display name metadata, got %v", body)
		}
		w.Write([]byte(`{"id":"u9","email":"bia@example.com"}`))
	})

	s, err := c.SignUp(context.Background(), &domain.SignUpRequest{Email: "bia@example.com", Password: "secret123", DisplayName: "Bia"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.AccessToken != "" || s.User.ID != "u9" {
		t.Errorf("unexpected session: %+v", s)
	}
}

func TestGetUser_UsesAccessToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":"u1","email":"ana@example.com","user_metadata":{"display_name":"Ana Souza"}}`))
	})

	u, err := c.GetUser(context.Background(), "user-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.GreetingName() != "Ana Souza" {
		t.Errorf("unexpected greeting %q", u.GreetingName())
	}

	_, err = c.GetUser(context.Background(), "stale")
	var ua *domain.ErrUnauthorized
	if !errors.As(err, &ua) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSignOut(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/logout" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.SignOut(context.Background(), "user-token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
