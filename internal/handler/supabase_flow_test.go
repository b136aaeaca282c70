package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/leilao-agil-go/internal/domain"
	"github.com/boddenberg/leilao-agil-go/internal/handler"
	"github.com/boddenberg/leilao-agil-go/internal/infra/cache"
	"github.com/boddenberg/leilao-agil-go/internal/infra/jwtauth"
	"github.com/boddenberg/leilao-agil-go/internal/infra/observability"
	"github.com/boddenberg/leilao-agil-go/internal/infra/resilience"
	"github.com/boddenberg/leilao-agil-go/internal/infra/supabase"
	"github.com/boddenberg/leilao-agil-go/internal/service"

	"go.uber.org/zap"
)

// fakeSupabase serves the slice of GoTrue and PostgREST the API relies on.
type fakeSupabase struct {
	t      *testing.T
	secret []byte
	user   domain.User

	mu   sync.Mutex
	rows []map[string]any
	down bool
}

func (f *fakeSupabase) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("apikey") != "anon" {
		f.t.Errorf("%s %s: missing apikey header", r.Method, r.URL.Path)
	}
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/auth/v1/token" && r.Method == http.MethodPost:
		token, err := jwtauth.Sign(f.secret, f.user, time.Hour)
		if err != nil {
			f.t.Fatal(err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  token,
			"refresh_token": "rt-1",
			"expires_in":    3600,
			"user": map[string]any{
				"id": f.user.ID, "email": f.user.Email,
				"user_metadata": map[string]string{"full_name": f.user.DisplayName},
			},
		})

	case r.URL.Path == "/auth/v1/user" && r.Method == http.MethodGet:
		json.NewEncoder(w).Encode(map[string]any{
			"id": f.user.ID, "email": f.user.Email,
			"user_metadata": map[string]string{"full_name": f.user.DisplayName},
		})

	case strings.HasPrefix(r.URL.Path, "/rest/v1/") && f.down:
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"database unavailable"}`))

	case r.URL.Path == "/rest/v1/properties" && r.Method == http.MethodGet:
		if got := r.URL.Query().Get("user_id"); got != "eq."+f.user.ID {
			f.t.Errorf("list not scoped by user: %q", got)
		}
		out := make([]map[string]any, 0, len(f.rows))
		for i := len(f.rows) - 1; i >= 0; i-- {
			out = append(out, f.rows[i])
		}
		json.NewEncoder(w).Encode(out)

	case r.URL.Path == "/rest/v1/properties" && r.Method == http.MethodPost:
		var row map[string]any
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			f.t.Errorf("decode insert: %v", err)
		}
		row["id"] = fmt.Sprintf("00000000-0000-0000-0000-%012d", len(f.rows)+1)
		row["created_at"] = time.Date(2024, 1, 1, 0, 0, len(f.rows), 0, time.UTC).Format(time.RFC3339)
		f.rows = append(f.rows, row)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode([]map[string]any{row})

	default:
		f.t.Errorf("unexpected request %s %s", r.Method, r.URL)
		w.WriteHeader(http.StatusNotFound)
	}
}

func newSupabaseRouter(t *testing.T) (http.Handler, *fakeSupabase) {
	t.Helper()
	fake := &fakeSupabase{
		t:      t,
		secret: []byte(testSecret),
		user:   domain.User{ID: "5f0c3c52-8a1e-4d8e-9a55-2a1d3f1b7c11", Email: "ana@example.com", DisplayName: "Ana Souza"},
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cfg := resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond, MaxConcurrency: 4}
	client := supabase.NewClient(srv.Client(), srv.URL, "anon", "service", resilience.NewCircuitBreaker("test-supabase"), cfg, logger)

	c := cache.New[[]domain.Property](time.Minute)
	t.Cleanup(c.Close)

	props := service.NewPropertyService(client, c, metrics, logger)
	svc := handler.Services{
		Properties: props,
		Dashboard:  service.NewDashboardService(client, props, metrics, logger),
		Auth:       service.NewAuthService(client, testSecret, logger),
	}
	return handler.NewRouter(svc, metrics, nil, logger), fake
}

func TestSupabaseFlow_LoginCreateDashboard(t *testing.T) {
	router, fake := newSupabaseRouter(t)

	rec := do(t, router, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "ana@example.com", "password": "secret123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	session := decode[domain.Session](t, rec)
	if session.User.ID != fake.user.ID {
		t.Fatalf("unexpected session user: %+v", session.User)
	}

	rec = do(t, router, http.MethodPost, "/v1/properties", session.AccessToken, soldBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	created := decode[domain.PropertyView](t, rec)
	if created.ID == "" || created.CreatedAt == nil || !created.Financials.IsSold {
		t.Errorf("unexpected created view: %+v", created)
	}
	if fake.rows[0]["user_id"] != fake.user.ID || fake.rows[0]["sale_date"] != "2024-06-01" {
		t.Errorf("unexpected stored row: %v", fake.rows[0])
	}

	rec = do(t, router, http.MethodGet, "/v1/dashboard?status=Vendido&sort=profit", session.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	dash := decode[domain.Dashboard](t, rec)
	if dash.Greeting != "Ana Souza" || dash.Filter != "Vendido" || dash.Sort != domain.SortProfit {
		t.Errorf("unexpected dashboard header: %+v", dash)
	}
	if len(dash.Properties) != 1 || dash.Portfolio.Display.ExecutedProfitTotal != "R$65.000,00" {
		t.Errorf("unexpected dashboard body: %+v", dash)
	}
}

func TestSupabaseFlow_StoreUnavailable(t *testing.T) {
	router, fake := newSupabaseRouter(t)
	token, err := jwtauth.Sign(fake.secret, fake.user, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	fake.down = true

	rec := do(t, router, http.MethodGet, "/v1/properties", token, nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d: %s", rec.Code, rec.Body)
	}

	rec = do(t, router, http.MethodGet, "/v1/properties/not-a-uuid", token, nil)
	if rec.Code != http.StatusBadGateway && rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected an upstream failure status, got %d", rec.Code)
	}
}
