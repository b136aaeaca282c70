// Package supabase provides a client for Supabase (PostgREST + GoTrue).
// It is the hosted backend for property documents and user identity.
package supabase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/boddenberg/leilao-agil-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to the Supabase REST and Auth APIs.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	anonKey        string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	bh             *resilience.Bulkhead
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client. Table access uses the service role key
// (rows are scoped by user_id in every query); auth calls use the anon key.
// An empty serviceRoleKey falls back to the anon key.
func NewClient(httpClient *http.Client, baseURL, anonKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	if serviceRoleKey == "" {
		serviceRoleKey = anonKey
	}
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		anonKey:        anonKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		bh:             resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:            cfg,
		logger:         logger,
	}
}

// guard runs fn under the bulkhead, the breaker and the retry policy.
// Non-idempotent calls pass retry=false.
func (c *Client) guard(ctx context.Context, service string, retry bool, fn func() error) error {
	cfg := c.cfg
	if !retry {
		cfg.MaxRetries = 0
	}
	return resilience.Guard(ctx, service, c.cb, c.bh, cfg, fn)
}

// apiError is a non-2xx answer from Supabase.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("supabase returned status %d: %s", e.Status, e.Body)
}

// classify marks 4xx answers as permanent so they are neither retried nor
// counted by the breaker as outages.
func classify(err error) error {
	if ae, ok := err.(*apiError); ok && ae.Status >= 400 && ae.Status < 500 {
		return resilience.Permanent(err)
	}
	return err
}
