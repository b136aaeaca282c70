package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/leilao-agil-go/internal/domain"
	"github.com/boddenberg/leilao-agil-go/internal/infra/observability"
	"github.com/boddenberg/leilao-agil-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles what the router serves. A nil AuthService disables every
// protected route.
type Services struct {
	Properties *service.PropertyService
	Dashboard  *service.DashboardService
	Auth       *service.AuthService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, metrics *observability.Metrics, corsOrigins []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc.Properties, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", metrics.Handler())

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		if svc.Auth == nil {
			r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "identity provider not configured")
			}))
			return
		}

		// =============================================
		// Autenticação
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authSignUpHandler(svc.Auth, logger))
			r.Post("/login", authLoginHandler(svc.Auth, logger))
			r.Post("/refresh", authRefreshHandler(svc.Auth, logger))

			r.Group(func(r chi.Router) {
				r.Use(JWTAuthMiddleware(svc.Auth, logger))
				r.Post("/logout", authLogoutHandler(svc.Auth, logger))
				r.Get("/me", authMeHandler(svc.Auth, logger))
			})
		})

		// =============================================
		// Imóveis, carteira e dashboard (protected)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svc.Auth, logger))

			r.Route("/properties", func(r chi.Router) {
				r.Get("/", listPropertiesHandler(svc.Properties, logger))
				r.Post("/", createPropertyHandler(svc.Properties, logger))
				r.Post("/preview", previewPropertyHandler(svc.Properties, logger))
				r.Get("/{propertyId}", getPropertyHandler(svc.Properties, logger))
				r.Put("/{propertyId}", updatePropertyHandler(svc.Properties, logger))
				r.Delete("/{propertyId}", deletePropertyHandler(svc.Properties, logger))
			})

			r.Get("/portfolio/summary", portfolioSummaryHandler(svc.Properties, logger))
			r.Get("/dashboard", dashboardHandler(svc.Dashboard, logger))
			r.Get("/metrics/service", serviceMetricsHandler(metrics))
		})
	})

	return r
}

func healthzHandler(props *service.PropertyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "leilao-api", Status: "healthy", LastChecked: now},
		}

		if props != nil {
			start := time.Now()
			err := props.Ping(ctx)
			status := "healthy"
			if err != nil {
				logger.Warn("health: store probe failed", zap.Error(err))
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "store", Status: status, LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overallStatus = s.Status
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func serviceMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
