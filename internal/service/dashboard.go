package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/leilao-agil-go/internal/domain"
	"github.com/boddenberg/leilao-agil-go/internal/finance"
	"github.com/boddenberg/leilao-agil-go/internal/infra/observability"
	"github.com/boddenberg/leilao-agil-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DashboardService assembles the home screen of a signed-in user.
type DashboardService struct {
	identity   port.IdentityProvider
	properties *PropertyService
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewDashboardService creates the dashboard service.
func NewDashboardService(identity port.IdentityProvider, properties *PropertyService, metrics *observability.Metrics, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		identity:   identity,
		properties: properties,
		metrics:    metrics,
		logger:     logger,
	}
}

// Build fetches the user profile and the property list concurrently, then
// returns the greeting, the portfolio cards (over all properties) and the
// filtered, sorted listing.
func (d *DashboardService) Build(ctx context.Context, userID, accessToken string, q domain.ListQuery) (*domain.Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "DashboardService.Build")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() {
		d.metrics.RecordRequestDuration("dashboard", time.Since(start))
	}()

	q = normalizeQuery(q)

	var (
		user  *domain.User
		props []domain.Property
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		u, err := d.identity.GetUser(gCtx, accessToken)
		if err != nil {
			d.logger.Error("failed to fetch user",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			if isExternal(err) {
				d.metrics.IncrExternalError("identity")
			}
			return fmt.Errorf("user fetch: %w", err)
		}
		user = u
		return nil
	})

	g.Go(func() error {
		p, err := d.properties.load(gCtx, userID)
		if err != nil {
			return err
		}
		props = p
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.Dashboard{
		Greeting:   user.GreetingName(),
		Portfolio:  finance.NewPortfolioView(props),
		Properties: finance.NewPropertyViews(finance.FilterAndSort(props, q.Status, q.Sort)),
		Filter:     q.Status,
		Sort:       q.Sort,
	}, nil
}
