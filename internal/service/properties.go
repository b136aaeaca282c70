package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/leilao-agil-go/internal/domain"
	"github.com/boddenberg/leilao-agil-go/internal/finance"
	"github.com/boddenberg/leilao-agil-go/internal/infra/observability"
	"github.com/boddenberg/leilao-agil-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/properties")

const propertiesCache = "properties"

// PropertyService manages a user's auction properties and derives their
// financial figures.
type PropertyService struct {
	store   port.PropertyStore
	cache   port.Cache[[]domain.Property]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewPropertyService creates the property service with all dependencies injected.
func NewPropertyService(
	store port.PropertyStore,
	cache port.Cache[[]domain.Property],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *PropertyService {
	return &PropertyService{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

func cacheKey(userID string) string {
	return fmt.Sprintf("%s:%s", propertiesCache, userID)
}

// load returns every property of the user, newest first, from the cache when
// possible.
func (s *PropertyService) load(ctx context.Context, userID string) ([]domain.Property, error) {
	if cached, ok := s.cache.Get(cacheKey(userID)); ok {
		s.metrics.IncrCacheHit(propertiesCache)
		return cached, nil
	}
	s.metrics.IncrCacheMiss(propertiesCache)

	start := time.Now()
	props, err := s.store.ListProperties(ctx, userID)
	s.metrics.RecordRequestDuration("store.list", time.Since(start))
	if err != nil {
		s.storeFailed(ctx, "list properties", userID, err)
		return nil, fmt.Errorf("list properties: %w", err)
	}
	s.cache.Set(cacheKey(userID), props)
	return props, nil
}

func isExternal(err error) bool {
	var ext *domain.ErrExternalService
	return errors.As(err, &ext)
}

func (s *PropertyService) storeFailed(ctx context.Context, op, userID string, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	if isExternal(err) {
		span.SetStatus(codes.Error, op)
		s.metrics.IncrExternalError("store")
	}
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		s.logger.Error("store call failed",
			zap.String("op", op),
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

func normalizeQuery(q domain.ListQuery) domain.ListQuery {
	if q.Status == "" {
		q.Status = domain.StatusFilterAll
	}
	if q.Sort == "" {
		q.Sort = domain.SortRecency
	}
	return q
}

// List returns the user's properties filtered by status and sorted by key,
// each with its financial summary.
func (s *PropertyService) List(ctx context.Context, userID string, q domain.ListQuery) ([]domain.PropertyView, error) {
	ctx, span := tracer.Start(ctx, "PropertyService.List")
	defer span.End()
	q = normalizeQuery(q)
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("filter.status", q.Status),
		attribute.String("sort.key", string(q.Sort)),
	)

	props, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return finance.NewPropertyViews(finance.FilterAndSort(props, q.Status, q.Sort)), nil
}

// Get returns one property with its derived figures.
func (s *PropertyService) Get(ctx context.Context, userID, propertyID string) (*domain.PropertyView, error) {
	ctx, span := tracer.Start(ctx, "PropertyService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("property.id", propertyID))

	p, err := s.store.GetProperty(ctx, userID, propertyID)
	if err != nil {
		s.storeFailed(ctx, "get property", userID, err)
		return nil, fmt.Errorf("get property: %w", err)
	}
	view := finance.NewPropertyView(*p)
	return &view, nil
}

// Create validates the input and stores a new property for the user.
func (s *PropertyService) Create(ctx context.Context, userID string, in *domain.PropertyInput) (*domain.PropertyView, error) {
	ctx, span := tracer.Start(ctx, "PropertyService.Create")
	defer span.End()

	p, err := in.Normalize()
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateProperty(ctx, userID, p)
	if err != nil {
		s.storeFailed(ctx, "create property", userID, err)
		return nil, fmt.Errorf("create property: %w", err)
	}
	s.cache.Delete(cacheKey(userID))
	s.metrics.IncrPropertyMutation("create")

	s.logger.Info("property created",
		zap.String("user_id", userID),
		zap.String("property_id", created.ID),
	)
	view := finance.NewPropertyView(*created)
	return &view, nil
}

// Update validates the input and replaces the editable fields of a property.
func (s *PropertyService) Update(ctx context.Context, userID, propertyID string, in *domain.PropertyInput) (*domain.PropertyView, error) {
	ctx, span := tracer.Start(ctx, "PropertyService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("property.id", propertyID))

	p, err := in.Normalize()
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateProperty(ctx, userID, propertyID, p)
	if err != nil {
		s.storeFailed(ctx, "update property", userID, err)
		return nil, fmt.Errorf("update property: %w", err)
	}
	s.cache.Delete(cacheKey(userID))
	s.metrics.IncrPropertyMutation("update")

	s.logger.Info("property updated",
		zap.String("user_id", userID),
		zap.String("property_id", propertyID),
	)
	view := finance.NewPropertyView(*updated)
	return &view, nil
}

// Delete removes a property of the user.
func (s *PropertyService) Delete(ctx context.Context, userID, propertyID string) error {
	ctx, span := tracer.Start(ctx, "PropertyService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("property.id", propertyID))

	if err := s.store.DeleteProperty(ctx, userID, propertyID); err != nil {
		s.storeFailed(ctx, "delete property", userID, err)
		return fmt.Errorf("delete property: %w", err)
	}
	s.cache.Delete(cacheKey(userID))
	s.metrics.IncrPropertyMutation("delete")

	s.logger.Info("property deleted",
		zap.String("user_id", userID),
		zap.String("property_id", propertyID),
	)
	return nil
}

// Preview computes the figures of unsaved form data. Incomplete or invalid
// amounts count as 0, so the preview updates while the user types.
func (s *PropertyService) Preview(in *domain.PropertyInput) domain.PropertyView {
	return finance.NewPropertyView(in.Draft())
}

// Portfolio aggregates all properties of the user, regardless of any filter.
func (s *PropertyService) Portfolio(ctx context.Context, userID string) (*domain.PortfolioView, error) {
	ctx, span := tracer.Start(ctx, "PropertyService.Portfolio")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	props, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := finance.NewPortfolioView(props)
	return &view, nil
}

// Ping probes the store for health checks.
func (s *PropertyService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
