package handler

import (
	"net/http"

	"github.com/boddenberg/leilao-agil-go/internal/domain"
	"github.com/boddenberg/leilao-agil-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Imóveis
// ============================================================

func listPropertiesHandler(svc *service.PropertyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/properties")
		defer span.End()

		q := parseListQuery(r)
		span.SetAttributes(attribute.String("filter.status", q.Status), attribute.String("sort.key", string(q.Sort)))

		views, err := svc.List(ctx, UserIDFromContext(ctx), q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"properties": views,
			"filter":     q.Status,
			"sort":       q.Sort,
			"count":      len(views),
		})
	}
}

func getPropertyHandler(svc *service.PropertyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/properties/{propertyId}")
		defer span.End()

		view, err := svc.Get(ctx, UserIDFromContext(ctx), chi.URLParam(r, "propertyId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, view)
	}
}

func createPropertyHandler(svc *service.PropertyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/properties")
		defer span.End()

		var in domain.PropertyInput
		if !decodeBody(w, r, &in) {
			return
		}

		view, err := svc.Create(ctx, UserIDFromContext(ctx), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, view)
	}
}

func updatePropertyHandler(svc *service.PropertyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/properties/{propertyId}")
		defer span.End()

		var in domain.PropertyInput
		if !decodeBody(w, r, &in) {
			return
		}

		view, err := svc.Update(ctx, UserIDFromContext(ctx), chi.URLParam(r, "propertyId"), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, view)
	}
}

func deletePropertyHandler(svc *service.PropertyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/properties/{propertyId}")
		defer span.End()

		id := chi.URLParam(r, "propertyId")
		if err := svc.Delete(ctx, UserIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Imóvel excluído", ID: id})
	}
}

func previewPropertyHandler(svc *service.PropertyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/properties/preview")
		defer span.End()

		var in domain.PropertyInput
		if !decodeBody(w, r, &in) {
			return
		}

		writeJSON(w, http.StatusOK, svc.Preview(&in))
	}
}

func portfolioSummaryHandler(svc *service.PropertyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/portfolio/summary")
		defer span.End()

		view, err := svc.Portfolio(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, view)
	}
}
