package handler

import (
	"net/http"

	"github.com/boddenberg/leilao-agil-go/internal/service"

	"go.uber.org/zap"
)

func dashboardHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		dash, err := svc.Build(ctx, UserIDFromContext(ctx), accessTokenFromContext(ctx), parseListQuery(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, dash)
	}
}
