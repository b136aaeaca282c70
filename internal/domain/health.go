package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// ServiceMetrics is returned by GET /v1/metrics/service.
type ServiceMetrics struct {
	PropertiesCreated float64 `json:"propertiesCreated"`
	PropertiesUpdated float64 `json:"propertiesUpdated"`
	PropertiesDeleted float64 `json:"propertiesDeleted"`
	ExternalErrors    float64 `json:"externalErrors"`
	CacheHitRate      float64 `json:"cacheHitRate"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
