package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/eshaffer321/zenmoney-reconcile/internal/api/dto"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	check func() error
}

// NewHealthHandler creates a new health handler. check may be nil.
func NewHealthHandler(check func() error) *HealthHandler {
	return &HealthHandler{check: check}
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	response := dto.NewHealthResponse()
	status := http.StatusOK
	if h.check != nil {
		if err := h.check(); err != nil {
			response.Status = "degraded"
			response.Error = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
