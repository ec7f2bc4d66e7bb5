package http

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"wellwq/pkg/contracts"
	v1 "wellwq/pkg/contracts/api/v1"
)

// HealthHandler handles liveness checks
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Health returns service status
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, v1.HealthResponse{
		Status:    "healthy",
		Version:   contracts.AppVersion,
		Timestamp: time.Now().UTC(),
	})
}
