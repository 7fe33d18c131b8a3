package handlers

import (
	"net/http"

	"github.com/feedbird/feedbird/backend/internal/errors"
	"github.com/feedbird/feedbird/backend/internal/sync"
	"github.com/gin-gonic/gin"
)

// CronHandler exposes the sync entrypoint to the external scheduler. The
// trigger mechanism is deliberately thin: it runs one invocation and relays
// the structured result.
type CronHandler struct {
	entrypoint *sync.Entrypoint
}

// NewCronHandler creates a cron handler
func NewCronHandler(entrypoint *sync.Entrypoint) *CronHandler {
	return &CronHandler{entrypoint: entrypoint}
}

// RunAnalyticsSync handles POST /api/v1/cron/analytics-sync
func (h *CronHandler) RunAnalyticsSync(c *gin.Context) {
	result := h.entrypoint.Run(c.Request.Context())

	if result.Success {
		c.JSON(http.StatusOK, result)
		return
	}

	c.JSON(statusFor(errors.ErrorKind(result.Error)), result)
}

// statusFor maps fatal error kinds onto HTTP status codes
func statusFor(kind errors.ErrorKind) int {
	switch kind {
	case errors.KindConfig:
		return http.StatusInternalServerError
	case errors.KindConnectivity:
		return http.StatusServiceUnavailable
	case errors.KindRunLocked:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
