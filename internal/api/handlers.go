package api

import (
	"context"
	"net/http"

	"reflective-journal/devstart/internal/preflight"

	"github.com/gin-gonic/gin"
)

// checkService is the subset of *preflight.Checker used by the HTTP
// handlers, so test doubles can be injected.
type checkService interface {
	Run(ctx context.Context) (*preflight.Report, error)
	Diagnose(ctx context.Context) *preflight.Report
}

// Handler holds the dependencies shared across all HTTP handlers.
type Handler struct {
	checker checkService
}

// Health handles GET /health. It always returns 200.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"mode":   "shallow",
	})
}

// DeepHealth handles GET /health/deep. Every check runs; the response is 200
// only when all of them pass.
func (h *Handler) DeepHealth(c *gin.Context) {
	report := h.checker.Diagnose(c.Request.Context())

	code := http.StatusOK
	status := "healthy"
	if report.Status != preflight.StatusOK {
		code = http.StatusServiceUnavailable
		status = "unhealthy"
	}

	c.JSON(code, gin.H{
		"status": status,
		"checks": report.Checks,
	})
}

// Ready handles GET /ready. It runs the ordered, short-circuiting preflight
// and returns 200 only if the server could be launched right now.
func (h *Handler) Ready(c *gin.Context) {
	report, err := h.checker.Run(c.Request.Context())
	if err != nil {
		body := gin.H{"ready": false, "error": err.Error()}
		if report != nil {
			if f := report.FirstFailure(); f != nil && f.Hint != "" {
				body["hint"] = f.Hint
			}
		}
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}
