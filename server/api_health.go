package server

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

const readinessTimeout = 2 * time.Second

// Check probes one backing dependency.
type Check func(ctx context.Context) error

// HealthAPI answers liveness and readiness probes.
type HealthAPI struct {
	checks map[string]Check
}

// NewHealthAPI creates a HealthAPI. checks are keyed by dependency name.
func NewHealthAPI(checks map[string]Check) HealthAPI {
	return HealthAPI{checks: checks}
}

// Get /health
// Liveness probe
func (api *HealthAPI) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Get /ready
// Readiness probe; 503 names the failing dependencies
func (api *HealthAPI) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	names := lo.Keys(api.checks)
	sort.Strings(names)
	failures := map[string]string{}
	for _, name := range names {
		if err := api.checks[name](ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": failures})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": names})
}
