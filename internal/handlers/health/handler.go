package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/handlers"
)

const pingTimeout = 2 * time.Second

// Check is one dependency probed by /healthz
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthHandler struct {
	checks []Check
	logger primary.Logger
}

func NewHealthHandler(logger primary.Logger, checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks, logger: logger}
}

func (h *HealthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	code := http.StatusOK
	for _, c := range h.checks {
		if err := c.Ping(ctx); err != nil {
			h.logger.Warn("Health check failed", "check", c.Name, "error", err)
			status[c.Name] = "down"
			code = http.StatusServiceUnavailable
			continue
		}
		status[c.Name] = "up"
	}

	overall := "ok"
	if code != http.StatusOK {
		overall = "degraded"
	}
	handlers.ResponseWithJson(w, code, map[string]interface{}{"status": overall, "checks": status})
}
