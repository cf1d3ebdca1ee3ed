package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/ayush/card-tracker/backend/internal/httpx"
)

// Pinger is a backing service that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Info describes the running service.
type Info struct {
	Environment string
	Port        int
	Version     string
	APIPath     string
}

// Handler serves the info and health endpoints.
type Handler struct {
	info   Info
	checks map[string]Pinger
}

func NewHandler(info Info, checks map[string]Pinger) *Handler {
	return &Handler{info: info, checks: checks}
}

// Root is the service banner.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":     "Card tracker API",
		"environment": h.info.Environment,
		"port":        h.info.Port,
		"status":      "operational",
	})
}

// Health is the liveness probe. Always returns 200.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.info.Environment,
		"version":     h.info.Version,
	})
}

// ComponentStatus is the status of one backing service.
type ComponentStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Databases pings every backing service: 200 if all respond, 503 if not.
func (h *Handler) Databases(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	components := make(map[string]ComponentStatus, len(h.checks))
	overall := "ok"
	for name, p := range h.checks {
		start := time.Now()
		if err := p.Ping(ctx); err != nil {
			components[name] = ComponentStatus{Status: "down", Error: err.Error()}
			overall = "down"
			continue
		}
		components[name] = ComponentStatus{Status: "ok", Latency: time.Since(start).String()}
	}

	status := http.StatusOK
	if overall != "ok" {
		status = http.StatusServiceUnavailable
	}
	httpx.JSON(w, status, map[string]any{
		"status":     overall,
		"components": components,
		"timestamp":  time.Now().UTC(),
	})
}

var endpoints = []string{
	"POST /auth/register",
	"POST /auth/login",
	"POST /auth/logout",
	"GET /auth/profile",
	"GET /cards",
	"GET /cards/stat",
	"POST /cards/stat/export",
	"GET /cards/stat/exports",
	"GET /cards/{id}",
	"POST /cards",
	"PUT /cards/{id}",
	"DELETE /cards/{id}",
	"GET /admin/all",
	"GET /admin/stats",
	"GET /admin/log-level",
	"POST /admin/log-level",
	"GET /debug/whoami",
}

// Index lists the API routes relative to the API path.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	httpx.JSON(w, http.StatusOK, map[string]any{
		"basePath":  h.info.APIPath,
		"version":   h.info.Version,
		"endpoints": endpoints,
		"backends":  names,
	})
}
