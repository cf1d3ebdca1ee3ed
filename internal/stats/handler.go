package stats

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ayush/card-tracker/backend/internal/auth"
	"github.com/ayush/card-tracker/backend/internal/httpx"
)

// Handler serves the statistics endpoints.
type Handler struct {
	agg      *Aggregator
	exporter *Exporter
	log      *zap.Logger
}

func NewHandler(agg *Aggregator, exporter *Exporter, log *zap.Logger) *Handler {
	return &Handler{agg: agg, exporter: exporter, log: log}
}

// Stats returns the caller's report.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.Message(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	report, err := h.agg.ComputeStats(r.Context(), id.UserID)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

// Global returns the report over all users' cards.
func (h *Handler) Global(w http.ResponseWriter, r *http.Request) {
	report, err := h.agg.ComputeGlobalStats(r.Context())
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.Message(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	exp, err := h.exporter.Export(r.Context(), id.UserID)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, exp)
}

func (h *Handler) ListExports(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.Message(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	keys, err := h.exporter.List(r.Context(), id.UserID)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string][]string{"exports": keys})
}
