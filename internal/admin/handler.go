package admin

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ayush/card-tracker/backend/internal/auth"
	"github.com/ayush/card-tracker/backend/internal/httpx"
	"github.com/ayush/card-tracker/backend/internal/logging"
)

// Handler serves runtime administration endpoints.
type Handler struct {
	level zap.AtomicLevel
	log   *zap.Logger
}

func NewHandler(level zap.AtomicLevel, log *zap.Logger) *Handler {
	return &Handler{level: level, log: log.Named("admin")}
}

type logLevelResponse struct {
	CurrentLevel    string   `json:"currentLevel"`
	AvailableLevels []string `json:"availableLevels"`
}

type setLevelRequest struct {
	Level string `json:"level"`
}

// GetLogLevel reports the active log level.
func (h *Handler) GetLogLevel(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, logLevelResponse{
		CurrentLevel:    h.level.Level().String(),
		AvailableLevels: logging.Levels,
	})
}

// SetLogLevel changes the log level without a restart.
func (h *Handler) SetLogLevel(w http.ResponseWriter, r *http.Request) {
	var req setLevelRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}

	previous := h.level.Level().String()
	if err := logging.SetLevel(h.level, req.Level); err != nil {
		httpx.JSON(w, http.StatusBadRequest, map[string]any{
			"error":       "invalid log level",
			"validLevels": logging.Levels,
		})
		return
	}

	id, _ := auth.IdentityFrom(r.Context())
	h.log.Info("log level changed",
		zap.String("from", previous),
		zap.String("to", req.Level),
		zap.String("by", id.UserID),
	)
	httpx.JSON(w, http.StatusOK, map[string]string{
		"message":       "log level updated",
		"previousLevel": previous,
		"currentLevel":  h.level.Level().String(),
	})
}

// WhoAmI echoes the caller's identity.
func (h *Handler) WhoAmI(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.Message(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"userId":        id.UserID,
		"role":          id.Role,
		"tokenExpires":  id.ExpiresAt.UTC(),
		"authHeaderSet": r.Header.Get("Authorization") != "",
		"timestamp":     time.Now().UTC(),
	})
}
