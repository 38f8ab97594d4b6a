package httpapi

import (
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HealthHandler 存活探针（无鉴权）
type HealthHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewHealthHandler(db *sql.DB, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// GET /health
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	database := "disabled"
	status := "ok"

	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			h.logger.Warn("database ping failed", zap.Error(err))
			database = "disconnected"
			status = "degraded"
		} else {
			database = "connected"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  database,
	})
}
