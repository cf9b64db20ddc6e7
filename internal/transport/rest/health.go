package rest

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/frahmantamala/goal-tracker/internal"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

type HealthHandler struct {
	db          *sql.DB
	mailEnabled bool
	timezone    string
}

func NewHealthHandler(db *sql.DB, mailEnabled bool, timezone string) *HealthHandler {
	return &HealthHandler{db: db, mailEnabled: mailEnabled, timezone: timezone}
}

// pingHandler is the liveness probe.
func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	writeHealthJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// healthCheckHandler is the readiness probe; only the database can fail it.
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := internal.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	start := time.Now()
	db := CheckEntry{Status: HealthHealthy}
	if h.db == nil {
		db.Status = HealthUnhealthy
		db.Message = "database not configured"
	} else if err := h.db.PingContext(ctx); err != nil {
		db.Status = HealthUnhealthy
		db.Message = err.Error()
	} else {
		stats := h.db.Stats()
		db.Details = map[string]any{"open_connections": stats.OpenConnections, "in_use": stats.InUse}
	}
	db.CheckedAt = time.Now()
	db.DurationMs = time.Since(start).Milliseconds()

	notifier := CheckEntry{
		Status:    HealthHealthy,
		CheckedAt: time.Now(),
		Details:   map[string]any{"email_enabled": h.mailEnabled, "timezone": h.timezone},
	}

	resp := HealthResponse{
		Status:     db.Status,
		CheckedAt:  time.Now(),
		Components: map[string]CheckEntry{"postgres": db, "notifications": notifier},
	}

	statusCode := http.StatusOK
	if db.Status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeHealthJSON(w, statusCode, resp)
}

func writeHealthJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
