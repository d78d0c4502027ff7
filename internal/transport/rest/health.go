package rest

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthResponse reports overall readiness plus the database check that
// backs it. The payment tables live in the same database, so one ping covers
// the whole write path.
type HealthResponse struct {
	Status    HealthStatus  `json:"status"`
	CheckedAt time.Time     `json:"checked_at"`
	Database  DatabaseCheck `json:"database"`
}

type DatabaseCheck struct {
	Status     HealthStatus `json:"status"`
	Message    string       `json:"message,omitempty"`
	DurationMs int64        `json:"duration_ms"`
}

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// pingHandler answers liveness probes without touching the database.
func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
}

// healthCheckHandler answers readiness probes with a bounded database ping.
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)

	check := DatabaseCheck{
		Status:     HealthHealthy,
		DurationMs: time.Since(start).Milliseconds(),
	}
	statusCode := http.StatusOK
	if err != nil {
		check.Status = HealthUnhealthy
		check.Message = err.Error()
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:    check.Status,
		CheckedAt: time.Now(),
		Database:  check,
	})
}
