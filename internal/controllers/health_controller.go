package controllers

import (
	"context"
	"fmt"
	"net/http"
	"standbot/internal/live"
	"standbot/internal/providers"
	"time"

	json "github.com/goccy/go-json"
)

const pingTimeout = 2 * time.Second

// StoragePinger is the readiness probe of the totals database.
type StoragePinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	slot      *live.Slot
	storage   StoragePinger
	logger    providers.Logger
	startTime time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Storage       string  `json:"storage"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	LiveSession   bool    `json:"live_session"`
	LiveSince     int64   `json:"live_since,omitempty"`
	LiveOwner     int64   `json:"live_owner,omitempty"`
}

// Health answers 200 while the totals database is reachable and 503
// ("degraded") otherwise. The live session is reported either way.
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:        "ok",
		Storage:       "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
	}
	code := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()
	if err := hc.storage.Ping(ctx); err != nil {
		hc.logger.Warnf(providers.TypeHTTP, "Health check: %v", err)
		resp.Status = "degraded"
		resp.Storage = "unreachable"
		code = http.StatusServiceUnavailable
	}

	if session := hc.slot.Load(); session != nil {
		resp.LiveSession = true
		resp.LiveSince = session.Start
		resp.LiveOwner = session.Owner
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(slot *live.Slot, storage StoragePinger, logger providers.Logger) *HealthController {
	return &HealthController{
		slot:      slot,
		storage:   storage,
		logger:    logger,
		startTime: time.Now(),
	}
}
