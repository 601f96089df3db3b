package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/yourusername/decisiond/internal/platform"
)

// Status handles GET /api/v1/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := time.Now().Format("2006-01-02")

	var pendingAnalyses, completedToday, rateLimitsToday int

	_ = h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM analyses WHERE status='pending'`).Scan(&pendingAnalyses)
	_ = h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM analyses WHERE status='done' AND DATE(updated_at)=?`, today).Scan(&completedToday)
	_ = h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM analyses WHERE status='limit' AND DATE(updated_at)=?`, today).Scan(&rateLimitsToday)

	ok(w, map[string]interface{}{
		"active_runs":       h.pool.ActiveRuns(),
		"pending_analyses":  pendingAnalyses,
		"completed_today":   completedToday,
		"rate_limits_today": rateLimitsToday,
		"providers":         h.registry.List(),
		"ws_clients":        h.hub.ClientCount(),
		"uptime":            time.Now().Format(time.RFC3339),
	})
}

// DaemonRestart handles POST /api/v1/daemon/restart.
// It re-executes the binary after letting the HTTP response flush.
func (h *Handler) DaemonRestart(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]string{"message": "restarting"})

	go func() {
		time.Sleep(500 * time.Millisecond)
		log.Println("Restarting decisiond…")
		if err := platform.Restart(); err != nil {
			log.Printf("platform.Restart: %v", err)
		}
	}()
}
