// Package api sets up the HTTP routes and middleware for decisiond's REST API.
package api

import (
	"net/http"

	"github.com/yourusername/decisiond/internal/api/handlers"
	"github.com/yourusername/decisiond/internal/auth"
	"github.com/yourusername/decisiond/internal/config"
	"github.com/yourusername/decisiond/internal/db"
	"github.com/yourusername/decisiond/internal/llm"
	"github.com/yourusername/decisiond/internal/notify"
	"github.com/yourusername/decisiond/internal/queue"
	"github.com/yourusername/decisiond/internal/scheduler"
	"github.com/yourusername/decisiond/internal/webhook"
	"github.com/yourusername/decisiond/internal/worker"
	"github.com/yourusername/decisiond/internal/ws"
)

// Deps holds all dependencies injected into the API handlers.
type Deps struct {
	DB        *db.DB
	Config    *config.Config
	Queue     *queue.Queue
	Pool      *worker.Pool
	Hub       *ws.Hub
	Notify    *notify.Dispatcher
	Webhook   *webhook.Dispatcher
	Scheduler *scheduler.Engine
	Registry  *llm.Registry
}

// SetupRoutes registers all HTTP routes on the given ServeMux.
// Uses Go 1.22 method+pattern routing syntax.
func SetupRoutes(mux *http.ServeMux, deps *Deps) {
	h := handlers.New(deps.DB, deps.Config, deps.Queue, deps.Pool, deps.Hub,
		deps.Notify, deps.Webhook, deps.Scheduler, deps.Registry)

	requireAuth := func(next http.Handler) http.Handler {
		return auth.RequireAPIKey(deps.DB, next)
	}

	// ── Public routes ────────────────────────────────────────────────────────
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("POST /api/v1/auth/logout", h.Logout)

	// ── Protected routes ─────────────────────────────────────────────────────
	// Auth
	mux.Handle("GET /api/v1/auth/me", requireAuth(http.HandlerFunc(h.Me)))

	// Daemon status
	mux.Handle("GET /api/v1/status", requireAuth(http.HandlerFunc(h.Status)))
	mux.Handle("POST /api/v1/daemon/restart", requireAuth(csrfGuard(http.HandlerFunc(h.DaemonRestart))))

	// Analyses
	mux.Handle("GET /api/v1/analyses", requireAuth(http.HandlerFunc(h.ListAnalyses)))
	mux.Handle("POST /api/v1/analyses", requireAuth(csrfGuard(http.HandlerFunc(h.CreateAnalysis))))
	mux.Handle("GET /api/v1/analyses/{id}", requireAuth(http.HandlerFunc(h.GetAnalysis)))
	mux.Handle("DELETE /api/v1/analyses/{id}", requireAuth(csrfGuard(http.HandlerFunc(h.DeleteAnalysis))))
	mux.Handle("GET /api/v1/analyses/{id}/tree", requireAuth(http.HandlerFunc(h.GetAnalysisTree)))
	mux.Handle("POST /api/v1/analyses/{id}/cancel", requireAuth(csrfGuard(http.HandlerFunc(h.CancelAnalysis))))

	// Providers
	mux.Handle("GET /api/v1/providers", requireAuth(http.HandlerFunc(h.ListProviders)))
	mux.Handle("POST /api/v1/providers/{name}/health", requireAuth(csrfGuard(http.HandlerFunc(h.ProviderHealth))))

	// Schedules
	mux.Handle("GET /api/v1/schedules", requireAuth(http.HandlerFunc(h.ListSchedules)))
	mux.Handle("POST /api/v1/schedules", requireAuth(csrfGuard(http.HandlerFunc(h.CreateSchedule))))
	mux.Handle("GET /api/v1/schedules/{id}", requireAuth(http.HandlerFunc(h.GetSchedule)))
	mux.Handle("PUT /api/v1/schedules/{id}", requireAuth(csrfGuard(http.HandlerFunc(h.UpdateSchedule))))
	mux.Handle("DELETE /api/v1/schedules/{id}", requireAuth(csrfGuard(http.HandlerFunc(h.DeleteSchedule))))

	// Webhooks
	mux.Handle("GET /api/v1/webhooks", requireAuth(http.HandlerFunc(h.ListWebhooks)))
	mux.Handle("POST /api/v1/webhooks", requireAuth(csrfGuard(http.HandlerFunc(h.CreateWebhook))))
	mux.Handle("GET /api/v1/webhooks/{id}", requireAuth(http.HandlerFunc(h.GetWebhook)))
	mux.Handle("PUT /api/v1/webhooks/{id}", requireAuth(csrfGuard(http.HandlerFunc(h.UpdateWebhook))))
	mux.Handle("DELETE /api/v1/webhooks/{id}", requireAuth(csrfGuard(http.HandlerFunc(h.DeleteWebhook))))
	mux.Handle("POST /api/v1/webhooks/{id}/test", requireAuth(csrfGuard(http.HandlerFunc(h.TestWebhook))))

	// Logs
	mux.Handle("GET /api/v1/logs", requireAuth(http.HandlerFunc(h.ListLogs)))

	// Usage and budgets
	mux.Handle("GET /api/v1/usage", requireAuth(http.HandlerFunc(h.GetUsage)))
	mux.Handle("GET /api/v1/usage/budgets", requireAuth(http.HandlerFunc(h.ListBudgets)))
	mux.Handle("PUT /api/v1/usage/budgets/{provider}", requireAuth(csrfGuard(http.HandlerFunc(h.UpdateBudget))))

	// Settings
	mux.Handle("GET /api/v1/settings", requireAuth(http.HandlerFunc(h.ListSettings)))
	mux.Handle("PUT /api/v1/settings/{key}", requireAuth(csrfGuard(http.HandlerFunc(h.UpdateSetting))))
}

// csrfGuard enforces X-CSRF-Token header on mutating requests.
func csrfGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-CSRF-Token") == "" {
			http.Error(w, `{"success":false,"error":"missing CSRF token"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
