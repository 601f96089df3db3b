// decisiond — bounded decision-tree analysis daemon.
// Entry point: wires all packages and starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourusername/decisiond/internal/api"
	"github.com/yourusername/decisiond/internal/auth"
	"github.com/yourusername/decisiond/internal/config"
	"github.com/yourusername/decisiond/internal/db"
	"github.com/yourusername/decisiond/internal/llm"
	"github.com/yourusername/decisiond/internal/notify"
	"github.com/yourusername/decisiond/internal/platform"
	"github.com/yourusername/decisiond/internal/prompts"
	"github.com/yourusername/decisiond/internal/queue"
	"github.com/yourusername/decisiond/internal/scheduler"
	"github.com/yourusername/decisiond/internal/telegram"
	"github.com/yourusername/decisiond/internal/tokenizer"
	"github.com/yourusername/decisiond/internal/webhook"
	"github.com/yourusername/decisiond/internal/worker"
	"github.com/yourusername/decisiond/internal/ws"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "install-service" {
		installService()
		return
	}

	log.Printf("decisiond %s starting…", Version)

	// ── 1. Load configuration ────────────────────────────────────────────────
	cfg := config.Load()
	log.Printf("Config: port=%s workDir=%s provider=%s", cfg.Port, cfg.WorkDir, cfg.DefaultProvider)

	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		log.Println("⚠  No .env found — using built-in defaults (admin / changeme, port 8080)")
	}

	// ── 2. Ensure work directories exist ────────────────────────────────────
	for _, dir := range []string{cfg.WorkDir, cfg.PromptsDir} {
		if err := platform.EnsureDir(dir); err != nil {
			log.Fatalf("EnsureDir %s: %v", dir, err)
		}
	}

	// ── 3. Open database + migrate ───────────────────────────────────────────
	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("db.New: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("db.Migrate: %v", err)
	}
	log.Printf("Database ready: %s", cfg.DBPath)

	// Root context — cancelled on shutdown signal.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── 4. Seed default admin user ───────────────────────────────────────────
	if err := auth.SeedAdmin(ctx, database, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("SeedAdmin: %v", err)
	}

	// ── 5. Prompt library + tokenizer ────────────────────────────────────────
	library := prompts.Load(cfg.PromptsDir)
	counter := tokenizer.NewCounter()
	trimmer := tokenizer.NewTrimmer(counter, cfg.MinChunkSize)

	// ── 6. Provider registry ─────────────────────────────────────────────────
	registry := llm.NewRegistry(cfg.DefaultProvider)
	if p := llm.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIContextTokens, trimmer); p != nil {
		registry.Register(p)
	}
	if p := llm.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.OllamaContextTokens, trimmer); p != nil {
		registry.Register(p)
	}
	if len(registry.List()) == 0 {
		log.Println("⚠  No providers configured — set OPENAI_API_KEY or OLLAMA_BASE_URL")
	} else {
		log.Printf("Providers: %v (default=%s)", registry.List(), cfg.DefaultProvider)
	}

	// ── 7. WebSocket hub ─────────────────────────────────────────────────────
	hub := ws.NewHub()
	go hub.Run(ctx)

	// ── 8. Telegram bot ──────────────────────────────────────────────────────
	cmdHandler := telegram.NewCommandHandler(database)
	bot, err := telegram.New(cfg.TelegramToken, cfg.TelegramChatID, cmdHandler)
	if err != nil {
		log.Printf("Telegram init error (continuing without Telegram): %v", err)
	}
	if bot != nil {
		go bot.Start(ctx)
		log.Printf("Telegram bot started (chatID=%d)", cfg.TelegramChatID)
	}

	// ── 9. Notify + Webhook dispatchers ─────────────────────────────────────
	webhookDispatcher := webhook.New(database)
	notifier := notify.New(telegramSender(bot), webhookDispatcher)

	// ── 10. Token governor ───────────────────────────────────────────────────
	governor := tokenizer.NewGovernor(database, notifier)

	// ── 11. Analysis queue + worker pool ────────────────────────────────────
	analysisQueue := queue.New(database)
	pool := worker.NewPool(database, analysisQueue, registry, library, governor, hub, notifier, bot)
	pool.Start(ctx, cfg.PoolSize)
	log.Printf("Worker pool started (%d slots)", cfg.PoolSize)

	// ── 12. Cron scheduler ───────────────────────────────────────────────────
	schedEngine := scheduler.New(database, analysisQueue)
	if err := schedEngine.Start(ctx, cfg.RetentionDays); err != nil {
		log.Printf("scheduler.Start: %v", err)
	}

	// ── 13. HTTP router ──────────────────────────────────────────────────────
	mux := http.NewServeMux()

	api.SetupRoutes(mux, &api.Deps{
		DB:        database,
		Config:    cfg,
		Queue:     analysisQueue,
		Pool:      pool,
		Hub:       hub,
		Notify:    notifier,
		Webhook:   webhookDispatcher,
		Scheduler: schedEngine,
		Registry:  registry,
	})

	// WebSocket endpoint.
	mux.HandleFunc("GET /ws", hub.ServeWS)

	// Recovery + logging middleware.
	handler := loggingMiddleware(recoveryMiddleware(mux))

	// ── 14. Start HTTP server ────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received %s — shutting down…", sig)
		cancel() // Cancel all running analyses.

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		pool.Stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}
	}()

	log.Printf("decisiond listening on http://0.0.0.0:%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("ListenAndServe: %v", err)
	}
	log.Printf("decisiond stopped.")
}

// installService writes the OS service definition and prints next steps.
func installService() {
	exe, err := os.Executable()
	if err != nil {
		log.Fatalf("install-service: %v", err)
	}
	path, content := platform.InstallServiceFile(platform.ServiceConfig{
		Name:        "decisiond",
		DisplayName: "decisiond",
		Description: "Decision-tree analysis daemon",
		ExecPath:    exe,
		WorkDir:     platform.DefaultWorkDir(),
	})
	if path == "" {
		log.Fatalf("install-service: not supported for %s (use sc.exe on Windows)", platform.ServiceManager())
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		log.Fatalf("install-service: write %s: %v", path, err)
	}
	log.Printf("Service file written: %s (%s)", path, platform.ServiceManager())
}

// loggingMiddleware logs each request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// recoveryMiddleware recovers from panics and returns 500.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				log.Printf("panic: %v", rv)
				http.Error(w, `{"success":false,"error":"internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// telegramSender wraps *telegram.Bot to implement notify.Sender.
// Returns nil if bot is nil (Telegram disabled).
func telegramSender(bot *telegram.Bot) notify.Sender {
	if bot == nil {
		return nil
	}
	return bot
}
