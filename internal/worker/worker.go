// Package worker implements the goroutines that execute queued analyses.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/yourusername/decisiond/internal/db"
	"github.com/yourusername/decisiond/internal/limiter"
	"github.com/yourusername/decisiond/internal/llm"
	"github.com/yourusername/decisiond/internal/notify"
	"github.com/yourusername/decisiond/internal/prompts"
	"github.com/yourusername/decisiond/internal/queue"
	"github.com/yourusername/decisiond/internal/tokenizer"
	"github.com/yourusername/decisiond/internal/tree"
	"github.com/yourusername/decisiond/internal/ws"
)

// LimitAlerter sends a rate-limit alert with action buttons. May be a nil
// *telegram.Bot — its methods tolerate a nil receiver.
type LimitAlerter interface {
	SendLimitAlert(provider, problem string, analysisID int) error
}

// Worker pulls analyses from the queue and runs them through the tree engine.
type Worker struct {
	slot      int
	database  *db.DB
	queue     *queue.Queue
	registry  *llm.Registry
	library   *prompts.Library
	governor  *tokenizer.Governor
	hub       *ws.Hub
	notify    *notify.Dispatcher
	alerter   LimitAlerter
	pool      *Pool
	pollEvery time.Duration
}

// New creates a new Worker.
func New(
	slot int,
	database *db.DB,
	q *queue.Queue,
	registry *llm.Registry,
	library *prompts.Library,
	governor *tokenizer.Governor,
	hub *ws.Hub,
	notifier *notify.Dispatcher,
	alerter LimitAlerter,
	pool *Pool,
) *Worker {
	return &Worker{
		slot:      slot,
		database:  database,
		queue:     q,
		registry:  registry,
		library:   library,
		governor:  governor,
		hub:       hub,
		notify:    notifier,
		alerter:   alerter,
		pool:      pool,
		pollEvery: 5 * time.Second,
	}
}

// Run is the main worker loop. Pulls analyses, runs them, sleeps between polls.
// Exits when ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	log.Printf("worker[%d]: started", w.slot)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		analysis, err := w.queue.Dequeue(ctx)
		if err != nil {
			log.Printf("worker[%d]: dequeue error: %v", w.slot, err)
			w.sleepOrExit(ctx, 10*time.Second)
			continue
		}
		if analysis == nil {
			w.sleepOrExit(ctx, w.pollEvery)
			continue
		}

		w.hub.BroadcastLog(analysis.ID, "Starting analysis: "+analysis.Problem, "info")
		w.database.WriteLog(&analysis.ID, "info", "Starting analysis: "+analysis.Problem)

		if err := w.runAnalysis(ctx, analysis); err != nil {
			log.Printf("worker[%d]: analysis %d: %v", w.slot, analysis.ID, err)
		}
	}
}

func (w *Worker) runAnalysis(ctx context.Context, analysis *db.Analysis) error {
	provider, ok := w.registry.Get(analysis.Provider)
	if !ok {
		_ = w.queue.MarkFailed(ctx, analysis.ID, "unknown provider: "+analysis.Provider)
		return fmt.Errorf("worker.runAnalysis: no provider for %q", analysis.Provider)
	}
	if err := provider.HealthCheck(ctx); err != nil {
		msg := fmt.Sprintf("provider health check failed: %v", err)
		_ = w.queue.MarkFailed(ctx, analysis.ID, msg)
		w.notify.SendTelegram(fmt.Sprintf("❌ Analysis #%d: %s", analysis.ID, msg))
		return fmt.Errorf("worker.runAnalysis: %w", err)
	}

	// Shrink the per-prompt budget with the provider's daily budget zone.
	zone, err := w.governor.GetBudgetZone(ctx, provider.Name())
	if err != nil {
		log.Printf("worker[%d]: get budget zone: %v", w.slot, err)
		zone = tokenizer.ZoneGreen
	}
	w.governor.CheckBudget(ctx, provider.Name())
	budget := tokenizer.PromptBudget(zone, provider.ContextTokens())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.pool.trackRun(analysis.ID, cancel)
	defer w.pool.untrackRun(analysis.ID)

	det := limiter.New(provider.Name())
	var limitMu sync.Mutex
	var limitLine string
	onError := func(err error) {
		if !det.DetectLimit(err.Error()) {
			return
		}
		limitMu.Lock()
		if limitLine == "" {
			limitLine = err.Error()
		}
		limitMu.Unlock()
	}

	tally := &tree.UsageTally{}
	builder := tree.NewBuilder(provider, w.library, budget, tally)

	root, err := builder.Build(runCtx, analysis.Problem, analysis.Breadth)
	if err != nil {
		if det.DetectLimit(err.Error()) {
			w.handleRateLimit(ctx, analysis, provider.Name(), err.Error())
			return &limiter.ErrRateLimit{Line: err.Error()}
		}
		_ = w.queue.MarkFailed(ctx, analysis.ID, err.Error())
		w.hub.Broadcast(ws.WSMessage{
			Type:       ws.TypeAnalysisFailed,
			AnalysisID: analysis.ID,
			Message:    err.Error(),
		})
		w.notify.Send(notify.EventAnalysisFailed, map[string]interface{}{
			"id":      analysis.ID,
			"problem": analysis.Problem,
			"error":   err.Error(),
		})
		return fmt.Errorf("worker.runAnalysis: build: %w", err)
	}

	expander := tree.NewExpander(provider, w.library, budget, tally, onError)
	walker := tree.NewWalker(expander, analysis.MaxDepth, analysis.Breadth)

	// Sibling expansions report progress concurrently, so the save throttle
	// must be safe for concurrent use.
	throttle := newSaveThrottle(2 * time.Second)
	onProgress := func(p tree.Progress) {
		w.hub.BroadcastProgress(analysis.ID, p)
		pct := 0
		if p.TotalBranches > 0 {
			pct = p.CompletedBranches * 100 / p.TotalBranches
		}
		if pct > 100 {
			pct = 100
		}
		// Throttle DB writes; the final snapshot lands via MarkDone anyway.
		if throttle.allow() {
			_ = w.queue.SaveProgress(ctx, analysis.ID, pct, p.CurrentBranch)
		}
	}

	result, err := walker.Analyze(runCtx, root, analysis.Problem, onProgress)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			// Only the run context was cancelled: an operator cancel.
			_ = w.queue.UpdateStatus(context.Background(), analysis.ID, "cancelled")
			w.database.WriteLog(&analysis.ID, "info", "Analysis cancelled")
			return nil
		}
		_ = w.queue.MarkFailed(context.Background(), analysis.ID, err.Error())
		return fmt.Errorf("worker.runAnalysis: analyze: %w", err)
	}

	limitMu.Lock()
	hitLimit := limitLine != ""
	line := limitLine
	limitMu.Unlock()
	if hitLimit {
		w.handleRateLimit(ctx, analysis, provider.Name(), line)
		return &limiter.ErrRateLimit{Line: line}
	}

	treeJSON, err := json.Marshal(result)
	if err != nil {
		_ = w.queue.MarkFailed(ctx, analysis.ID, fmt.Sprintf("encode tree: %v", err))
		return fmt.Errorf("worker.runAnalysis: encode tree: %w", err)
	}

	inputTokens, outputTokens := tally.Totals()
	if err := w.queue.MarkDone(ctx, analysis.ID, string(treeJSON), provider.Model(), inputTokens, outputTokens); err != nil {
		return fmt.Errorf("worker.runAnalysis: mark done: %w", err)
	}
	_ = w.governor.RecordUsage(ctx, analysis.ID, provider.Name(), inputTokens, outputTokens)

	w.hub.Broadcast(ws.WSMessage{
		Type:       ws.TypeAnalysisComplete,
		AnalysisID: analysis.ID,
		Message:    fmt.Sprintf("Analysis #%d completed (%d nodes)", analysis.ID, result.CountNodes()),
	})
	w.notify.Send(notify.EventAnalysisComplete, map[string]interface{}{
		"id":      analysis.ID,
		"problem": analysis.Problem,
		"nodes":   result.CountNodes(),
	})
	w.database.WriteLog(&analysis.ID, "info",
		fmt.Sprintf("Analysis completed: %d nodes, %d in / %d out tokens",
			result.CountNodes(), inputTokens, outputTokens))
	return nil
}

func (w *Worker) handleRateLimit(ctx context.Context, analysis *db.Analysis, provider, line string) {
	_ = w.queue.UpdateStatus(ctx, analysis.ID, "limit")
	w.hub.Broadcast(ws.WSMessage{
		Type:       ws.TypeRateLimit,
		AnalysisID: analysis.ID,
		Message:    line,
	})
	w.notify.Send(notify.EventAnalysisLimit, map[string]interface{}{
		"id":       analysis.ID,
		"problem":  analysis.Problem,
		"provider": provider,
		"line":     line,
	})
	if w.alerter != nil {
		_ = w.alerter.SendLimitAlert(provider, analysis.Problem, analysis.ID)
	}
}

func (w *Worker) sleepOrExit(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// saveThrottle rate-limits progress persistence. The progress callback fires
// from concurrent goroutines, so the last-save timestamp is mutex-guarded.
type saveThrottle struct {
	mu    sync.Mutex
	last  time.Time
	every time.Duration
}

func newSaveThrottle(every time.Duration) *saveThrottle {
	return &saveThrottle{last: time.Now(), every: every}
}

// allow reports whether enough time has passed since the last allowed call,
// and if so records now as the last-save time. At most one concurrent caller
// wins per interval.
func (t *saveThrottle) allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if time.Since(t.last) < t.every {
		return false
	}
	t.last = time.Now()
	return true
}
