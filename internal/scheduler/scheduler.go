// Package scheduler wraps robfig/cron to manage scheduled analysis runs.
package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yourusername/decisiond/internal/db"
)

// AnalysisEnqueuer can enqueue a new analysis run.
type AnalysisEnqueuer interface {
	EnqueueRaw(ctx context.Context, problem, provider string, maxDepth, breadth int, scheduleID *int) error
}

// Engine manages the cron scheduler.
type Engine struct {
	cron     *cron.Cron
	database *db.DB
	enqueuer AnalysisEnqueuer
	entries  map[int]cron.EntryID
}

// New creates a new cron-based Engine.
func New(database *db.DB, enqueuer AnalysisEnqueuer) *Engine {
	return &Engine{
		cron:     cron.New(cron.WithSeconds()),
		database: database,
		enqueuer: enqueuer,
		entries:  make(map[int]cron.EntryID),
	}
}

// Start begins the cron engine, loads all enabled schedules, and registers
// the nightly retention prune.
func (e *Engine) Start(ctx context.Context, retentionDays int) error {
	if err := e.LoadSchedules(ctx); err != nil {
		return fmt.Errorf("scheduler.Start: %w", err)
	}
	if retentionDays > 0 {
		// Daily at 03:30.
		if _, err := e.cron.AddFunc("0 30 3 * * *", func() {
			e.prune(retentionDays)
		}); err != nil {
			return fmt.Errorf("scheduler.Start: retention job: %w", err)
		}
	}
	e.cron.Start()
	go func() {
		<-ctx.Done()
		e.cron.Stop()
	}()
	return nil
}

// LoadSchedules loads all enabled schedules from the DB and registers cron jobs.
func (e *Engine) LoadSchedules(ctx context.Context) error {
	rows, err := e.database.QueryContext(ctx,
		`SELECT id, cron_expr, problem, provider, max_depth, breadth FROM schedules WHERE enabled=1`)
	if err != nil {
		return fmt.Errorf("scheduler.LoadSchedules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s db.Schedule
		if err := rows.Scan(&s.ID, &s.CronExpr, &s.Problem, &s.Provider, &s.MaxDepth, &s.Breadth); err != nil {
			log.Printf("scheduler: scan schedule: %v", err)
			continue
		}
		if err := e.addJob(s); err != nil {
			log.Printf("scheduler: add job %d: %v", s.ID, err)
		}
	}
	return rows.Err()
}

// AddJob registers a new schedule in the cron engine.
func (e *Engine) AddJob(ctx context.Context, scheduleID int) error {
	var s db.Schedule
	err := e.database.QueryRowContext(ctx,
		`SELECT id, cron_expr, problem, provider, max_depth, breadth FROM schedules WHERE id=?`,
		scheduleID,
	).Scan(&s.ID, &s.CronExpr, &s.Problem, &s.Provider, &s.MaxDepth, &s.Breadth)
	if err != nil {
		return fmt.Errorf("scheduler.AddJob: %w", err)
	}
	return e.addJob(s)
}

// RemoveJob deregisters a schedule from the cron engine.
func (e *Engine) RemoveJob(scheduleID int) {
	if entryID, ok := e.entries[scheduleID]; ok {
		e.cron.Remove(entryID)
		delete(e.entries, scheduleID)
	}
}

func (e *Engine) addJob(s db.Schedule) error {
	schedID := s.ID
	entryID, err := e.cron.AddFunc(s.CronExpr, func() {
		ctx := context.Background()
		if err := e.enqueuer.EnqueueRaw(ctx, s.Problem, s.Provider, s.MaxDepth, s.Breadth, &schedID); err != nil {
			log.Printf("scheduler: enqueue for schedule %d: %v", schedID, err)
			return
		}
		_, _ = e.database.Exec(
			`UPDATE schedules SET last_run=? WHERE id=?`, time.Now(), schedID)
		// Update next_run using cron next computation.
		e.updateNextRun(schedID)
	})
	if err != nil {
		return fmt.Errorf("scheduler.addJob: parse cron: %w", err)
	}
	e.entries[s.ID] = entryID
	e.updateNextRun(s.ID)
	return nil
}

func (e *Engine) updateNextRun(scheduleID int) {
	if entryID, ok := e.entries[scheduleID]; ok {
		entry := e.cron.Entry(entryID)
		if !entry.Next.IsZero() {
			_, _ = e.database.Exec(
				`UPDATE schedules SET next_run=? WHERE id=?`,
				entry.Next, scheduleID,
			)
		}
	}
}

// prune deletes finished analyses and their logs older than the retention window.
func (e *Engine) prune(retentionDays int) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	res, err := e.database.Exec(
		`DELETE FROM analyses WHERE status IN ('done','failed','cancelled') AND updated_at < ?`, cutoff)
	if err != nil {
		log.Printf("scheduler: prune analyses: %v", err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("scheduler: pruned %d analyses older than %d days", n, retentionDays)
	}
	_, _ = e.database.Exec(`DELETE FROM logs WHERE created_at < ?`, cutoff)
}

// NullInt converts a *int to sql.NullInt64.
func NullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
