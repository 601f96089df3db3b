// Package queue manages the SQLite-backed analysis run queue.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/decisiond/internal/db"
)

// Queue wraps the database and provides analysis queue operations.
type Queue struct {
	database *db.DB
}

// New creates a Queue.
func New(database *db.DB) *Queue {
	return &Queue{database: database}
}

// Enqueue inserts an analysis into the analyses table with status='pending'.
func (q *Queue) Enqueue(ctx context.Context, a *db.Analysis) (int64, error) {
	res, err := q.database.ExecContext(ctx, `
		INSERT INTO analyses (problem, provider, max_depth, breadth, status,
		                      schedule_id, created_at, updated_at)
		VALUES (?,?,?,?,'pending',?,?,?)`,
		a.Problem, a.Provider, a.MaxDepth, a.Breadth, a.ScheduleID,
		time.Now(), time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("queue.Enqueue: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("queue.Enqueue: last insert id: %w", err)
	}
	return id, nil
}

// EnqueueRaw enqueues an analysis from raw fields. Used by the scheduler.
func (q *Queue) EnqueueRaw(ctx context.Context, problem, provider string, maxDepth, breadth int, scheduleID *int) error {
	a := &db.Analysis{
		Problem:  problem,
		Provider: provider,
		MaxDepth: maxDepth,
		Breadth:  breadth,
	}
	if scheduleID != nil {
		a.ScheduleID.Int64 = int64(*scheduleID)
		a.ScheduleID.Valid = true
	}
	_, err := q.Enqueue(ctx, a)
	return err
}

// Dequeue atomically fetches the oldest pending analysis and marks it running.
// Returns nil, nil when the queue is empty.
func (q *Queue) Dequeue(ctx context.Context) (*db.Analysis, error) {
	tx, err := q.database.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("queue.Dequeue: begin tx: %w", err)
	}
	defer tx.Rollback()

	var a db.Analysis
	err = tx.QueryRowContext(ctx, `
		SELECT id, problem, provider, model, max_depth, breadth, status,
		       tree, progress, current_branch, input_tokens, output_tokens,
		       error_message, schedule_id, created_at, updated_at
		FROM analyses
		WHERE status='pending'
		ORDER BY created_at ASC
		LIMIT 1`,
	).Scan(
		&a.ID, &a.Problem, &a.Provider, &a.Model, &a.MaxDepth, &a.Breadth,
		&a.Status, &a.Tree, &a.Progress, &a.CurrentBranch,
		&a.InputTokens, &a.OutputTokens, &a.ErrorMessage, &a.ScheduleID,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		// No rows = queue is empty.
		tx.Rollback()
		return nil, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE analyses SET status='running', updated_at=? WHERE id=?`,
		time.Now(), a.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("queue.Dequeue: update status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("queue.Dequeue: commit: %w", err)
	}

	a.Status = "running"
	return &a, nil
}

// SaveProgress saves the walk position for a running analysis.
func (q *Queue) SaveProgress(ctx context.Context, analysisID, progress int, currentBranch string) error {
	_, err := q.database.ExecContext(ctx, `
		UPDATE analyses SET progress=?, current_branch=?, updated_at=? WHERE id=?`,
		progress, currentBranch, time.Now(), analysisID,
	)
	if err != nil {
		return fmt.Errorf("queue.SaveProgress: %w", err)
	}
	return nil
}

// MarkDone updates an analysis as completed with its tree JSON, model and
// token counts.
func (q *Queue) MarkDone(ctx context.Context, analysisID int, tree, model string, inputTokens, outputTokens int) error {
	_, err := q.database.ExecContext(ctx, `
		UPDATE analyses
		SET status='done', tree=?, model=?, input_tokens=?, output_tokens=?,
		    progress=100, updated_at=?
		WHERE id=?`,
		tree, model, inputTokens, outputTokens, time.Now(), analysisID,
	)
	if err != nil {
		return fmt.Errorf("queue.MarkDone: %w", err)
	}
	return nil
}

// MarkFailed updates an analysis as failed with an error message.
func (q *Queue) MarkFailed(ctx context.Context, analysisID int, errMsg string) error {
	_, err := q.database.ExecContext(ctx, `
		UPDATE analyses SET status='failed', error_message=?, updated_at=? WHERE id=?`,
		errMsg, time.Now(), analysisID,
	)
	if err != nil {
		return fmt.Errorf("queue.MarkFailed: %w", err)
	}
	return nil
}

// UpdateStatus updates only the status field of an analysis.
func (q *Queue) UpdateStatus(ctx context.Context, analysisID int, status string) error {
	_, err := q.database.ExecContext(ctx, `
		UPDATE analyses SET status=?, updated_at=? WHERE id=?`,
		status, time.Now(), analysisID,
	)
	if err != nil {
		return fmt.Errorf("queue.UpdateStatus: %w", err)
	}
	return nil
}

// GetAnalysis fetches an analysis by ID.
func (q *Queue) GetAnalysis(ctx context.Context, analysisID int) (*db.Analysis, error) {
	var a db.Analysis
	err := q.database.QueryRowContext(ctx, `
		SELECT id, problem, provider, model, max_depth, breadth, status,
		       tree, progress, current_branch, input_tokens, output_tokens,
		       error_message, schedule_id, created_at, updated_at
		FROM analyses WHERE id=?`, analysisID,
	).Scan(
		&a.ID, &a.Problem, &a.Provider, &a.Model, &a.MaxDepth, &a.Breadth,
		&a.Status, &a.Tree, &a.Progress, &a.CurrentBranch,
		&a.InputTokens, &a.OutputTokens, &a.ErrorMessage, &a.ScheduleID,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("queue.GetAnalysis: %w", err)
	}
	return &a, nil
}

// ListPending returns all pending analyses, oldest first.
func (q *Queue) ListPending(ctx context.Context) ([]db.Analysis, error) {
	rows, err := q.database.QueryContext(ctx, `
		SELECT id, problem, provider, model, max_depth, breadth, status,
		       tree, progress, current_branch, input_tokens, output_tokens,
		       error_message, schedule_id, created_at, updated_at
		FROM analyses
		WHERE status='pending'
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("queue.ListPending: %w", err)
	}
	defer rows.Close()
	return scanAnalyses(rows)
}

func scanAnalyses(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}) ([]db.Analysis, error) {
	var analyses []db.Analysis
	for rows.Next() {
		var a db.Analysis
		if err := rows.Scan(
			&a.ID, &a.Problem, &a.Provider, &a.Model, &a.MaxDepth, &a.Breadth,
			&a.Status, &a.Tree, &a.Progress, &a.CurrentBranch,
			&a.InputTokens, &a.OutputTokens, &a.ErrorMessage, &a.ScheduleID,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("queue.scanAnalyses: %w", err)
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}
