package queue

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/decisiond/internal/db"
)

func TestQueue_EnqueueDequeue(t *testing.T) {
	// Use temp file for SQLite.
	tmp := filepath.Join(os.TempDir(), "decisiond_test_queue.db")
	defer os.Remove(tmp)

	database, err := db.New(tmp)
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, database.Migrate())

	q := New(database)
	ctx := context.Background()

	// Enqueue an analysis.
	a := &db.Analysis{
		Problem:  "Should we rewrite the billing service",
		Provider: "openai",
		MaxDepth: 2,
		Breadth:  3,
	}
	id, err := q.Enqueue(ctx, a)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	// Dequeue it.
	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Should we rewrite the billing service", got.Problem)
	assert.Equal(t, "running", got.Status)
	assert.Equal(t, 2, got.MaxDepth)
	assert.Equal(t, 3, got.Breadth)

	// Queue should now be empty.
	empty, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty)

	// Mark done.
	err = q.MarkDone(ctx, got.ID, `{"id":"r"}`, "gpt-4o", 10, 6)
	require.NoError(t, err)

	done, err := q.GetAnalysis(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, "done", done.Status)
	assert.Equal(t, 100, done.Progress)
	assert.Equal(t, `{"id":"r"}`, done.Tree)
	assert.Equal(t, "gpt-4o", done.Model)
}

func TestQueue_MarkFailed(t *testing.T) {
	tmp := filepath.Join(os.TempDir(), "decisiond_test_fail.db")
	defer os.Remove(tmp)

	database, err := db.New(tmp)
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, database.Migrate())

	q := New(database)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, &db.Analysis{Problem: "fail me", MaxDepth: 1, Breadth: 2})
	require.NoError(t, err)

	a, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, a)

	err = q.MarkFailed(ctx, int(id), "rate limit detected")
	require.NoError(t, err)

	got, err := q.GetAnalysis(ctx, int(id))
	require.NoError(t, err)
	assert.Equal(t, "failed", got.Status)
	assert.Equal(t, "rate limit detected", got.ErrorMessage)
}

func TestQueue_SaveProgress(t *testing.T) {
	tmp := filepath.Join(os.TempDir(), "decisiond_test_progress.db")
	defer os.Remove(tmp)

	database, err := db.New(tmp)
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, database.Migrate())

	q := New(database)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, &db.Analysis{Problem: "track me", MaxDepth: 2, Breadth: 2})
	require.NoError(t, err)

	require.NoError(t, q.SaveProgress(ctx, int(id), 40, "root -> option 1"))

	got, err := q.GetAnalysis(ctx, int(id))
	require.NoError(t, err)
	assert.Equal(t, 40, got.Progress)
	assert.Equal(t, "root -> option 1", got.CurrentBranch)
}
