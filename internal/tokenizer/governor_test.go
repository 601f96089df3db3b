package tokenizer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/decisiond/internal/db"
)

type fakeSender struct {
	messages []string
}

func (f *fakeSender) SendTelegram(msg string) {
	f.messages = append(f.messages, msg)
}

func setupGovernorDB(t *testing.T) (*db.DB, int) {
	t.Helper()
	tmp := filepath.Join(os.TempDir(), "decisiond_test_governor.db")
	t.Cleanup(func() { os.Remove(tmp) })

	database, err := db.New(tmp)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())

	res, err := database.Exec(`INSERT INTO analyses (problem) VALUES ('test problem')`)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return database, int(id)
}

func TestPromptBudget(t *testing.T) {
	assert.Equal(t, 1000, PromptBudget(ZoneGreen, 1000))
	assert.Equal(t, 750, PromptBudget(ZoneYellow, 1000))
	assert.Equal(t, 500, PromptBudget(ZoneOrange, 1000))
	assert.Equal(t, 250, PromptBudget(ZoneRed, 1000))
}

func TestGovernor_ZoneTransitions(t *testing.T) {
	database, analysisID := setupGovernorDB(t)
	ctx := context.Background()

	_, err := database.Exec(`
		INSERT INTO token_budgets (provider, daily_limit) VALUES ('openai', 1000)`)
	require.NoError(t, err)

	g := NewGovernor(database, &fakeSender{})

	zone, err := g.GetBudgetZone(ctx, "openai")
	require.NoError(t, err)
	assert.Equal(t, ZoneGreen, zone)

	// 600/1000 = 60% → yellow.
	require.NoError(t, g.RecordUsage(ctx, analysisID, "openai", 400, 200))
	zone, err = g.GetBudgetZone(ctx, "openai")
	require.NoError(t, err)
	assert.Equal(t, ZoneYellow, zone)

	// 800/1000 = 80% → orange.
	require.NoError(t, g.RecordUsage(ctx, analysisID, "openai", 150, 50))
	zone, err = g.GetBudgetZone(ctx, "openai")
	require.NoError(t, err)
	assert.Equal(t, ZoneOrange, zone)

	// 950/1000 = 95% → red.
	require.NoError(t, g.RecordUsage(ctx, analysisID, "openai", 100, 50))
	zone, err = g.GetBudgetZone(ctx, "openai")
	require.NoError(t, err)
	assert.Equal(t, ZoneRed, zone)
}

func TestGovernor_UsageIsPerProvider(t *testing.T) {
	database, analysisID := setupGovernorDB(t)
	ctx := context.Background()

	_, err := database.Exec(`
		INSERT INTO token_budgets (provider, daily_limit) VALUES ('openai', 1000), ('ollama', 1000)`)
	require.NoError(t, err)

	g := NewGovernor(database, &fakeSender{})
	require.NoError(t, g.RecordUsage(ctx, analysisID, "openai", 900, 50))

	zone, err := g.GetBudgetZone(ctx, "ollama")
	require.NoError(t, err)
	assert.Equal(t, ZoneGreen, zone)
}

func TestGovernor_AlertsOnEscalationOnly(t *testing.T) {
	database, analysisID := setupGovernorDB(t)
	ctx := context.Background()

	_, err := database.Exec(`
		INSERT INTO token_budgets (provider, daily_limit) VALUES ('openai', 1000)`)
	require.NoError(t, err)

	sender := &fakeSender{}
	g := NewGovernor(database, sender)

	g.CheckBudget(ctx, "openai")
	assert.Empty(t, sender.messages, "green zone should not alert")

	require.NoError(t, g.RecordUsage(ctx, analysisID, "openai", 500, 150))
	g.CheckBudget(ctx, "openai")
	require.Len(t, sender.messages, 1)
	assert.Contains(t, sender.messages[0], "YELLOW")

	// Same zone again: no duplicate alert.
	g.CheckBudget(ctx, "openai")
	assert.Len(t, sender.messages, 1)

	require.NoError(t, g.RecordUsage(ctx, analysisID, "openai", 300, 50))
	g.CheckBudget(ctx, "openai")
	require.Len(t, sender.messages, 2)
	assert.Contains(t, sender.messages[1], "RED")
}
