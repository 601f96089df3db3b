package tokenizer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/yourusername/decisiond/internal/db"
)

// BudgetZone represents the current daily token usage level for a provider.
type BudgetZone int

const (
	ZoneGreen  BudgetZone = iota // 0–60%: full prompt budget
	ZoneYellow                   // 60–80%: prompts trimmed to 75% of context
	ZoneOrange                   // 80–90%: prompts trimmed to 50% of context
	ZoneRed                      // 90–100%: prompts trimmed to 25% + alert
)

// String returns a human-readable label for the zone.
func (z BudgetZone) String() string {
	switch z {
	case ZoneYellow:
		return "YELLOW"
	case ZoneOrange:
		return "ORANGE"
	case ZoneRed:
		return "RED"
	default:
		return "GREEN"
	}
}

// NotifySender can send a notification message.
type NotifySender interface {
	SendTelegram(msg string)
}

// Governor checks daily token budget zones per provider and triggers alerts
// on zone escalation.
type Governor struct {
	database *db.DB
	notify   NotifySender

	mu sync.Mutex
	// Track last known zone per provider to avoid duplicate alerts.
	lastZone map[string]BudgetZone
}

// NewGovernor creates a new Governor.
func NewGovernor(database *db.DB, notify NotifySender) *Governor {
	return &Governor{
		database: database,
		notify:   notify,
		lastZone: make(map[string]BudgetZone),
	}
}

// GetBudgetZone calculates the current zone for a provider based on today's
// token usage.
func (g *Governor) GetBudgetZone(ctx context.Context, provider string) (BudgetZone, error) {
	today := time.Now().Format("2006-01-02")

	var used int
	err := g.database.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(input_tokens + output_tokens), 0)
		FROM token_usage
		WHERE provider=? AND date=?`, provider, today,
	).Scan(&used)
	if err != nil {
		return ZoneGreen, fmt.Errorf("governor.GetBudgetZone: usage query: %w", err)
	}

	// Fetch budget thresholds; use defaults if not configured.
	var dailyLimit, yellowPct, orangePct, redPct int
	err = g.database.QueryRowContext(ctx, `
		SELECT daily_limit, yellow_pct, orange_pct, red_pct
		FROM token_budgets WHERE provider=?`, provider,
	).Scan(&dailyLimit, &yellowPct, &orangePct, &redPct)
	if err != nil {
		// No budget configured — use defaults.
		dailyLimit = 1_000_000
		yellowPct = 60
		orangePct = 80
		redPct = 90
	}

	if dailyLimit == 0 {
		return ZoneGreen, nil
	}

	pct := (used * 100) / dailyLimit
	switch {
	case pct >= redPct:
		return ZoneRed, nil
	case pct >= orangePct:
		return ZoneOrange, nil
	case pct >= yellowPct:
		return ZoneYellow, nil
	default:
		return ZoneGreen, nil
	}
}

// CheckBudget detects zone changes and sends alerts when thresholds are crossed.
func (g *Governor) CheckBudget(ctx context.Context, provider string) {
	zone, err := g.GetBudgetZone(ctx, provider)
	if err != nil {
		log.Printf("governor.CheckBudget: %v", err)
		return
	}

	g.mu.Lock()
	prev, known := g.lastZone[provider]
	g.lastZone[provider] = zone
	g.mu.Unlock()
	if known && zone <= prev {
		return // No escalation — don't re-alert.
	}

	switch zone {
	case ZoneYellow:
		g.notify.SendTelegram(fmt.Sprintf(
			"⚠️ Provider %s token budget at YELLOW (60%%+). Trimming prompts.", provider))
	case ZoneOrange:
		g.notify.SendTelegram(fmt.Sprintf(
			"🟠 Provider %s token budget at ORANGE (80%%+). Trimming prompts heavily.", provider))
	case ZoneRed:
		g.notify.SendTelegram(fmt.Sprintf(
			"🔴 Provider %s token budget at RED (90%%+). Minimum prompt budget only!", provider))
	}
}

// PromptBudget converts a provider's context window into the per-prompt token
// budget for the given zone.
func PromptBudget(zone BudgetZone, contextTokens int) int {
	switch zone {
	case ZoneYellow:
		return contextTokens * 3 / 4
	case ZoneOrange:
		return contextTokens / 2
	case ZoneRed:
		return contextTokens / 4
	default:
		return contextTokens
	}
}

// RecordUsage saves token usage for an analysis to the token_usage table.
func (g *Governor) RecordUsage(ctx context.Context, analysisID int, provider string, inputTokens, outputTokens int) error {
	today := time.Now().Format("2006-01-02")
	_, err := g.database.ExecContext(ctx, `
		INSERT INTO token_usage (analysis_id, provider, input_tokens, output_tokens, date)
		VALUES (?,?,?,?,?)`,
		analysisID, provider, inputTokens, outputTokens, today,
	)
	if err != nil {
		return fmt.Errorf("governor.RecordUsage: %w", err)
	}
	return nil
}
