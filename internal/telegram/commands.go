package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yourusername/decisiond/internal/db"
)

// CommandHandler handles Telegram bot commands.
type CommandHandler struct {
	database *db.DB
	bot      *Bot
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(database *db.DB) *CommandHandler {
	return &CommandHandler{database: database}
}

// Handle dispatches incoming messages to the correct command handler.
func (h *CommandHandler) Handle(msg *tgbotapi.Message) {
	if msg == nil || !msg.IsCommand() {
		return
	}
	ctx := context.Background()
	switch msg.Command() {
	case "status":
		h.handleStatus(ctx, msg)
	case "runs":
		h.handleRuns(ctx, msg)
	case "analyze":
		h.handleAnalyze(ctx, msg)
	case "cancel":
		h.handleCancel(ctx, msg)
	case "usage":
		h.handleUsage(ctx, msg)
	case "help":
		h.handleHelp(msg)
	default:
		h.bot.reply(msg.Chat.ID, "Unknown command. Use /help for a list of commands.")
	}
}

// HandleCallback processes inline keyboard button presses.
func (h *CommandHandler) HandleCallback(data, queryID string) {
	ctx := context.Background()
	switch {
	case strings.HasPrefix(data, "retry_"):
		// Back to pending — will be picked up after the rate limit window.
		analysisID := 0
		fmt.Sscanf(data, "retry_%d", &analysisID)
		if analysisID > 0 {
			if _, err := h.database.ExecContext(ctx,
				`UPDATE analyses SET status='pending' WHERE id=? AND status='limit'`,
				analysisID); err != nil {
				log.Printf("telegram: retry analysis %d: %v", analysisID, err)
			}
		}
	case strings.HasPrefix(data, "cancel_"):
		analysisID := 0
		fmt.Sscanf(data, "cancel_%d", &analysisID)
		if analysisID > 0 {
			if _, err := h.database.ExecContext(ctx,
				`UPDATE analyses SET status='cancelled', error_message='Cancelled via Telegram' WHERE id=? AND status IN ('pending','limit')`,
				analysisID); err != nil {
				log.Printf("telegram: cancel analysis %d: %v", analysisID, err)
			}
		}
	}
}

func (h *CommandHandler) handleStatus(ctx context.Context, msg *tgbotapi.Message) {
	rows, err := h.database.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM analyses GROUP BY status`)
	if err != nil {
		h.bot.reply(msg.Chat.ID, "Error fetching queue status.")
		return
	}
	defer rows.Close()

	var sb strings.Builder
	sb.WriteString("*Queue Status*\n\n")
	count := 0
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s %s — `%d`\n", statusIcon(status), status, n))
		count++
	}
	if count == 0 {
		sb.WriteString("_No analyses yet._")
	}
	h.bot.reply(msg.Chat.ID, sb.String())
}

func (h *CommandHandler) handleRuns(ctx context.Context, msg *tgbotapi.Message) {
	rows, err := h.database.QueryContext(ctx, `
		SELECT id, problem, status, progress FROM analyses
		WHERE status IN ('pending','running','limit')
		ORDER BY created_at ASC LIMIT 10`)
	if err != nil {
		h.bot.reply(msg.Chat.ID, "Error fetching runs.")
		return
	}
	defer rows.Close()

	var sb strings.Builder
	sb.WriteString("*Active Analyses*\n\n")
	count := 0
	for rows.Next() {
		var id, progress int
		var problem, status string
		if err := rows.Scan(&id, &problem, &status, &progress); err != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("#%d [%s %d%%] %s\n", id, status, progress, truncate(problem, 60)))
		count++
	}
	if count == 0 {
		sb.WriteString("_No active analyses._")
	}
	h.bot.reply(msg.Chat.ID, sb.String())
}

func (h *CommandHandler) handleAnalyze(ctx context.Context, msg *tgbotapi.Message) {
	args := msg.CommandArguments()
	if args == "" {
		h.bot.reply(msg.Chat.ID, "Usage: /analyze <problem statement>")
		return
	}
	provider := h.database.GetSetting("default_provider", "")
	_, err := h.database.ExecContext(ctx,
		`INSERT INTO analyses (problem, provider, status) VALUES (?,?,'pending')`,
		args, provider)
	if err != nil {
		h.bot.reply(msg.Chat.ID, fmt.Sprintf("Error queuing analysis: %v", err))
		return
	}
	h.bot.reply(msg.Chat.ID, "✅ Analysis queued.")
}

func (h *CommandHandler) handleCancel(ctx context.Context, msg *tgbotapi.Message) {
	args := msg.CommandArguments()
	var analysisID int
	if _, err := fmt.Sscanf(args, "%d", &analysisID); err != nil {
		h.bot.reply(msg.Chat.ID, "Usage: /cancel <analysis_id>")
		return
	}
	_, _ = h.database.ExecContext(ctx,
		`UPDATE analyses SET status='cancelled', error_message='Cancelled via Telegram' WHERE id=? AND status IN ('pending','limit')`,
		analysisID)
	h.bot.reply(msg.Chat.ID, fmt.Sprintf("Analysis #%d cancelled.", analysisID))
}

func (h *CommandHandler) handleUsage(ctx context.Context, msg *tgbotapi.Message) {
	today := time.Now().Format("2006-01-02")
	rows, err := h.database.QueryContext(ctx, `
		SELECT provider, SUM(input_tokens), SUM(output_tokens)
		FROM token_usage WHERE date=? GROUP BY provider`, today)
	if err != nil {
		h.bot.reply(msg.Chat.ID, "Error fetching usage.")
		return
	}
	defer rows.Close()

	var sb strings.Builder
	sb.WriteString("*Token Usage Today*\n\n")
	count := 0
	for rows.Next() {
		var provider string
		var in, out int
		if err := rows.Scan(&provider, &in, &out); err != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s — in `%d` / out `%d`\n", provider, in, out))
		count++
	}
	if count == 0 {
		sb.WriteString("_No usage recorded today._")
	}
	h.bot.reply(msg.Chat.ID, sb.String())
}

func (h *CommandHandler) handleHelp(msg *tgbotapi.Message) {
	help := `*decisiond Commands*

/status — Queue status
/runs — Active analyses
/analyze <problem> — Queue an analysis
/cancel <id> — Cancel an analysis
/usage — Today's token usage
/help — This help`
	h.bot.reply(msg.Chat.ID, help)
}

func statusIcon(status string) string {
	switch status {
	case "running":
		return "🟢"
	case "pending":
		return "⚪"
	case "limit":
		return "🟡"
	case "failed":
		return "🔴"
	case "done":
		return "✅"
	default:
		return "⚫"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
