package handlers

import (
	"net/http"
	"time"

	"github.com/yourusername/decisiond/internal/db"
)

type usageRow struct {
	Date         string `json:"date"`
	Provider     string `json:"provider"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	TotalTokens  int    `json:"total_tokens"`
}

// GetUsage handles GET /api/v1/usage.
// Query params: period=daily|weekly|monthly, provider.
func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	period := q.Get("period")
	if period == "" {
		period = "daily"
	}

	var since string
	now := time.Now()
	switch period {
	case "weekly":
		since = now.AddDate(0, 0, -7).Format("2006-01-02")
	case "monthly":
		since = now.AddDate(0, -1, 0).Format("2006-01-02")
	default:
		since = now.Format("2006-01-02")
	}

	query := `SELECT date, provider,
		SUM(input_tokens), SUM(output_tokens), SUM(input_tokens+output_tokens)
		FROM token_usage WHERE date >= ?`
	args := []interface{}{since}

	if v := q.Get("provider"); v != "" {
		query += " AND provider=?"
		args = append(args, v)
	}
	query += " GROUP BY date, provider ORDER BY date DESC"

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		fail(w, http.StatusInternalServerError, "query: "+err.Error())
		return
	}
	defer rows.Close()

	var results []usageRow
	for rows.Next() {
		var u usageRow
		if err := rows.Scan(&u.Date, &u.Provider,
			&u.InputTokens, &u.OutputTokens, &u.TotalTokens); err != nil {
			continue
		}
		results = append(results, u)
	}
	ok(w, map[string]interface{}{
		"period": period,
		"since":  since,
		"rows":   results,
	})
}

// ListBudgets handles GET /api/v1/usage/budgets.
func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, provider, daily_limit, yellow_pct, orange_pct, red_pct, alert_telegram, created_at
		FROM token_budgets ORDER BY provider`)
	if err != nil {
		fail(w, http.StatusInternalServerError, "query: "+err.Error())
		return
	}
	defer rows.Close()

	var budgets []db.TokenBudget
	for rows.Next() {
		var b db.TokenBudget
		if err := rows.Scan(&b.ID, &b.Provider, &b.DailyLimit, &b.YellowPct,
			&b.OrangePct, &b.RedPct, &b.AlertTelegram, &b.CreatedAt); err != nil {
			continue
		}
		budgets = append(budgets, b)
	}
	ok(w, budgets)
}

// UpdateBudget handles PUT /api/v1/usage/budgets/{provider}.
func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	provider := pathID(r, "provider")
	if provider == "" {
		fail(w, http.StatusBadRequest, "invalid provider")
		return
	}
	var req struct {
		DailyLimit    int  `json:"daily_limit"`
		YellowPct     int  `json:"yellow_pct"`
		OrangePct     int  `json:"orange_pct"`
		RedPct        int  `json:"red_pct"`
		AlertTelegram bool `json:"alert_telegram"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.DailyLimit < 0 {
		fail(w, http.StatusBadRequest, "daily_limit must not be negative")
		return
	}
	if req.YellowPct == 0 {
		req.YellowPct = 60
	}
	if req.OrangePct == 0 {
		req.OrangePct = 80
	}
	if req.RedPct == 0 {
		req.RedPct = 90
	}
	alert := 0
	if req.AlertTelegram {
		alert = 1
	}
	if _, err := h.db.ExecContext(r.Context(), `
		INSERT INTO token_budgets (provider, daily_limit, yellow_pct, orange_pct, red_pct, alert_telegram)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(provider) DO UPDATE SET
			daily_limit=excluded.daily_limit, yellow_pct=excluded.yellow_pct,
			orange_pct=excluded.orange_pct, red_pct=excluded.red_pct,
			alert_telegram=excluded.alert_telegram`,
		provider, req.DailyLimit, req.YellowPct, req.OrangePct, req.RedPct, alert); err != nil {
		fail(w, http.StatusInternalServerError, "upsert: "+err.Error())
		return
	}
	ok(w, map[string]string{"message": "updated"})
}
