package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/yourusername/decisiond/internal/db"
)

type analysisInput struct {
	Problem  string `json:"problem"`
	Provider string `json:"provider"`
	MaxDepth *int   `json:"max_depth"`
	Breadth  *int   `json:"breadth"`
}

// ListAnalyses handles GET /api/v1/analyses.
func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := r.URL.Query().Get("status")
	limit := 50
	page := 1
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	offset := (page - 1) * limit

	// The tree column is omitted here — it can be large. Fetch it via
	// GET /api/v1/analyses/{id}/tree.
	query := `SELECT id, problem, provider, model, max_depth, breadth, status,
		progress, current_branch, input_tokens, output_tokens,
		error_message, schedule_id, created_at, updated_at FROM analyses`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status=?`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		fail(w, http.StatusInternalServerError, "query: "+err.Error())
		return
	}
	defer rows.Close()

	var analyses []db.Analysis
	for rows.Next() {
		var a db.Analysis
		if err := rows.Scan(&a.ID, &a.Problem, &a.Provider, &a.Model, &a.MaxDepth,
			&a.Breadth, &a.Status, &a.Progress, &a.CurrentBranch,
			&a.InputTokens, &a.OutputTokens, &a.ErrorMessage, &a.ScheduleID,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			continue
		}
		analyses = append(analyses, a)
	}

	var total int
	countQ := `SELECT COUNT(*) FROM analyses`
	if status != "" {
		countQ += ` WHERE status=?`
		_ = h.db.QueryRowContext(ctx, countQ, status).Scan(&total)
	} else {
		_ = h.db.QueryRowContext(ctx, countQ).Scan(&total)
	}

	okPaginated(w, analyses, total, page, limit)
}

// CreateAnalysis handles POST /api/v1/analyses.
func (h *Handler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisInput
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Problem == "" {
		fail(w, http.StatusBadRequest, "problem is required")
		return
	}

	maxDepth := h.config.DefaultMaxDepth
	if req.MaxDepth != nil {
		maxDepth = *req.MaxDepth
	}
	if maxDepth < 0 || maxDepth > 4 {
		fail(w, http.StatusBadRequest, "max_depth must be between 0 and 4")
		return
	}
	breadth := h.config.DefaultBreadth
	if req.Breadth != nil {
		breadth = *req.Breadth
	}
	if breadth < 1 || breadth > 8 {
		fail(w, http.StatusBadRequest, "breadth must be between 1 and 8")
		return
	}
	if req.Provider != "" {
		if _, found := h.registry.Get(req.Provider); !found {
			fail(w, http.StatusBadRequest, "unknown provider: "+req.Provider)
			return
		}
	}

	a := &db.Analysis{
		Problem:  req.Problem,
		Provider: req.Provider,
		MaxDepth: maxDepth,
		Breadth:  breadth,
	}
	id, err := h.queue.Enqueue(r.Context(), a)
	if err != nil {
		fail(w, http.StatusInternalServerError, "enqueue: "+err.Error())
		return
	}
	ok(w, map[string]int64{"id": id})
}

// GetAnalysis handles GET /api/v1/analyses/{id}.
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(pathID(r, "id"))
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	a, err := h.queue.GetAnalysis(r.Context(), id)
	if err != nil {
		fail(w, http.StatusNotFound, "analysis not found")
		return
	}
	a.Tree = "" // served separately
	ok(w, a)
}

// DeleteAnalysis handles DELETE /api/v1/analyses/{id}.
func (h *Handler) DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(pathID(r, "id"))
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var status string
	if err := h.db.QueryRowContext(r.Context(),
		`SELECT status FROM analyses WHERE id=?`, id).Scan(&status); err != nil {
		fail(w, http.StatusNotFound, "analysis not found")
		return
	}
	if status == "running" {
		fail(w, http.StatusConflict, "cancel the analysis before deleting it")
		return
	}
	if _, err := h.db.ExecContext(r.Context(), `DELETE FROM analyses WHERE id=?`, id); err != nil {
		fail(w, http.StatusInternalServerError, "delete: "+err.Error())
		return
	}
	ok(w, map[string]string{"message": "deleted"})
}

// GetAnalysisTree handles GET /api/v1/analyses/{id}/tree.
func (h *Handler) GetAnalysisTree(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(pathID(r, "id"))
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var tree string
	if err := h.db.QueryRowContext(r.Context(),
		`SELECT tree FROM analyses WHERE id=?`, id).Scan(&tree); err != nil {
		fail(w, http.StatusNotFound, "analysis not found")
		return
	}
	if tree == "" {
		fail(w, http.StatusNotFound, "tree not available yet")
		return
	}
	ok(w, json.RawMessage(tree))
}

// CancelAnalysis handles POST /api/v1/analyses/{id}/cancel.
func (h *Handler) CancelAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(pathID(r, "id"))
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var status string
	if err := h.db.QueryRowContext(r.Context(),
		`SELECT status FROM analyses WHERE id=?`, id).Scan(&status); err != nil {
		fail(w, http.StatusNotFound, "analysis not found")
		return
	}

	switch status {
	case "running":
		if !h.pool.Cancel(id) {
			fail(w, http.StatusConflict, "analysis is not running in this process")
			return
		}
	case "pending", "limit":
		if err := h.queue.UpdateStatus(r.Context(), id, "cancelled"); err != nil {
			fail(w, http.StatusInternalServerError, "update: "+err.Error())
			return
		}
	default:
		fail(w, http.StatusConflict, "analysis already finished")
		return
	}
	ok(w, map[string]string{"message": "cancelled"})
}
