package handlers

import (
	"context"
	"net/http"
	"time"
)

// ListProviders handles GET /api/v1/providers.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	type providerInfo struct {
		Name          string `json:"name"`
		Model         string `json:"model"`
		ContextTokens int    `json:"context_tokens"`
	}
	var out []providerInfo
	for _, name := range h.registry.List() {
		p, found := h.registry.Get(name)
		if !found {
			continue
		}
		out = append(out, providerInfo{
			Name:          p.Name(),
			Model:         p.Model(),
			ContextTokens: p.ContextTokens(),
		})
	}
	ok(w, out)
}

// ProviderHealth handles POST /api/v1/providers/{name}/health.
func (h *Handler) ProviderHealth(w http.ResponseWriter, r *http.Request) {
	name := pathID(r, "name")
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()
	if err := h.registry.HealthCheck(ctx, name); err != nil {
		fail(w, http.StatusBadGateway, "health check failed: "+err.Error())
		return
	}
	ok(w, map[string]string{"message": "healthy"})
}
