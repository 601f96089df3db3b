package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/decisiond/internal/db"
)

func setupWebhookDB(t *testing.T) *db.DB {
	t.Helper()
	tmp := filepath.Join(os.TempDir(), "decisiond_test_webhook.db")
	t.Cleanup(func() { os.Remove(tmp) })

	database, err := db.New(tmp)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())
	return database
}

func TestMatchesEvent(t *testing.T) {
	assert.True(t, matchesEvent("analysis.complete,analysis.failed", "analysis.failed"))
	assert.True(t, matchesEvent(" analysis.complete , analysis.limit ", "analysis.limit"))
	assert.False(t, matchesEvent("analysis.complete", "analysis.failed"))
}

func TestTestWebhookDeliversAnalysisPayload(t *testing.T) {
	received := make(chan Payload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "webhook.test", r.Header.Get("X-Decisiond-Event"))
		var p Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err == nil {
			received <- p
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	database := setupWebhookDB(t)
	res, err := database.Exec(
		`INSERT INTO webhooks (name, url, events, secret, enabled) VALUES ('test', ?, '', '', 1)`,
		srv.URL)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	d := New(database)
	require.NoError(t, d.TestWebhook(context.Background(), int(id)))

	p := <-received
	assert.Equal(t, "webhook.test", p.Event)
	fields, ok := p.Analysis.(map[string]interface{})
	require.True(t, ok, "analysis field must be an object")
	assert.Equal(t, "Webhook connectivity test", fields["problem"])
	assert.Equal(t, "done", fields["status"])
}

func TestTestWebhookReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	database := setupWebhookDB(t)
	res, err := database.Exec(
		`INSERT INTO webhooks (name, url, events, secret, enabled) VALUES ('test', ?, '', '', 1)`,
		srv.URL)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	d := New(database)
	err = d.TestWebhook(context.Background(), int(id))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
