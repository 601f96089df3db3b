package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	messages []string
}

func (r *recordingSender) Send(msg string) error {
	r.messages = append(r.messages, msg)
	return nil
}

type recordingFirer struct {
	events   []string
	payloads []interface{}
}

func (r *recordingFirer) Fire(event string, payload interface{}) {
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
}

func TestFormatEvent(t *testing.T) {
	msg := formatEvent(EventAnalysisComplete, map[string]interface{}{
		"id": 7, "nodes": 13, "problem": "Should we rewrite the billing service",
	})
	assert.Contains(t, msg, "Analysis #7 completed (13 nodes)")
	assert.Contains(t, msg, "Should we rewrite the billing service")

	msg = formatEvent(EventAnalysisFailed, map[string]interface{}{
		"id": 8, "error": "provider unreachable", "problem": "Expand to EU market",
	})
	assert.Contains(t, msg, "Analysis #8 failed: provider unreachable")

	msg = formatEvent(EventAnalysisLimit, map[string]interface{}{
		"id": 9, "provider": "openai", "problem": "Hire a second team",
	})
	assert.Contains(t, msg, "openai rate limit")
	assert.Contains(t, msg, "Analysis #9")
}

func TestFormatEventFallbacks(t *testing.T) {
	// Unknown event keeps the generic rendering.
	msg := formatEvent("budget.warning", map[string]interface{}{"provider": "openai"})
	assert.Contains(t, msg, "[budget.warning]")

	// Non-map payload keeps the generic rendering too.
	msg = formatEvent(EventAnalysisComplete, "done")
	assert.Contains(t, msg, "[analysis.complete] done")
}

func TestDispatcherSend(t *testing.T) {
	sender := &recordingSender{}
	firer := &recordingFirer{}
	d := New(sender, firer)

	payload := map[string]interface{}{"id": 3, "nodes": 5, "problem": "p"}
	d.Send(EventAnalysisComplete, payload)

	// Telegram gets the rendered message, webhooks the raw payload.
	require.Len(t, sender.messages, 1)
	assert.Contains(t, sender.messages[0], "Analysis #3 completed")
	require.Len(t, firer.events, 1)
	assert.Equal(t, EventAnalysisComplete, firer.events[0])
	assert.Equal(t, payload, firer.payloads[0])
}

func TestDispatcherNilAdapters(t *testing.T) {
	d := New(nil, nil)
	assert.NotPanics(t, func() {
		d.Send(EventAnalysisFailed, map[string]interface{}{"id": 1})
		d.SendTelegram("hello")
	})
}
