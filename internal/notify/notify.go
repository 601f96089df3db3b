// Package notify routes analysis lifecycle events to Telegram and webhooks.
package notify

import (
	"fmt"
	"log"
)

// Analysis lifecycle events dispatched by the worker pool.
const (
	EventAnalysisComplete = "analysis.complete"
	EventAnalysisFailed   = "analysis.failed"
	EventAnalysisLimit    = "analysis.limit"
)

// Sender can send a plain text message.
type Sender interface {
	Send(msg string) error
}

// WebhookFirer can fire a webhook event.
type WebhookFirer interface {
	Fire(event string, payload interface{})
}

// Dispatcher routes notification events to Telegram and webhooks.
type Dispatcher struct {
	telegram Sender
	webhook  WebhookFirer
}

// New creates a Dispatcher. Both telegram and webhook may be nil (disabled).
func New(telegram Sender, webhook WebhookFirer) *Dispatcher {
	return &Dispatcher{telegram: telegram, webhook: webhook}
}

// Send dispatches a notification event to all configured adapters. Telegram
// receives a rendered message, webhooks the raw payload.
func (d *Dispatcher) Send(event string, payload interface{}) {
	msg := formatEvent(event, payload)
	if d.telegram != nil {
		if err := d.telegram.Send(msg); err != nil {
			log.Printf("notify: telegram send: %v", err)
		}
	}
	if d.webhook != nil {
		d.webhook.Fire(event, payload)
	}
}

// SendTelegram sends a message only via Telegram.
func (d *Dispatcher) SendTelegram(msg string) {
	if d.telegram == nil {
		return
	}
	if err := d.telegram.Send(msg); err != nil {
		log.Printf("notify: telegram: %v", err)
	}
}

// formatEvent renders an analysis event as a human-readable message. Unknown
// events fall back to a generic rendering.
func formatEvent(event string, payload interface{}) string {
	fields, ok := payload.(map[string]interface{})
	if !ok {
		return fmt.Sprintf("[%s] %v", event, payload)
	}
	switch event {
	case EventAnalysisComplete:
		return fmt.Sprintf("✅ Analysis #%v completed (%v nodes)\n%v",
			fields["id"], fields["nodes"], fields["problem"])
	case EventAnalysisFailed:
		return fmt.Sprintf("❌ Analysis #%v failed: %v\n%v",
			fields["id"], fields["error"], fields["problem"])
	case EventAnalysisLimit:
		return fmt.Sprintf("⚠️ Analysis #%v parked: %v rate limit\n%v",
			fields["id"], fields["provider"], fields["problem"])
	default:
		return fmt.Sprintf("[%s] %v", event, payload)
	}
}
