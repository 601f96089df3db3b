// Package limiter detects rate limit signals in provider API errors.
package limiter

import "strings"

// Common rate limit patterns per provider.
var patterns = map[string][]string{
	"openai": {
		"rate limit",
		"rate_limit",
		"too many requests",
		"429",
		"insufficient_quota",
		"overloaded",
	},
	"ollama": {
		"timeout",
		"connection refused",
		"model is loading",
	},
}

// Detector checks error messages for rate limit signals.
type Detector struct {
	provider string
	keywords []string
}

// New creates a Detector for the given provider.
func New(provider string) *Detector {
	kws := patterns[provider]
	if kws == nil {
		kws = patterns["openai"]
	}
	return &Detector{provider: provider, keywords: kws}
}

// DetectLimit returns true if the message contains a rate limit signal.
func (d *Detector) DetectLimit(msg string) bool {
	lower := strings.ToLower(msg)
	for _, kw := range d.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ErrRateLimit is returned by a worker when a rate limit is detected.
type ErrRateLimit struct {
	Line string
}

func (e *ErrRateLimit) Error() string {
	return "rate limit detected: " + e.Line
}
