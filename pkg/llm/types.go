// Package llm is the upstream client for OpenAI-compatible chat
// completion providers: one-shot completions with retry and bounded
// concurrency, plus a per-base-URL model-catalog cache.
package llm

import "time"

// Message is one chat message sent upstream.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Result is a successful completion. Reasoning carries provider
// reasoning details when the upstream exposes them.
type Result struct {
	Content   string `json:"content"`
	Reasoning string `json:"reasoning,omitempty"`
}

// QueryOptions tune a single Query call.
type QueryOptions struct {
	// Temperature overrides the provider default when non-nil.
	Temperature *float64
	// Timeout bounds each attempt; retries start a fresh one. Zero
	// means the client-wide default.
	Timeout time.Duration
}

// ModelInfo is one catalog entry from the provider's models listing.
type ModelInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}
