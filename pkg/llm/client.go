package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/semaphore"
)

const chatCompletionsSuffix = "/chat/completions"

// Client issues one-shot chat completions. A process-wide semaphore
// bounds concurrent upstream requests across all in-flight sessions.
type Client struct {
	httpClient *http.Client
	sem        *semaphore.Weighted
	maxRetries int
	timeout    time.Duration
	catalog    *catalogCache
	log        *slog.Logger
}

// Config holds client construction settings.
type Config struct {
	// MaxConcurrentRequests bounds simultaneous upstream HTTP requests.
	MaxConcurrentRequests int
	// RequestTimeout is the default per-attempt budget; every retry
	// gets a fresh one.
	RequestTimeout time.Duration
	// MaxRetries is the total number of attempts, inclusive of the first.
	MaxRetries int
}

// NewClient creates an upstream client.
func NewClient(cfg Config) *Client {
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = 10
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 180 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	return &Client{
		// No transport timeout: each attempt carries its own context
		// deadline set in Query.
		httpClient: &http.Client{},
		sem:        semaphore.NewWeighted(int64(cfg.MaxConcurrentRequests)),
		maxRetries: cfg.MaxRetries,
		timeout:    cfg.RequestTimeout,
		catalog:    newCatalogCache(catalogTTL),
		log:        slog.With("component", "llm"),
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			Reasoning string `json:"reasoning,omitempty"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Query sends one chat completion and returns the result, or nil on
// any failure. Failures never propagate as errors so that sibling
// calls in the same stage can still succeed. Transient conditions
// (timeouts, 429, 5xx) are retried with exponential backoff and
// jitter, bounded by the configured attempt count.
func (c *Client) Query(ctx context.Context, model string, messages []Message, apiKey, baseURL string, opts QueryOptions) *Result {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	attempt := 0
	var result *Result

	// Each attempt runs under its own deadline so a connect or read
	// timeout leaves room for the retries; the caller's context bounds
	// the call as a whole.
	operation := func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		res, err := c.attempt(attemptCtx, model, messages, apiKey, baseURL, opts.Temperature)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		result = res
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries-1)),
		ctx,
	)

	if err := backoff.Retry(operation, bo); err != nil {
		c.log.Warn("Upstream call failed",
			"model", model,
			"attempts", attempt,
			"error", err)
		return nil
	}
	return result
}

// attempt performs a single HTTP request. Retryable failures are
// returned as plain errors; permanent ones are wrapped with
// backoff.Permanent so the retry loop stops.
func (c *Client) attempt(ctx context.Context, model string, messages []Message, apiKey, baseURL string, temperature *float64) (*Result, error) {
	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, completionsURL(baseURL), bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	// The permit is held per attempt, not across backoff sleeps, so a
	// retrying call does not starve other sessions.
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	c.sem.Release(1)
	if err != nil {
		// Connect and read timeouts land here and are retryable; the
		// retry loop stops them once the caller's context is done.
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("upstream returned %d: %s", resp.StatusCode, truncateBody(data))
		if retryableStatus(resp.StatusCode) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("malformed response: %w", err))
	}
	if parsed.Error != nil {
		return nil, backoff.Permanent(fmt.Errorf("upstream error: %s", parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return nil, backoff.Permanent(fmt.Errorf("response contains no choices"))
	}

	return &Result{
		Content:   parsed.Choices[0].Message.Content,
		Reasoning: parsed.Choices[0].Message.Reasoning,
	}, nil
}

// retryableStatus reports whether an HTTP status warrants a retry:
// 429 and all 5xx. Other 4xx are permanent.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// completionsURL normalizes a base URL to its chat-completions
// endpoint. Tenants may configure either the full endpoint or the API
// root.
func completionsURL(baseURL string) string {
	if strings.HasSuffix(baseURL, chatCompletionsSuffix) {
		return baseURL
	}
	return strings.TrimRight(baseURL, "/") + chatCompletionsSuffix
}

func truncateBody(data []byte) string {
	const max = 200
	s := string(data)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
