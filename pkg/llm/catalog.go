package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// catalogTTL is how long a model-catalog snapshot stays fresh.
const catalogTTL = 60 * time.Minute

// catalogCache is a thread-safe TTL cache of model catalogs keyed by
// base URL alone — never by api key — so tenants sharing a provider
// share cache validity but not credentials. Expired entries are
// cleaned up lazily on get.
type catalogCache struct {
	mu      sync.RWMutex
	entries map[string]*catalogEntry
	ttl     time.Duration
}

type catalogEntry struct {
	models    []ModelInfo
	fetchedAt time.Time
}

func newCatalogCache(ttl time.Duration) *catalogCache {
	return &catalogCache{
		entries: make(map[string]*catalogEntry),
		ttl:     ttl,
	}
}

func (c *catalogCache) get(baseURL string) ([]ModelInfo, bool) {
	c.mu.RLock()
	entry, ok := c.entries[baseURL]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Since(entry.fetchedAt) > c.ttl {
		c.mu.Lock()
		if current, ok := c.entries[baseURL]; ok && time.Since(current.fetchedAt) > c.ttl {
			delete(c.entries, baseURL)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.models, true
}

func (c *catalogCache) set(baseURL string, models []ModelInfo) {
	c.mu.Lock()
	c.entries[baseURL] = &catalogEntry{models: models, fetchedAt: time.Now()}
	c.mu.Unlock()
}

type modelsResponse struct {
	Data []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

// ListModels returns the provider's model catalog, served from the
// per-base-URL cache when fresh.
func (c *Client) ListModels(ctx context.Context, apiKey, baseURL string) ([]ModelInfo, error) {
	if models, ok := c.catalog.get(baseURL); ok {
		return models, nil
	}

	endpoint, err := modelsURL(baseURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	c.sem.Release(1)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("models endpoint returned %d: %s", resp.StatusCode, truncateBody(body))
	}

	var parsed modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("malformed models response: %w", err)
	}

	models := make([]ModelInfo, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		name := m.Name
		if name == "" {
			name = m.ID
		}
		models = append(models, ModelInfo{
			ID:       m.ID,
			Name:     name,
			Provider: providerOf(m.ID),
		})
	}

	c.catalog.set(baseURL, models)
	return models, nil
}

// modelsURL derives the models-listing endpoint from a chat base URL.
// OpenRouter serves its catalog at a fixed path regardless of the
// configured completions URL; other providers follow the
// OpenAI-compatible convention of a sibling /models path.
func modelsURL(baseURL string) (string, error) {
	if strings.Contains(baseURL, "openrouter.ai") {
		u, err := url.Parse(baseURL)
		if err != nil {
			return "", fmt.Errorf("invalid base url: %w", err)
		}
		return u.Scheme + "://" + u.Host + "/api/v1/models", nil
	}

	trimmed := strings.TrimSuffix(strings.TrimRight(baseURL, "/"), chatCompletionsSuffix)
	return strings.TrimRight(trimmed, "/") + "/models", nil
}

// providerOf extracts the provider prefix from a model id
// ("anthropic/claude-..." → "anthropic"), else "unknown".
func providerOf(modelID string) string {
	if idx := strings.Index(modelID, "/"); idx > 0 {
		return modelID[:idx]
	}
	return "unknown"
}
