package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelsURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{
			name:    "openrouter uses fixed catalog path",
			baseURL: "https://openrouter.ai/api/v1/chat/completions",
			want:    "https://openrouter.ai/api/v1/models",
		},
		{
			name:    "generic strips chat completions suffix",
			baseURL: "https://api.example.com/v1/chat/completions",
			want:    "https://api.example.com/v1/models",
		},
		{
			name:    "generic api root",
			baseURL: "https://api.example.com/v1",
			want:    "https://api.example.com/v1/models",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := modelsURL(tt.baseURL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProviderOf(t *testing.T) {
	assert.Equal(t, "anthropic", providerOf("anthropic/claude-sonnet-4"))
	assert.Equal(t, "openai", providerOf("openai/gpt-5"))
	assert.Equal(t, "unknown", providerOf("gpt-5"))
	assert.Equal(t, "unknown", providerOf("/weird"))
}

func TestListModelsCachedPerBaseURL(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"openai/gpt-5","name":"GPT-5"},{"id":"local-model"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{MaxConcurrentRequests: 2, MaxRetries: 1, RequestTimeout: 5 * time.Second})
	base := srv.URL + "/v1/chat/completions"

	models, err := c.ListModels(context.Background(), "key-a", base)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, ModelInfo{ID: "openai/gpt-5", Name: "GPT-5", Provider: "openai"}, models[0])
	assert.Equal(t, ModelInfo{ID: "local-model", Name: "local-model", Provider: "unknown"}, models[1])

	// Second call with a different api key hits the cache: the key is
	// the base URL alone.
	_, err = c.ListModels(context.Background(), "key-b", base)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCatalogCacheExpiry(t *testing.T) {
	cache := newCatalogCache(10 * time.Millisecond)
	cache.set("http://a", []ModelInfo{{ID: "m"}})

	_, ok := cache.get("http://a")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = cache.get("http://a")
	assert.False(t, ok)
}
