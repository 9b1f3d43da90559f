package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Settings holds process-wide configuration loaded from environment
// variables.
type Settings struct {
	// HTTPPort is the port the API server listens on.
	HTTPPort int

	// DataDir is the root of the file-backed stores (tenant dirs live
	// under <DataDir>/orgs, instance defaults under <DataDir>/defaults).
	DataDir string

	// MaxConcurrentRequests bounds outbound upstream calls across the
	// whole process.
	MaxConcurrentRequests int

	// LLMRequestTimeout is the per-attempt upstream timeout.
	LLMRequestTimeout time.Duration

	// LLMMaxRetries is the total attempt budget per call, inclusive of
	// the first attempt.
	LLMMaxRetries int

	// LLMAPIURL and LLMAPIKey are the instance-wide upstream fallback,
	// used when a tenant has not configured its own credentials.
	LLMAPIURL string
	LLMAPIKey string

	// EncryptionKey protects tenant api keys at rest. Required whenever
	// tenants store their own keys.
	EncryptionKey string
}

// LoadSettings reads settings from the environment, applying defaults.
func LoadSettings() (*Settings, error) {
	port, err := intEnv("HTTP_PORT", 8080)
	if err != nil {
		return nil, err
	}
	maxConcurrent, err := intEnv("MAX_CONCURRENT_REQUESTS", 10)
	if err != nil {
		return nil, err
	}
	maxRetries, err := intEnv("LLM_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	timeout, err := secondsEnv("LLM_REQUEST_TIMEOUT", 180)
	if err != nil {
		return nil, err
	}

	return &Settings{
		HTTPPort:              port,
		DataDir:               getEnvOrDefault("DATA_DIR", "data"),
		MaxConcurrentRequests: maxConcurrent,
		LLMRequestTimeout:     timeout,
		LLMMaxRetries:         maxRetries,
		LLMAPIURL:             getEnvOrDefault("LLM_API_URL", "https://openrouter.ai/api/v1/chat/completions"),
		LLMAPIKey:             os.Getenv("LLM_API_KEY"),
		EncryptionKey:         os.Getenv("ENCRYPTION_KEY"),
	}, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func intEnv(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// secondsEnv parses a float number of seconds into a duration.
func secondsEnv(key string, defaultVal float64) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return time.Duration(defaultVal * float64(time.Second)), nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(f * float64(time.Second)), nil
}
