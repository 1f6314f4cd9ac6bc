// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitLabBaseURL  string
	DBPath         string
	WorkerInterval time.Duration
	FetchRetries   int
}

// Load reads configuration from environment variables and returns a validated
// Config. All variables are optional and have defaults:
// GLIMPS_GITLAB_BASE_URL (https://gitlab.com/api/v4), GLIMPS_DB_PATH
// (glimps.db), GLIMPS_WORKER_INTERVAL (30s), GLIMPS_FETCH_RETRIES (5).
func Load() (*Config, error) {
	baseURL := "https://gitlab.com/api/v4"
	if v, ok := os.LookupEnv("GLIMPS_GITLAB_BASE_URL"); ok {
		baseURL = v
	}

	dbPath := "glimps.db"
	if v, ok := os.LookupEnv("GLIMPS_DB_PATH"); ok {
		dbPath = v
	}

	workerInterval := 30 * time.Second
	if v, ok := os.LookupEnv("GLIMPS_WORKER_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("GLIMPS_WORKER_INTERVAL has invalid duration %q: %w", v, err)
		}
		workerInterval = parsed
	}

	fetchRetries := 5
	if v, ok := os.LookupEnv("GLIMPS_FETCH_RETRIES"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("GLIMPS_FETCH_RETRIES has invalid value %q", v)
		}
		fetchRetries = parsed
	}

	return &Config{
		GitLabBaseURL:  baseURL,
		DBPath:         dbPath,
		WorkerInterval: workerInterval,
		FetchRetries:   fetchRetries,
	}, nil
}
