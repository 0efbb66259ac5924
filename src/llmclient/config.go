package llmclient

import (
	"log/slog"
	"time"
)

// Config holds configuration for the completion service client
type Config struct {
	APIKey   string        // Bearer credential sent with every request
	BaseURL  string        // Base URL of the OpenAI-compatible API
	Logger   *slog.Logger  // Logger for debugging
	Timeout  time.Duration // Timeout for non-streaming requests
	ModelTTL time.Duration // How long /models results are cached
}
