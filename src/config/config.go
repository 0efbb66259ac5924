package config

import "time"

const (
	DefaultModel         = "open-mixtral-8x7b"
	DefaultBaseURL       = "https://api.mistral.ai/v1"
	DefaultPrepromptPath = "preprompt.txt"
	DefaultConvosDir     = "convos"
	DefaultJoinMode      = "space"
	DefaultLogLevel      = "warn"
	DefaultTimeout       = 60 * time.Second
)

// Config is the resolved runtime configuration of the chat client.
type Config struct {
	APIKey        string        `json:"-" validate:"required"`
	BaseURL       string        `json:"base_url" validate:"required,url"`
	Model         string        `json:"model" validate:"required"`
	PrepromptPath string        `json:"preprompt_path" validate:"required"`
	ConvosDir     string        `json:"convos_dir" validate:"required"`
	JoinMode      string        `json:"join_mode" validate:"join_mode"`
	LogLevel      string        `json:"log_level" validate:"log_level"`
	Timeout       time.Duration `json:"timeout" validate:"gte=0"`
	IndexPath     string        `json:"index_path"`
}

// DefaultConfig returns a configuration with defaults matching the legacy
// client: Mistral, open-mixtral-8x7b, ./preprompt.txt and ./convos.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       DefaultBaseURL,
		Model:         DefaultModel,
		PrepromptPath: DefaultPrepromptPath,
		ConvosDir:     DefaultConvosDir,
		JoinMode:      DefaultJoinMode,
		LogLevel:      DefaultLogLevel,
		Timeout:       DefaultTimeout,
		IndexPath:     DefaultIndexPath(),
	}
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
