// Package config provides configuration loading and validation for the CLI and API server.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonathan/career-omni/internal/archive"
	"github.com/jonathan/career-omni/internal/llm"
)

// Defaults used when neither the config file nor the environment sets a value.
const (
	DefaultPort            = 8080
	DefaultMaxUploadBytes  = 10 << 20
	DefaultSessionTTLHours = 24
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or environment variables.
type Config struct {
	// Server
	Port            int   `json:"port,omitempty"`              // HTTP listen port
	MaxUploadBytes  int64 `json:"max_upload_bytes,omitempty"`  // Largest accepted résumé upload
	SessionTTLHours int   `json:"session_ttl_hours,omitempty"` // Idle time before a session expires

	// Model
	APIKey          string  `json:"api_key,omitempty"`          // Gemini API key
	AnalysisModel   string  `json:"analysis_model,omitempty"`   // Overrides the standard tier model
	GenerationModel string  `json:"generation_model,omitempty"` // Overrides the advanced tier model
	Temperature     float64 `json:"temperature,omitempty"`      // Sampling temperature (0.0-2.0)
	TimeoutSeconds  int     `json:"timeout_seconds,omitempty"`  // Per-call model timeout

	// Storage
	DatabaseURL     string `json:"database_url,omitempty"`       // PostgreSQL URL; empty keeps sessions in memory
	ArchiveBucket   string `json:"archive_bucket,omitempty"`     // S3 bucket for analysis exports
	ArchiveEndpoint string `json:"archive_endpoint,omitempty"`   // S3-compatible endpoint (MinIO, R2)
	ArchiveRegion   string `json:"archive_region,omitempty"`     // Bucket region
	ArchivePath     bool   `json:"archive_path_style,omitempty"` // Use path-style addressing
	ArchiveKeyID    string `json:"-"`
	ArchiveSecret   string `json:"-"`

	// Behavior
	UseBrowser bool `json:"use_browser,omitempty"` // Use headless browser for SPA job postings
	Verbose    bool `json:"verbose,omitempty"`     // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads configuration from environment variables.
func FromEnv() Config {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}

	return Config{
		Port:            getEnvInt("PORT", 0),
		MaxUploadBytes:  int64(getEnvInt("MAX_UPLOAD_BYTES", 0)),
		SessionTTLHours: getEnvInt("SESSION_TTL_HOURS", 0),
		APIKey:          apiKey,
		AnalysisModel:   os.Getenv("GEMINI_ANALYSIS_MODEL"),
		GenerationModel: os.Getenv("GEMINI_GENERATION_MODEL"),
		TimeoutSeconds:  getEnvInt("LLM_TIMEOUT_SECONDS", 0),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ArchiveBucket:   os.Getenv("ARCHIVE_BUCKET"),
		ArchiveEndpoint: os.Getenv("ARCHIVE_ENDPOINT"),
		ArchiveRegion:   os.Getenv("ARCHIVE_REGION"),
		ArchivePath:     getEnvBool("ARCHIVE_PATH_STYLE", false),
		ArchiveKeyID:    os.Getenv("ARCHIVE_ACCESS_KEY_ID"),
		ArchiveSecret:   os.Getenv("ARCHIVE_SECRET_ACCESS_KEY"),
		UseBrowser:      getEnvBool("USE_BROWSER", false),
	}
}

// Load reads the optional JSON file at path and fills unset fields from the
// environment and built-in defaults. The result is validated.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	merged := cfg.MergeWithDefaults(FromEnv())
	merged = merged.MergeWithDefaults(Config{
		Port:            DefaultPort,
		MaxUploadBytes:  DefaultMaxUploadBytes,
		SessionTTLHours: DefaultSessionTTLHours,
		Temperature:     float64(llm.DefaultTemperature),
		TimeoutSeconds:  int(llm.DefaultTimeout / time.Second),
	})
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for the API key since only model-backed commands need it.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("config error: 'max_upload_bytes' must be non-negative")
	}
	if c.SessionTTLHours < 0 {
		return fmt.Errorf("config error: 'session_ttl_hours' must be non-negative")
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'timeout_seconds' must be non-negative")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("config error: 'temperature' must be between 0.0 and 2.0")
	}
	if c.ArchiveEndpoint != "" {
		u, err := url.Parse(c.ArchiveEndpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config error: 'archive_endpoint' must be an absolute URL")
		}
	}
	if c.ArchiveEndpoint != "" && c.ArchiveBucket == "" {
		return fmt.Errorf("config error: 'archive_endpoint' requires 'archive_bucket'")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.AnalysisModel == "" {
		result.AnalysisModel = defaults.AnalysisModel
	}
	if result.GenerationModel == "" {
		result.GenerationModel = defaults.GenerationModel
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.ArchiveBucket == "" {
		result.ArchiveBucket = defaults.ArchiveBucket
	}
	if result.ArchiveEndpoint == "" {
		result.ArchiveEndpoint = defaults.ArchiveEndpoint
	}
	if result.ArchiveRegion == "" {
		result.ArchiveRegion = defaults.ArchiveRegion
	}
	if result.ArchiveKeyID == "" {
		result.ArchiveKeyID = defaults.ArchiveKeyID
	}
	if result.ArchiveSecret == "" {
		result.ArchiveSecret = defaults.ArchiveSecret
	}

	// Numeric fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.MaxUploadBytes == 0 {
		result.MaxUploadBytes = defaults.MaxUploadBytes
	}
	if result.SessionTTLHours == 0 {
		result.SessionTTLHours = defaults.SessionTTLHours
	}
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if result.Temperature == 0 {
		result.Temperature = defaults.Temperature
	}

	// Bool fields: either source enabling the flag wins
	result.ArchivePath = result.ArchivePath || defaults.ArchivePath
	result.UseBrowser = result.UseBrowser || defaults.UseBrowser
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}

// Timeout returns the per-call model timeout.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return llm.DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SessionTTL returns the idle session lifetime.
func (c *Config) SessionTTL() time.Duration {
	if c.SessionTTLHours <= 0 {
		return DefaultSessionTTLHours * time.Hour
	}
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// LLMConfig builds the model configuration with any overrides applied.
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.DefaultConfig().
		WithModel(llm.TierStandard, c.AnalysisModel).
		WithModel(llm.TierAdvanced, c.GenerationModel)
	if c.Temperature > 0 {
		cfg.Temperature = float32(c.Temperature)
	}
	cfg.Timeout = c.Timeout()
	return cfg
}

// Archive returns the export archive settings.
func (c *Config) Archive() archive.Config {
	return archive.Config{
		Bucket:    c.ArchiveBucket,
		Endpoint:  c.ArchiveEndpoint,
		Region:    c.ArchiveRegion,
		AccessKey: c.ArchiveKeyID,
		SecretKey: c.ArchiveSecret,
		PathStyle: c.ArchivePath,
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
