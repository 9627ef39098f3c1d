package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment" yaml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server" yaml:"server"`
	Queue       QueueConfig     `toml:"queue" yaml:"queue"`
	Storage     StorageConfig   `toml:"storage" yaml:"storage"`
	Logging     LoggingConfig   `toml:"logging" yaml:"logging"`
	Provider    ProviderConfig  `toml:"provider" yaml:"provider"`
	Discovery   DiscoveryConfig `toml:"discovery" yaml:"discovery"`
	Analysis    AnalysisConfig  `toml:"analysis" yaml:"analysis"`
	Claude      ClaudeConfig    `toml:"claude" yaml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini" yaml:"gemini"`
	Reaper      ReaperConfig    `toml:"reaper" yaml:"reaper"`
}

type ServerConfig struct {
	Host string `toml:"host" yaml:"host"`
	Port int    `toml:"port" yaml:"port"`
}

type QueueConfig struct {
	QueueName         string `toml:"queue_name" yaml:"queue_name"`                 // Key prefix in Badger
	PollInterval      string `toml:"poll_interval" yaml:"poll_interval"`           // How often the worker polls for messages
	VisibilityTimeout string `toml:"visibility_timeout" yaml:"visibility_timeout"` // Redelivery window for unacked messages
	MaxReceive        int    `toml:"max_receive" yaml:"max_receive"`               // Deliveries before a message is dropped as poison
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger" yaml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" yaml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup" yaml:"reset_on_startup"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" yaml:"level"`   // "debug", "info", "warn", "error"
	Output []string `toml:"output" yaml:"output"` // "stdout", "file"
}

// ProviderConfig configures the external create+poll task provider.
// The backoff numbers are tuning, not identity: any values keep the
// monotonic capped-exponential shape.
type ProviderConfig struct {
	BaseURL         string  `toml:"base_url" yaml:"base_url"`
	Login           string  `toml:"login" yaml:"login"`
	Password        string  `toml:"password" yaml:"password"`
	RateLimit       int     `toml:"rate_limit" yaml:"rate_limit"`               // Requests per second
	CreateRetries   int     `toml:"create_retries" yaml:"create_retries"`      // Transport retries for task creation
	CreateBaseDelay string  `toml:"create_base_delay" yaml:"create_base_delay"` // Doubles per retry
	PollInitialWait string  `toml:"poll_initial_wait" yaml:"poll_initial_wait"`
	PollGrowth      float64 `toml:"poll_growth" yaml:"poll_growth"`
	PollMaxWait     string  `toml:"poll_max_wait" yaml:"poll_max_wait"`
	PollMaxAttempts int     `toml:"poll_max_attempts" yaml:"poll_max_attempts"`
}

// DiscoveryConfig configures the fan-out location search.
type DiscoveryConfig struct {
	Concurrency   int            `toml:"concurrency" yaml:"concurrency"`       // Max in-flight partition sessions
	TargetResults int            `toml:"target_results" yaml:"target_results"` // Early-termination threshold
	Depth         int            `toml:"depth" yaml:"depth"`                   // Results requested per partition
	Partitions    map[string]int `toml:"partitions" yaml:"partitions"`         // Country name -> provider location code
}

// AnalysisConfig configures the checkpointed batch classifier.
type AnalysisConfig struct {
	ProgressEvery   int `toml:"progress_every" yaml:"progress_every"`     // Status write cadence, in items
	CheckpointEvery int `toml:"checkpoint_every" yaml:"checkpoint_every"` // Checkpoint cadence, in accumulated results
	SampleSize      int `toml:"sample_size" yaml:"sample_size"`           // Reviews sampled for dimension suggestion
}

type ClaudeConfig struct {
	APIKey    string `toml:"api_key" yaml:"api_key"`
	Model     string `toml:"model" yaml:"model"`
	Timeout   string `toml:"timeout" yaml:"timeout"`
	MaxTokens int    `toml:"max_tokens" yaml:"max_tokens"`
}

type GeminiConfig struct {
	APIKey  string `toml:"api_key" yaml:"api_key"`
	Model   string `toml:"model" yaml:"model"`
	Timeout string `toml:"timeout" yaml:"timeout"`
}

// ReaperConfig configures stale-running-job detection.
type ReaperConfig struct {
	Enabled    bool   `toml:"enabled" yaml:"enabled"`
	Schedule   string `toml:"schedule" yaml:"schedule"`     // Cron format
	StaleAfter string `toml:"stale_after" yaml:"stale_after"` // Running with no status write for this long -> error
}

// DefaultConfig returns the configuration defaults applied before any
// config file or environment override.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "localhost",
			Port: 8085,
		},
		Queue: QueueConfig{
			QueueName:         "vocero",
			PollInterval:      "2s",
			VisibilityTimeout: "5m",
			MaxReceive:        3,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/badger",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Provider: ProviderConfig{
			BaseURL:         "https://api.dataforseo.com/v3",
			RateLimit:       10,
			CreateRetries:   3,
			CreateBaseDelay: "500ms",
			PollInitialWait: "2s",
			PollGrowth:      1.5,
			PollMaxWait:     "8s",
			PollMaxAttempts: 15,
		},
		Discovery: DiscoveryConfig{
			Concurrency:   3,
			TargetResults: 40,
			Depth:         50,
			Partitions: map[string]int{
				"Saudi Arabia":         2682,
				"United Arab Emirates": 2784,
				"Egypt":                2818,
				"Kuwait":               2414,
				"Bahrain":              2048,
				"Qatar":                2634,
				"Oman":                 2512,
			},
		},
		Analysis: AnalysisConfig{
			ProgressEvery:   10,
			CheckpointEvery: 50,
			SampleSize:      10,
		},
		Claude: ClaudeConfig{
			Model:     "claude-sonnet-4-20250514",
			Timeout:   "60s",
			MaxTokens: 2048,
		},
		Gemini: GeminiConfig{
			Model:   "gemini-2.0-flash",
			Timeout: "60s",
		},
		Reaper: ReaperConfig{
			Enabled:    true,
			Schedule:   "*/5 * * * *",
			StaleAfter: "30m",
		},
	}
}

// LoadConfig builds the configuration from defaults, then overlays each
// config file in order (later files win), then environment variables.
// TOML and YAML files are both accepted, selected by extension.
func LoadConfig(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
			}
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse TOML config %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides lets deployment environments override secrets and
// endpoints without touching config files.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VOCERO_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VOCERO_BADGER_PATH"); v != "" {
		cfg.Storage.Badger.Path = v
	}
	if v := os.Getenv("VOCERO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DATAFORSEO_LOGIN"); v != "" {
		cfg.Provider.Login = v
	}
	if v := os.Getenv("DATAFORSEO_PASSWORD"); v != "" {
		cfg.Provider.Password = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Claude.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
}

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Queue.MaxReceive <= 0 {
		return fmt.Errorf("queue max_receive must be positive")
	}
	if _, err := time.ParseDuration(c.Queue.PollInterval); err != nil {
		return fmt.Errorf("invalid queue poll_interval: %w", err)
	}
	if _, err := time.ParseDuration(c.Queue.VisibilityTimeout); err != nil {
		return fmt.Errorf("invalid queue visibility_timeout: %w", err)
	}
	if c.Provider.PollGrowth < 1.0 {
		return fmt.Errorf("provider poll_growth must be >= 1.0")
	}
	if c.Analysis.ProgressEvery <= 0 || c.Analysis.CheckpointEvery <= 0 {
		return fmt.Errorf("analysis cadences must be positive")
	}
	return nil
}

// QueuePollInterval returns the parsed worker poll interval.
func (c *Config) QueuePollInterval() time.Duration {
	d, _ := time.ParseDuration(c.Queue.PollInterval)
	return d
}

// QueueVisibilityTimeout returns the parsed visibility timeout.
func (c *Config) QueueVisibilityTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Queue.VisibilityTimeout)
	return d
}

// ReaperStaleAfter returns the parsed staleness window.
func (c *Config) ReaperStaleAfter() time.Duration {
	d, err := time.ParseDuration(c.Reaper.StaleAfter)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}
