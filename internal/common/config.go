package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Monitor     MonitorConfig    `toml:"monitor"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Browser     BrowserConfig    `toml:"browser"`
	Claude      ClaudeConfig     `toml:"claude"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Telegram    TelegramConfig   `toml:"telegram"`
	Retry       RetryConfig      `toml:"retry"`
	Summarizer  SummarizerConfig `toml:"summarizer"`
}

// MonitorConfig controls the disclosures page watch loop
type MonitorConfig struct {
	URL        string `toml:"url" validate:"required,url"` // Disclosures page to watch
	Schedule   string `toml:"schedule"`                    // Cron schedule for pipeline cycles
	RunOnStart bool   `toml:"run_on_start"`                // Run one cycle immediately at startup
}

type StorageConfig struct {
	Badger    BadgerConfig    `toml:"badger"`
	Downloads DownloadsConfig `toml:"downloads"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// DownloadsConfig controls where quarter documents are materialized
type DownloadsConfig struct {
	Dir string `toml:"dir"` // Root directory for downloads/{year}/{period}
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// BrowserConfig holds headless browser settings for page rendering
type BrowserConfig struct {
	Headless          bool   `toml:"headless"`
	DisableGPU        bool   `toml:"disable_gpu"`
	NoSandbox         bool   `toml:"no_sandbox"`
	UserAgent         string `toml:"user_agent"`
	NavigationTimeout string `toml:"navigation_timeout"` // e.g. "45s"
}

// ClaudeConfig holds Anthropic Claude settings for summarization
type ClaudeConfig struct {
	APIKey           string  `toml:"api_key"`
	Model            string  `toml:"model"`
	MaxTokens        int     `toml:"max_tokens"`
	Temperature      float32 `toml:"temperature"`
	Timeout          string  `toml:"timeout"`
	InputTokenBudget int     `toml:"input_token_budget"` // Safe input capacity for prompt sizing
}

// GeminiConfig holds Google Gemini settings for visual page classification
type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

// TelegramConfig holds bot transport settings for notification fan-out
type TelegramConfig struct {
	Enabled      bool     `toml:"enabled"`
	Token        string   `toml:"token"`
	APIBaseURL   string   `toml:"api_base_url"`  // Override for tests
	Subscribers  []string `toml:"subscribers"`   // Chat IDs seeded into the registry at startup
	MessageLimit int      `toml:"message_limit"` // Max characters per message chunk
	SendTimeout  string   `toml:"send_timeout"`
	RatePerSec   float64  `toml:"rate_per_sec"` // Outbound send rate limit
}

// RetryConfig holds bounded exponential backoff settings
type RetryConfig struct {
	MaxAttempts  int     `toml:"max_attempts"`
	InitialDelay string  `toml:"initial_delay"` // e.g. "500ms"
	Multiplier   float64 `toml:"multiplier"`
	MaxDelay     string  `toml:"max_delay"`
}

// SummarizerConfig holds content thresholds and prompt sizing
type SummarizerConfig struct {
	MinContentChars     int `toml:"min_content_chars"` // Below this, fail fast as insufficient content
	MinSummaryChars     int `toml:"min_summary_chars"` // Below this, a generated summary counts as empty
	CharsPerToken       int `toml:"chars_per_token"`   // Fixed characters-per-token estimate
	TranscriptCharLimit int `toml:"transcript_char_limit"`
	ReleasePageLimit    int `toml:"release_page_limit"`
	FinancialsPageLimit int `toml:"financials_page_limit"`
	MinConsolidated     int `toml:"min_consolidated"` // Below this, a merged summary falls back to concatenation
}

// NewDefaultConfig returns the configuration defaults. File values, then
// environment variables, override these in order.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Monitor: MonitorConfig{
			URL:        "https://ri.positivotecnologia.com.br/informacoes-financeiras/central-de-resultados/",
			Schedule:   "*/30 * * * *",
			RunOnStart: false,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/vigil.db",
				ResetOnStartup: false,
			},
			Downloads: DownloadsConfig{
				Dir: "./downloads",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Browser: BrowserConfig{
			Headless:          true,
			DisableGPU:        true,
			NoSandbox:         true,
			UserAgent:         "Vigil-Monitor/1.0",
			NavigationTimeout: "45s",
		},
		Claude: ClaudeConfig{
			Model:            "claude-sonnet-4-20250514",
			MaxTokens:        8192,
			Temperature:      0.3,
			Timeout:          "120s",
			InputTokenBudget: 150000,
		},
		Gemini: GeminiConfig{
			Model:   "gemini-2.0-flash",
			Timeout: "60s",
		},
		Telegram: TelegramConfig{
			Enabled:      true,
			APIBaseURL:   "https://api.telegram.org",
			MessageLimit: 4000,
			SendTimeout:  "30s",
			RatePerSec:   1,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: "500ms",
			Multiplier:   2.0,
			MaxDelay:     "30s",
		},
		Summarizer: SummarizerConfig{
			MinContentChars:     50,
			MinSummaryChars:     20,
			CharsPerToken:       4,
			TranscriptCharLimit: 25000,
			ReleasePageLimit:    8,
			FinancialsPageLimit: 15,
			MinConsolidated:     50,
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VIGIL_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Monitor configuration
	if url := os.Getenv("VIGIL_MONITOR_URL"); url != "" {
		config.Monitor.URL = url
	}
	if schedule := os.Getenv("VIGIL_MONITOR_SCHEDULE"); schedule != "" {
		config.Monitor.Schedule = schedule
	}

	// Storage configuration
	if badgerPath := os.Getenv("VIGIL_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if downloadsDir := os.Getenv("VIGIL_DOWNLOADS_DIR"); downloadsDir != "" {
		config.Storage.Downloads.Dir = downloadsDir
	}

	// Logging configuration
	if level := os.Getenv("VIGIL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("VIGIL_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Credentials: direct provider variables first, VIGIL_ prefix as fallback
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	} else if key := os.Getenv("VIGIL_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	} else if key := os.Getenv("VIGIL_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		config.Telegram.Token = token
	} else if token := os.Getenv("VIGIL_TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}

	if enabled := os.Getenv("VIGIL_TELEGRAM_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Telegram.Enabled = b
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, url string, schedule string) {
	if url != "" {
		config.Monitor.URL = url
	}
	if schedule != "" {
		config.Monitor.Schedule = schedule
	}
}

// Validate checks the configuration for startup-aborting problems: missing
// required credentials, an invalid monitored URL, or a malformed schedule.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Claude.APIKey == "" {
		return fmt.Errorf("Anthropic API key is required (set ANTHROPIC_API_KEY or claude.api_key in config)")
	}
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("Google API key is required (set GEMINI_API_KEY or gemini.api_key in config)")
	}
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("Telegram bot token is required when telegram.enabled=true (set TELEGRAM_BOT_TOKEN or telegram.token in config)")
	}

	if err := ValidateSchedule(c.Monitor.Schedule); err != nil {
		return fmt.Errorf("invalid monitor schedule %q: %w", c.Monitor.Schedule, err)
	}

	return nil
}

// ValidateSchedule checks a cron schedule expression
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("schedule cannot be empty")
	}
	_, err := cron.ParseStandard(schedule)
	return err
}

// IsProduction reports whether the environment is configured as production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
