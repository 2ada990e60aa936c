package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Knowledge   KnowledgeConfig `toml:"knowledge"`
	Corpus      CorpusConfig    `toml:"corpus"`
	Google      GoogleConfig    `toml:"google"`
	Notion      NotionConfig    `toml:"notion"`
	Crawler     CrawlerConfig   `toml:"crawler"`
	LLM         LLMConfig       `toml:"llm"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	Storage     StorageConfig   `toml:"storage"`
	Webhook     WebhookConfig   `toml:"webhook"`
	Bot         BotConfig       `toml:"bot"`
	Notify      NotifyConfig    `toml:"notify"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
	Dir    string   `toml:"dir"`    // Log and crash file directory, default: logs/ next to the executable
}

// SearchProfile holds the retrieval knobs for one answering mode
type SearchProfile struct {
	MaxResults int     `toml:"max_results" validate:"gte=1,lte=100"`
	MinScore   float64 `toml:"min_score" validate:"gte=0"`
	TopK       int     `toml:"top_k" validate:"gte=0,lte=100"`
}

// KnowledgeConfig contains the retrieval, gating and context budget settings
type KnowledgeConfig struct {
	Lenient          SearchProfile `toml:"lenient"`                                                // General RAG answers
	Strict           SearchProfile `toml:"strict"`                                                 // Knowledge-base-only answers, gated
	GateThreshold    float64       `toml:"gate_threshold" validate:"gte=0"`                        // Minimum max score to answer (default: 0.3)
	GateMinResults   int           `toml:"gate_min_results" validate:"gte=1"`                      // Minimum result count to answer (default: 1)
	ExcerptLength    int           `toml:"excerpt_length" validate:"gte=100"`                      // Excerpt window in characters (default: 2000)
	ExcerptLeadIn    int           `toml:"excerpt_lead_in" validate:"gte=0,ltfield=ExcerptLength"` // Characters before first match (default: 100)
	MaxContextLength int           `toml:"max_context_length" validate:"gte=1000"`                 // Context budget in characters
	MaxImages        int           `toml:"max_images" validate:"gte=0,lte=16"`                     // Images passed to the vision model
	Temperature      float32       `toml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens        int           `toml:"max_tokens" validate:"gte=1"`
}

// CorpusConfig controls where the source list comes from and how often it is rebuilt
type CorpusConfig struct {
	SheetID          string        `toml:"sheet_id"`           // Spreadsheet holding the source list
	SheetRange       string        `toml:"sheet_range"`        // A1 range including the header row
	FetchDelay       time.Duration `toml:"fetch_delay"`        // Pause between source fetches (default: 200ms)
	Workers          int           `toml:"workers"`            // Concurrent source fetches (default: 1, sequential)
	RebuildSchedule  string        `toml:"rebuild_schedule"`   // Cron schedule for refresh, empty disables
	RebuildOnStartup bool          `toml:"rebuild_on_startup"` // Build the corpus when the service starts
}

// GoogleConfig contains service-account credentials for the Google APIs
type GoogleConfig struct {
	CredentialsFile string `toml:"credentials_file"`
}

type NotionConfig struct {
	Token string `toml:"token"`
}

// CrawlerConfig contains website fetch settings
type CrawlerConfig struct {
	UserAgent          string        `toml:"user_agent"`
	RequestTimeout     time.Duration `toml:"request_timeout"`
	MaxBodySize        int64         `toml:"max_body_size"`
	RequestsPerSecond  float64       `toml:"requests_per_second"`
	EnableJavaScript   bool          `toml:"enable_javascript"`    // Render pages with chromedp before extraction
	JavaScriptWaitTime time.Duration `toml:"javascript_wait_time"` // Time to wait for JavaScript to render
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains settings shared by all providers
type LLMConfig struct {
	DefaultProvider LLMProvider   `toml:"default_provider"` // "gemini" or "claude"
	Timeout         time.Duration `toml:"timeout"`          // Per request timeout
	MaxRetries      int           `toml:"max_retries"`      // Retries on rate limit errors
}

type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

type ClaudeConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path                string `toml:"path"`                 // Database directory path
	ResetOnStartup      bool   `toml:"reset_on_startup"`     // Delete database on startup
	RetentionDays       int    `toml:"retention_days"`       // Answer records older than this are pruned, 0 keeps all
	MaintenanceSchedule string `toml:"maintenance_schedule"` // Cron schedule for pruning and value-log GC, empty disables
}

// WebhookConfig contains the shared secret used to sign incoming bot events
type WebhookConfig struct {
	Secret string `toml:"secret"`
}

// BotConfig contains chat routing settings
type BotConfig struct {
	MenuFile     string        `toml:"menu_file"`     // YAML catalogue of canned replies
	SessionTTL   time.Duration `toml:"session_ttl"`   // How long a user's last query is remembered
	MessageLimit int           `toml:"message_limit"` // Maximum characters per outgoing message
	DefaultMode  string        `toml:"default_mode"`  // Mode used for mentions: "lenient" or "strict"
}

type NotifyConfig struct {
	SlackWebhookURL string `toml:"slack_webhook_url"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Knowledge: KnowledgeConfig{
			Lenient: SearchProfile{
				MaxResults: 15,
				MinScore:   0.05,
				TopK:       15,
			},
			Strict: SearchProfile{
				MaxResults: 5,
				MinScore:   0.3,
				TopK:       5,
			},
			GateThreshold:    0.3,
			GateMinResults:   1,
			ExcerptLength:    2000,
			ExcerptLeadIn:    100,
			MaxContextLength: 30000,
			MaxImages:        4,
			Temperature:      0.3,
			MaxTokens:        2048,
		},
		Corpus: CorpusConfig{
			SheetRange:       "Sheet1!A1:G",
			FetchDelay:       200 * time.Millisecond,
			Workers:          1,
			RebuildSchedule:  "0 */6 * * *", // Every 6 hours
			RebuildOnStartup: true,
		},
		Crawler: CrawlerConfig{
			UserAgent:          "Mozilla/5.0 (compatible; Kotae/1.0)",
			RequestTimeout:     30 * time.Second,
			MaxBodySize:        10 * 1024 * 1024, // 10MB
			RequestsPerSecond:  2,
			EnableJavaScript:   false,
			JavaScriptWaitTime: 2 * time.Second,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
			Timeout:         2 * time.Minute,
			MaxRetries:      3,
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		Claude: ClaudeConfig{
			Model: "claude-sonnet-4-5",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:                "./data",
				RetentionDays:       90,
				MaintenanceSchedule: "30 3 * * *", // Daily at 03:30
			},
		},
		Bot: BotConfig{
			MenuFile:     "./menu.yaml",
			SessionTTL:   30 * time.Minute,
			MessageLimit: 2000,
			DefaultMode:  "lenient",
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. CLI flags are applied afterwards with ApplyFlagOverrides.
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
	if env := os.Getenv("KOTAE_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("KOTAE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("KOTAE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging configuration
	if level := os.Getenv("KOTAE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if dir := os.Getenv("KOTAE_LOG_DIR"); dir != "" {
		config.Logging.Dir = dir
	}
	if output := os.Getenv("KOTAE_LOG_OUTPUT"); output != "" {
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

	// Corpus configuration
	if sheetID := os.Getenv("KOTAE_SHEET_ID"); sheetID != "" {
		config.Corpus.SheetID = sheetID
	}
	if sheetRange := os.Getenv("KOTAE_SHEET_RANGE"); sheetRange != "" {
		config.Corpus.SheetRange = sheetRange
	}
	if delay := os.Getenv("KOTAE_FETCH_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			config.Corpus.FetchDelay = d
		}
	}
	if schedule, ok := os.LookupEnv("KOTAE_REBUILD_SCHEDULE"); ok {
		config.Corpus.RebuildSchedule = schedule
	}

	// Knowledge configuration
	if budget := os.Getenv("KOTAE_MAX_CONTEXT_LENGTH"); budget != "" {
		if b, err := strconv.Atoi(budget); err == nil {
			config.Knowledge.MaxContextLength = b
		}
	}
	if threshold := os.Getenv("KOTAE_GATE_THRESHOLD"); threshold != "" {
		if t, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Knowledge.GateThreshold = t
		}
	}

	// Credentials
	if creds := os.Getenv("KOTAE_GOOGLE_CREDENTIALS_FILE"); creds != "" {
		config.Google.CredentialsFile = creds
	}
	if token := os.Getenv("KOTAE_NOTION_TOKEN"); token != "" {
		config.Notion.Token = token
	}
	if secret := os.Getenv("KOTAE_WEBHOOK_SECRET"); secret != "" {
		config.Webhook.Secret = secret
	}
	if slack := os.Getenv("KOTAE_SLACK_WEBHOOK_URL"); slack != "" {
		config.Notify.SlackWebhookURL = slack
	}

	// LLM configuration
	if provider := os.Getenv("KOTAE_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(provider))
	}
	if model := os.Getenv("KOTAE_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if model := os.Getenv("KOTAE_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	// Storage configuration
	if badgerPath := os.Getenv("KOTAE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the knowledge knobs and the rebuild schedule
func (c *Config) Validate() error {
	if err := validator.New().Struct(c.Knowledge); err != nil {
		return fmt.Errorf("invalid knowledge configuration: %w", err)
	}
	if c.Corpus.FetchDelay < 0 {
		return fmt.Errorf("corpus fetch_delay must not be negative")
	}
	if c.Corpus.RebuildSchedule != "" {
		if err := ValidateSchedule(c.Corpus.RebuildSchedule); err != nil {
			return err
		}
	}
	if c.Storage.Badger.RetentionDays < 0 {
		return fmt.Errorf("storage badger retention_days must not be negative")
	}
	if c.Storage.Badger.MaintenanceSchedule != "" {
		if err := ValidateSchedule(c.Storage.Badger.MaintenanceSchedule); err != nil {
			return fmt.Errorf("storage badger maintenance_schedule: %w", err)
		}
	}
	switch c.LLM.DefaultProvider {
	case LLMProviderGemini, LLMProviderClaude:
	default:
		return fmt.Errorf("unknown llm default_provider %q", c.LLM.DefaultProvider)
	}
	return nil
}

// ResolveAPIKey resolves an API key by name with environment variable priority
// Resolution order: environment variables → config fallback → error
func ResolveAPIKey(name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key": {"KOTAE_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"claude_api_key": {"KOTAE_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
		"notion_token":   {"KOTAE_NOTION_TOKEN", "NOTION_TOKEN"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

// ValidateSchedule validates a standard five-field cron expression and enforces a 5-minute minimum
func ValidateSchedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	if strings.HasPrefix(schedule, "@") {
		return nil
	}

	parts := strings.Fields(schedule)
	if len(parts) != 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]
	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}
	if strings.HasPrefix(minuteField, "*/") {
		interval, err := strconv.Atoi(strings.TrimPrefix(minuteField, "*/"))
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
