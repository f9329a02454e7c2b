package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/Spotas/Ai-rewrite/internal/ai"
	"github.com/Spotas/Ai-rewrite/internal/ai/gemini"
	"github.com/Spotas/Ai-rewrite/internal/aiconnectors"
	"github.com/Spotas/Ai-rewrite/internal/llm"
	"github.com/Spotas/Ai-rewrite/internal/ratelimit"
	"github.com/Spotas/Ai-rewrite/internal/retry"
	"github.com/Spotas/Ai-rewrite/internal/settings"
)

// EnvPrefix prefixes environment overrides, e.g.
// AIREWRITE_GEMINI_API_KEY sets gemini.api_key.
const EnvPrefix = "AIREWRITE_"

// Config represents the application configuration
type Config struct {
	Gemini    gemini.Config                 `koanf:"gemini"`
	Backend   aiconnectors.ConnectorOptions `koanf:"backend"`
	Rewrite   RewriteConfig                 `koanf:"rewrite"`
	RateLimit ratelimit.Config              `koanf:"ratelimit"`
	Retry     RetryConfig                   `koanf:"retry"`
	Server    ServerConfig                  `koanf:"server"`
	Storage   StorageConfig                 `koanf:"storage"`
	Log       LogConfig                     `koanf:"log"`
}

// RewriteConfig holds the defaults for user settings. Values saved with
// the settings commands take precedence.
type RewriteConfig struct {
	MaxTextLength           int  `koanf:"max_text_length"`
	EnableUndo              bool `koanf:"enable_undo"`
	EnableUsageTracking     bool `koanf:"enable_usage_tracking"`
	EnableKeyboardShortcuts bool `koanf:"enable_keyboard_shortcuts"`
	SecretGuard             bool `koanf:"secret_guard"`
	UndoCapacity            int  `koanf:"undo_capacity"`
}

// RetryConfig adds the per-attempt timeout to the backoff settings.
type RetryConfig struct {
	retry.RetryConfig `koanf:",squash"`
	Timeout           time.Duration `koanf:"timeout"`
}

// ServerConfig configures the local HTTP trigger surface.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Secret      string        `koanf:"secret"`
	TokenTTL    time.Duration `koanf:"token_ttl"`
	ClientRPS   float64       `koanf:"clientrps"`
	ClientBurst int           `koanf:"clientburst"`
	CORSOrigins []string      `koanf:"cors_origins"`
}

// StorageConfig locates the settings database.
type StorageConfig struct {
	Path string `koanf:"path"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level      string `koanf:"level"`
	File       string `koanf:"file"`
	Console    bool   `koanf:"console"`
	MaxSize    int    `koanf:"maxsize"`
	MaxBackups int    `koanf:"maxbackups"`
	MaxAge     int    `koanf:"maxage"`
}

// Defaults for every key, loaded before the file and the environment.
var defaults = map[string]interface{}{
	"gemini.base_url":                   gemini.DefaultBaseURL,
	"gemini.model":                      gemini.DefaultModel,
	"backend.provider":                  ai.ProviderGemini,
	"rewrite.max_text_length":           settings.DefaultMaxTextLength,
	"rewrite.enable_undo":               true,
	"rewrite.enable_usage_tracking":     true,
	"rewrite.enable_keyboard_shortcuts": true,
	"rewrite.secret_guard":              false,
	"rewrite.undo_capacity":             10,
	"ratelimit.burst":                   5,
	"ratelimit.burstwindow":             "10s",
	"ratelimit.requests":                60,
	"ratelimit.window":                  "1m",
	"retry.attempts":                    3,
	"retry.delay":                       "1s",
	"retry.maxdelay":                    "0s",
	"retry.log":                         true,
	"retry.timeout":                     "30s",
	"server.host":                       "127.0.0.1",
	"server.port":                       8765,
	"server.token_ttl":                  "720h",
	"server.clientrps":                  5.0,
	"server.clientburst":                10,
	"storage.path":                      "$HOME/.airewrite/airewrite.db",
	"log.level":                         "info",
	"log.console":                       true,
	"log.maxsize":                       10,
	"log.maxbackups":                    3,
	"log.maxage":                        28,
}

// DefaultPaths are searched in order when no config path is given.
var DefaultPaths = []string{"./airewrite.toml", "$HOME/.airewrite.toml"}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		for _, path := range DefaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	config.Storage.Path = os.ExpandEnv(config.Storage.Path)

	return &config, nil
}

// envKey maps AIREWRITE_REWRITE_MAX_TEXT_LENGTH to rewrite.max_text_length.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

// Settings returns the user settings defaults described by the config.
func (c *Config) Settings() settings.Settings {
	s := settings.Defaults()
	s.APIKey = c.Gemini.APIKey
	if c.Backend.Provider != "" && c.Backend.Provider != ai.ProviderGemini && c.Backend.APIKey != "" {
		s.APIKey = c.Backend.APIKey
	}
	if c.Gemini.Model != "" {
		s.SelectedModel = c.Gemini.Model
	}
	s.MaxTextLength = c.Rewrite.MaxTextLength
	s.EnableUndo = c.Rewrite.EnableUndo
	s.EnableUsageTracking = c.Rewrite.EnableUsageTracking
	s.EnableKeyboardShortcuts = c.Rewrite.EnableKeyboardShortcuts
	return s.Normalize()
}

// AI returns the model backend selection.
func (c *Config) AI() ai.Config {
	return ai.Config{
		Provider: string(c.Backend.Provider),
		Gemini:   c.Gemini,
		Backend:  c.Backend,
	}
}

// Pipeline returns the call pipeline configuration. Keys are only required
// by the direct Gemini client; connector backends such as Ollama may run
// without one.
func (c *Config) Pipeline() llm.PipelineConfig {
	return llm.PipelineConfig{
		Retry:         c.Retry.RetryConfig,
		Timeout:       c.Retry.Timeout,
		RequireAPIKey: c.Backend.Provider == "" || c.Backend.Provider == ai.ProviderGemini,
	}
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# airewrite configuration

[gemini]
api_key = "your-gemini-api-key"
model = "gemini-2.5-flash"
# Write every request and response body under this directory.
# capture_dir = "captures"

# Use another provider through langchaingo: googleai, openai, claude, cohere, ollama.
[backend]
provider = "gemini"
# model = "gpt-4o-mini"
# api_key = ""
# base_url = ""

[rewrite]
max_text_length = 8000
enable_undo = true
enable_usage_tracking = true
enable_keyboard_shortcuts = true
secret_guard = false

[ratelimit]
burst = 5
burstwindow = "10s"
requests = 60
window = "1m"

[retry]
attempts = 3
delay = "1s"
timeout = "30s"

[server]
host = "127.0.0.1"
port = 8765
# secret = "change-me"
clientrps = 5.0
clientburst = 10

[storage]
path = "$HOME/.airewrite/airewrite.db"

[log]
level = "info"
console = true
# file = "airewrite.log"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	provider := config.Backend.Provider
	if provider == "" {
		provider = ai.ProviderGemini
	}

	known := false
	for _, name := range ai.NewDefaultFactory().Names() {
		if name == string(provider) {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown backend provider %q", provider)
	}

	if provider == ai.ProviderGemini {
		model := config.Gemini.Model
		if model == "" {
			model = gemini.DefaultModel
		}
		if !gemini.New(config.Gemini).SupportsModel(model) {
			return fmt.Errorf("unsupported gemini model %q (supported: %s)", model, strings.Join(gemini.Models(), ", "))
		}
	}

	if config.Rewrite.MaxTextLength < settings.MinTextLength {
		return fmt.Errorf("rewrite.max_text_length must be at least %d", settings.MinTextLength)
	}
	if config.RateLimit.BurstLimit <= 0 || config.RateLimit.Requests <= 0 {
		return fmt.Errorf("ratelimit capacities must be positive")
	}
	if config.RateLimit.BurstWindow <= 0 || config.RateLimit.RequestWindow <= 0 {
		return fmt.Errorf("ratelimit windows must be positive")
	}
	if config.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.attempts must be positive")
	}
	if config.Retry.Timeout <= 0 {
		return fmt.Errorf("retry.timeout must be positive")
	}
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", config.Server.Port)
	}
	if config.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	return nil
}
