// Package config handles Bob configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/bob/config.yaml, /etc/bob/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "bob", "config.yaml"))
	}

	paths = append(paths, "/etc/bob/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all Bob configuration.
type Config struct {
	Listen    ListenConfig  `yaml:"listen"`
	CORS      CORSConfig    `yaml:"cors"`
	LLM       LLMConfig     `yaml:"llm"`
	Agent     AgentConfig   `yaml:"agent"`
	Weather   WeatherConfig `yaml:"weather"`
	SMTP      SMTPConfig    `yaml:"smtp"`
	Search    SearchConfig  `yaml:"search"`
	Media     MediaConfig   `yaml:"media"`
	GitHub    GitHubConfig  `yaml:"github"`
	Discord   DiscordConfig `yaml:"discord"`
	DataDir   string        `yaml:"data_dir"`
	LogLevel  string        `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"` // text or json
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LLMConfig selects and configures the completion provider.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, ollama, openai, anthropic
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`

	// Temperature is passed to providers that accept it.
	Temperature float64 `yaml:"temperature"`

	// MaxRetries bounds completion attempts under rate limiting.
	MaxRetries int `yaml:"max_retries"`

	// RequestsPerMinute paces completion calls client-side. Zero disables pacing.
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// AgentConfig tunes the orchestration loop.
type AgentConfig struct {
	MaxIterations int `yaml:"max_iterations"`

	// CacheTTL expires cached answers. Zero keeps them for the process lifetime.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// CacheMaxEntries bounds the answer cache. Zero means unbounded.
	CacheMaxEntries int `yaml:"cache_max_entries"`
}

// WeatherConfig configures the OpenWeatherMap backend.
type WeatherConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Units   string `yaml:"units"`
}

// SMTPConfig configures outbound email.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	StartTLS bool   `yaml:"starttls"`
}

// Configured reports whether enough SMTP settings exist to send mail.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.From != ""
}

// SearchConfig configures web search providers.
type SearchConfig struct {
	Default       string `yaml:"default"` // stackoverflow, searxng, brave
	SearXNGURL    string `yaml:"searxng_url"`
	BraveAPIKey   string `yaml:"brave_api_key"`
	StackExchange struct {
		Key  string `yaml:"key"`
		Site string `yaml:"site"`
	} `yaml:"stackexchange"`
}

// MediaConfig configures transcript retrieval.
type MediaConfig struct {
	YtDlpPath          string `yaml:"yt_dlp_path"`
	SubtitleLanguage   string `yaml:"subtitle_language"`
	MaxTranscriptChars int    `yaml:"max_transcript_chars"`
}

// GitHubConfig configures the issue tool.
type GitHubConfig struct {
	Token       string `yaml:"token"`
	DefaultRepo string `yaml:"default_repo"` // owner/name
}

// Configured reports whether a token is present.
func (c GitHubConfig) Configured() bool {
	return c.Token != ""
}

// DiscordConfig configures the sharing webhook.
type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// LoadDotEnv loads KEY=value pairs from .env files into the process
// environment without overriding variables that are already set. The
// file beside the config file is read first, then one in the working
// directory. Missing files are not an error.
func LoadDotEnv(configPath string) {
	var files []string
	if configPath != "" {
		files = append(files, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	files = append(files, ".env")

	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

// Load reads configuration from a YAML file. Environment variables
// referenced as ${VAR} are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration usable without a config file. Secrets
// are picked up from the environment variables the original service used.
func Default() *Config {
	cfg := &Config{
		Listen: ListenConfig{Port: 8000},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
		},
		LLM: LLMConfig{
			Provider:    "gemini",
			Model:       "gemini-1.5-flash",
			Temperature: 0.7,
			MaxRetries:  3,
		},
		Agent: AgentConfig{MaxIterations: 5},
		Weather: WeatherConfig{
			BaseURL: "https://api.openweathermap.org/data/2.5/weather",
			Units:   "metric",
		},
		SMTP: SMTPConfig{
			Host:     "smtp.gmail.com",
			Port:     587,
			StartTLS: true,
		},
		Search:  SearchConfig{Default: "stackoverflow"},
		DataDir: ".",
	}
	return cfg
}

// FromEnv returns the default configuration with environment overrides
// applied. Used when no config file is found.
func FromEnv() (*Config, error) {
	cfg := Default()
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv fills secrets that were left empty from well-known variables.
func (c *Config) applyEnv() {
	setIfEmpty := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}

	switch c.LLM.Provider {
	case "gemini":
		setIfEmpty(&c.LLM.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	case "openai":
		setIfEmpty(&c.LLM.APIKey, "OPENAI_API_KEY")
	case "anthropic":
		setIfEmpty(&c.LLM.APIKey, "ANTHROPIC_API_KEY")
	}
	setIfEmpty(&c.Weather.APIKey, "OPENWEATHER_API_KEY")
	setIfEmpty(&c.SMTP.From, "SENDER_EMAIL")
	setIfEmpty(&c.SMTP.Username, "SENDER_EMAIL")
	setIfEmpty(&c.SMTP.Password, "SENDER_PASSWORD")
	setIfEmpty(&c.GitHub.Token, "GITHUB_TOKEN")
	setIfEmpty(&c.GitHub.DefaultRepo, "GITHUB_DEFAULT_REPO")
	setIfEmpty(&c.Discord.WebhookURL, "DISCORD_WEBHOOK")

	if v := os.Getenv("SMTP_SERVER"); v != "" {
		c.SMTP.Host = v
	}
}

func (c *Config) applyDefaults() {
	if c.Listen.Port == 0 {
		c.Listen.Port = 8000
	}
	if c.LLM.MaxRetries == 0 {
		c.LLM.MaxRetries = 3
	}
	if c.Agent.MaxIterations == 0 {
		c.Agent.MaxIterations = 5
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.Port != 465 {
		c.SMTP.StartTLS = true
	}
	if c.Search.StackExchange.Site == "" {
		c.Search.StackExchange.Site = "stackoverflow"
	}
	if c.DataDir == "" {
		c.DataDir = "."
	}
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "gemini", "ollama", "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider %q unknown (valid: gemini, ollama, openai, anthropic)", c.LLM.Provider)
	}
	if c.LLM.MaxRetries < 1 {
		return fmt.Errorf("llm.max_retries must be at least 1, got %d", c.LLM.MaxRetries)
	}
	if c.LLM.RequestsPerMinute < 0 {
		return fmt.Errorf("llm.requests_per_minute must not be negative, got %d", c.LLM.RequestsPerMinute)
	}
	if c.Agent.MaxIterations < 1 {
		return fmt.Errorf("agent.max_iterations must be at least 1, got %d", c.Agent.MaxIterations)
	}
	if c.Agent.CacheMaxEntries < 0 {
		return fmt.Errorf("agent.cache_max_entries must not be negative, got %d", c.Agent.CacheMaxEntries)
	}
	if c.Listen.Port < 1 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen.port %d out of range (1-65535)", c.Listen.Port)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format %q unknown (valid: text, json)", c.LogFormat)
	}
	return nil
}

// DatabasePath returns the SQLite database file inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "bob.db")
}
