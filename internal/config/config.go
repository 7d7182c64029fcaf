// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type AppConfig struct {
	Locale string `yaml:"locale" validate:"oneof=en ko"`
}

type HTTPConfig struct {
	Addr           string        `yaml:"addr" validate:"required"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RateLimit      struct {
		Requests int           `yaml:"requests"` // per client per window, 0 disables
		Window   time.Duration `yaml:"window"`
	} `yaml:"rate_limit"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type StoreConfig struct {
	Backend    string `yaml:"backend" validate:"oneof=memory postgres sqlite redis"`
	SQLitePath string `yaml:"sqlite_path"`
}

type AIConfig struct {
	Provider        string        `yaml:"provider" validate:"oneof=openai gemini noop"`
	OpenAIKey       string        `yaml:"openai_key"`
	BaseURL         string        `yaml:"base_url"` // OpenAI-compatible gateway, optional
	GeminiKey       string        `yaml:"gemini_key"`
	GeminiURL       string        `yaml:"gemini_url"`
	DefaultModel    string        `yaml:"default_model"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent AI calls
	RatePerSecond   float64       `yaml:"rate_per_second"`  // 0 disables
	CallTimeout     time.Duration `yaml:"call_timeout"`     // per attempt, 0 means none
}

type SummaryConfig struct {
	OptimalChunkChars     int    `yaml:"optimal_chunk_chars" validate:"gt=0"`
	MaxChunks             int    `yaml:"max_chunks" validate:"gt=0"`
	SystemPrompt          string `yaml:"system_prompt"`
	PartialPrompt         string `yaml:"partial_prompt"`
	FinalTranscriptPrompt string `yaml:"final_transcript_prompt"`
	FinalSummariesPrompt  string `yaml:"final_summaries_prompt"`
}

type PoolConfig struct {
	Workers int `yaml:"workers" validate:"gt=0"`
	Queue   int `yaml:"queue" validate:"gt=0"`
}

type PoolsConfig struct {
	IO       PoolConfig `yaml:"io"`
	Pipeline PoolConfig `yaml:"pipeline"`
	AI       PoolConfig `yaml:"ai"`
}

type NotifyConfig struct {
	IdleTimeout time.Duration `yaml:"idle_timeout" validate:"gt=0"`
	Buffer      int           `yaml:"buffer"`
}

type RetryConfig struct {
	Attempts          int           `yaml:"attempts" validate:"gt=0"`
	PartialDelay      time.Duration `yaml:"partial_delay"`
	PartialMultiplier float64       `yaml:"partial_multiplier" validate:"gte=1"`
	FinalDelay        time.Duration `yaml:"final_delay"`
	FinalMultiplier   float64       `yaml:"final_multiplier" validate:"gte=1"`
	MaxDelay          time.Duration `yaml:"max_delay"`
}

type SubtitleConfig struct {
	Provider        string        `yaml:"provider" validate:"oneof=ytdlp file"`
	Binary          string        `yaml:"binary"`
	Proxy           string        `yaml:"proxy"`
	CookiesFile     string        `yaml:"cookies_file"`
	TempDir         string        `yaml:"temp_dir"`
	FileDir         string        `yaml:"file_dir"` // used by the file provider
	CommandTimeout  time.Duration `yaml:"command_timeout"`
	JanitorInterval time.Duration `yaml:"janitor_interval"`
	TempMaxAge      time.Duration `yaml:"temp_max_age"`
	RetryAttempts   int           `yaml:"retry_attempts" validate:"gte=0"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
}

type Config struct {
	App      AppConfig      `yaml:"app"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Store    StoreConfig    `yaml:"store"`
	AI       AIConfig       `yaml:"ai"`
	Summary  SummaryConfig  `yaml:"summary"`
	Pools    PoolsConfig    `yaml:"pools"`
	Notify   NotifyConfig   `yaml:"notify"`
	Retry    RetryConfig    `yaml:"retry"`
	Subtitle SubtitleConfig `yaml:"subtitle"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path. A missing file is not an error:
// defaults plus environment overrides are enough to boot in dev.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if err := checkDependencies(&cfg); err != nil {
		return nil, err
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.AI.OpenAIKey == "" {
		cfg.AI.OpenAIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.AI.GeminiKey == "" {
		cfg.AI.GeminiKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" && cfg.Database.URL == "" {
		cfg.Database.URL = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Locale == "" {
		cfg.App.Locale = "en"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 15 * time.Second
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"https://www.youtube.com"}
	}
	if cfg.HTTP.RateLimit.Window <= 0 {
		cfg.HTTP.RateLimit.Window = time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "memory"
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = "jobs.db"
	}

	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	if cfg.AI.DefaultModel == "" {
		switch cfg.AI.Provider {
		case "gemini":
			cfg.AI.DefaultModel = "gemini-2.0-flash"
		default:
			cfg.AI.DefaultModel = "gpt-4o-mini"
		}
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}

	if cfg.Summary.OptimalChunkChars == 0 {
		cfg.Summary.OptimalChunkChars = 12000
	}
	if cfg.Summary.MaxChunks == 0 {
		cfg.Summary.MaxChunks = 4
	}

	cores := runtime.NumCPU()
	defaultPool(&cfg.Pools.IO, 2*cores, 100)
	defaultPool(&cfg.Pools.Pipeline, 10, 100)
	defaultPool(&cfg.Pools.AI, 10, 100)

	if cfg.Notify.IdleTimeout == 0 {
		cfg.Notify.IdleTimeout = 5 * time.Minute
	}
	if cfg.Notify.Buffer <= 0 {
		cfg.Notify.Buffer = 16
	}

	if cfg.Retry.Attempts == 0 {
		cfg.Retry.Attempts = 3
	}
	if cfg.Retry.PartialDelay <= 0 {
		cfg.Retry.PartialDelay = 2 * time.Second
	}
	if cfg.Retry.PartialMultiplier == 0 {
		cfg.Retry.PartialMultiplier = 1.5
	}
	if cfg.Retry.FinalDelay <= 0 {
		cfg.Retry.FinalDelay = 3 * time.Second
	}
	if cfg.Retry.FinalMultiplier == 0 {
		cfg.Retry.FinalMultiplier = 2.0
	}
	if cfg.Retry.MaxDelay <= 0 {
		cfg.Retry.MaxDelay = 30 * time.Second
	}

	if cfg.Subtitle.Provider == "" {
		cfg.Subtitle.Provider = "ytdlp"
	}
	if cfg.Subtitle.Binary == "" {
		cfg.Subtitle.Binary = "yt-dlp"
	}
	if cfg.Subtitle.TempDir == "" {
		cfg.Subtitle.TempDir = filepath.Join(os.TempDir(), "yt-subtitles")
	}
	if cfg.Subtitle.CommandTimeout <= 0 {
		cfg.Subtitle.CommandTimeout = 2 * time.Minute
	}
	if cfg.Subtitle.JanitorInterval <= 0 {
		cfg.Subtitle.JanitorInterval = 10 * time.Minute
	}
	if cfg.Subtitle.TempMaxAge <= 0 {
		cfg.Subtitle.TempMaxAge = time.Hour
	}
	if cfg.Subtitle.RetryAttempts == 0 {
		cfg.Subtitle.RetryAttempts = 3
	}
	if cfg.Subtitle.RetryDelay <= 0 {
		cfg.Subtitle.RetryDelay = 2 * time.Second
	}
}

func defaultPool(p *PoolConfig, workers, queue int) {
	if p.Workers == 0 {
		p.Workers = workers
	}
	if p.Queue == 0 {
		p.Queue = queue
	}
}

// checkDependencies covers cross-field rules that struct tags cannot express.
func checkDependencies(cfg *Config) error {
	switch cfg.Store.Backend {
	case "postgres":
		if cfg.Database.URL == "" {
			return fmt.Errorf("database.url is required for store.backend=postgres")
		}
	case "redis":
		if cfg.Redis.URL == "" {
			return fmt.Errorf("redis.url is required for store.backend=redis")
		}
	}
	switch cfg.AI.Provider {
	case "openai":
		if cfg.AI.OpenAIKey == "" {
			return fmt.Errorf("ai.openai_key is required for ai.provider=openai")
		}
	case "gemini":
		if cfg.AI.GeminiKey == "" {
			return fmt.Errorf("ai.gemini_key is required for ai.provider=gemini")
		}
	}
	if cfg.Subtitle.Provider == "file" && cfg.Subtitle.FileDir == "" {
		return fmt.Errorf("subtitle.file_dir is required for subtitle.provider=file")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 24 * time.Hour
	}
	return d
}
