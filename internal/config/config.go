// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Retention RetentionConfig `mapstructure:"retention"`
	AI        AIConfig        `mapstructure:"ai"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// FeedConfig governs the ingestion pipeline.
type FeedConfig struct {
	URL string `mapstructure:"url"`
	// Keywords is the comma-separated profession keyword list.
	Keywords string `mapstructure:"keywords"`
	// Profession is the target profession label, also the tag vocabulary key.
	Profession string `mapstructure:"profession"`
	// Language is the target content language code (e.g. "pt").
	Language string `mapstructure:"language"`
	// SiteURL is the deployment site base URL, used for country inference.
	SiteURL string `mapstructure:"site_url"`
	// Schedule is the cron spec for the timer trigger.
	Schedule  string `mapstructure:"schedule"`
	BatchSize int    `mapstructure:"batch_size"`
	UserAgent string `mapstructure:"user_agent"`
	// ConnectTimeoutSeconds bounds waiting for response headers; the body
	// itself streams without a deadline.
	ConnectTimeoutSeconds int `mapstructure:"connect_timeout_seconds"`
}

// RetentionConfig caps stored jobs.
type RetentionConfig struct {
	MaxJobs int64 `mapstructure:"max_jobs"`
}

// AIConfig controls the AI rewrite path.
type AIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	// ProcessLimit caps AI rewrites per run; 0 means unlimited.
	ProcessLimit int `mapstructure:"process_limit"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// RedisConfig points at the stats cache; empty URL disables it.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// ArchiveConfig selects the raw-feed archive backend.
type ArchiveConfig struct {
	// Provider is one of "none", "local", "gcs".
	Provider string `mapstructure:"provider"`
	Bucket   string `mapstructure:"bucket"`
	BaseDir  string `mapstructure:"base_dir"`
	Prefix   string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for run-completion notifications; empty
// project disables publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
	// Level is a zap level name ("debug", "info", "warn", "error").
	Level string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INGESTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("feed.language", "pt")
	v.SetDefault("feed.schedule", "0 */6 * * *")
	v.SetDefault("feed.batch_size", 100)
	v.SetDefault("feed.user_agent", "vagasfeed-ingestor/0.1")
	v.SetDefault("feed.connect_timeout_seconds", 30)
	v.SetDefault("retention.max_jobs", 500)
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.process_limit", 0)
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("archive.provider", "none")
	v.SetDefault("archive.prefix", "feeds")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url is required")
	}
	if c.Feed.Profession == "" {
		return fmt.Errorf("feed.profession is required")
	}
	if len(c.KeywordList()) == 0 {
		return fmt.Errorf("feed.keywords must contain at least one keyword")
	}
	if c.Feed.BatchSize <= 0 {
		return fmt.Errorf("feed.batch_size must be > 0")
	}
	if c.Retention.MaxJobs <= 0 {
		return fmt.Errorf("retention.max_jobs must be > 0")
	}
	if c.AI.Enabled && c.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key must be set when ai is enabled")
	}
	if c.AI.ProcessLimit < 0 {
		return fmt.Errorf("ai.process_limit must be >= 0")
	}
	switch c.Archive.Provider {
	case "", "none":
	case "local":
		if c.Archive.BaseDir == "" {
			return fmt.Errorf("archive.base_dir is required for the local provider")
		}
	case "gcs":
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive.bucket is required for the gcs provider")
		}
	default:
		return fmt.Errorf("unknown archive provider: %s", c.Archive.Provider)
	}
	return nil
}

// KeywordList splits the configured comma-separated keywords, trimmed,
// with empties dropped.
func (c Config) KeywordList() []string {
	var out []string
	for _, kw := range strings.Split(c.Feed.Keywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// ConnectTimeout converts the feed connect timeout to a duration.
func (c Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Feed.ConnectTimeoutSeconds) * time.Second
}
