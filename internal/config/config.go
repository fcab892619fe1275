package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/hubtab/internal/participants"
)

// FileName is the config file at the root of a ledger repo.
const FileName = "hubtab.yaml"

// Config represents the top-level hubtab.yaml configuration.
type Config struct {
	Lender       string         `yaml:"lender"`
	Participants []string       `yaml:"participants"`
	Store        StoreConfig    `yaml:"store"`
	Git          GitConfig      `yaml:"git"`
	Events       EventsConfig   `yaml:"events,omitempty"`
	Server       ServerConfig   `yaml:"server"`
	Log          LogConfig      `yaml:"log"`
	Activity     ActivityConfig `yaml:"activity"`
}

// StoreConfig selects the transaction store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"`        // csv, sqlite, postgres, memory
	Path    string `yaml:"path,omitempty"` // relative to the repo root
	DSN     string `yaml:"dsn,omitempty"`
}

// GitConfig controls committing the ledger after each change.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// EventsConfig enables publishing appended transactions.
type EventsConfig struct {
	Kafka KafkaConfig `yaml:"kafka,omitempty"`
}

// KafkaConfig is empty (disabled) unless brokers are listed.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers,omitempty"`
	Topic   string   `yaml:"topic,omitempty"`
}

// ServerConfig is used by `hubtab serve`.
type ServerConfig struct {
	Listen  string `yaml:"listen"`
	Metrics bool   `yaml:"metrics"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// ActivityConfig toggles logs/activity.csv.
type ActivityConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads a hubtab.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Lender == "" {
		cfg.Lender = participants.DefaultLender
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default(lender string) *Config {
	if lender == "" {
		lender = participants.DefaultLender
	}
	return &Config{
		Lender:       lender,
		Participants: participants.Defaults(),
		Store: StoreConfig{
			Backend: "csv",
			Path:    filepath.Join("ledger", "transactions.csv"),
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "hubtab",
			AuthorEmail: "hubtab@localhost",
		},
		Server: ServerConfig{
			Listen:  "127.0.0.1:8484",
			Metrics: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Activity: ActivityConfig{Enabled: true},
	}
}

// Environment overrides, read after an optional .env file.
const (
	EnvStoreBackend = "HUBTAB_STORE_BACKEND"
	EnvStoreDSN     = "HUBTAB_STORE_DSN"
	EnvKafkaBrokers = "HUBTAB_KAFKA_BROKERS"
	EnvLogLevel     = "HUBTAB_LOG_LEVEL"
	EnvListen       = "HUBTAB_LISTEN"
)

// ApplyEnv loads <dir>/.env when present and lets the environment override
// store, event, log and listen settings. Secrets such as the postgres DSN
// belong here rather than in the committed hubtab.yaml.
func (c *Config) ApplyEnv(dir string) error {
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("loading %s: %w", envPath, err)
		}
	}

	if v := os.Getenv(EnvStoreBackend); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv(EnvStoreDSN); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv(EnvKafkaBrokers); v != "" {
		c.Events.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Server.Listen = v
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
