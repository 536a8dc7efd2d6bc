package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP       HTTPConfig
	Store      StoreConfig
	Log        LogConfig
	Scheduler  SchedulerConfig
	S3         S3Config
	SourcesDir string
	Sources    map[string]*SourceConfig
}

type HTTPConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type StoreConfig struct {
	Driver      string // memory, json, sqlite, postgres
	DataDir     string
	DBPath      string
	DatabaseURL string
}

type LogConfig struct {
	Level      string
	File       string
	Format     string // text, json
	FluentHost string
	FluentPort int
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// SourceConfig describes one chat group whose exports are dropped into an
// inbox directory.
type SourceConfig struct {
	ID        string        `yaml:"id"`
	Name      string        `yaml:"name"`
	Format    string        `yaml:"format"` // txt, html
	Inbox     string        `yaml:"inbox"`
	Enabled   *bool         `yaml:"enabled"`
	DayFirst  bool          `yaml:"day_first"`
	Selectors HTMLSelectors `yaml:"selectors"`
}

// HTMLSelectors are CSS selectors for HTML chat exports.
type HTMLSelectors struct {
	Message string `yaml:"message"`
	Sender  string `yaml:"sender"`
	Text    string `yaml:"text"`
	Time    string `yaml:"time"`
	// TimeAttr reads the timestamp from an attribute instead of the text.
	TimeAttr string `yaml:"time_attr"`
}

func (s *SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTP: HTTPConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver:      getEnv("STORE_DRIVER", "sqlite"),
			DataDir:     getEnv("DATA_DIR", "data"),
			DBPath:      getEnv("DB_PATH", "listings.db"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       os.Getenv("LOG_FILE"),
			Format:     getEnv("LOG_FORMAT", "text"),
			FluentHost: os.Getenv("FLUENT_HOST"),
			FluentPort: getEnvInt("FLUENT_PORT", 24224),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("IMPORT_CRON"),
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		SourcesDir: getEnv("SOURCES_DIR", "config/sources"),
		Sources:    make(map[string]*SourceConfig),
	}

	if interval := os.Getenv("IMPORT_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("IMPORT_INTERVAL: %w", err)
		}
		cfg.Scheduler.Interval = d
	}

	switch cfg.Store.Driver {
	case "memory", "json", "sqlite":
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, fmt.Errorf("STORE_DRIVER=postgres requires DATABASE_URL")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}

	if err := cfg.loadSourceConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadSourceConfigs() error {
	entries, err := os.ReadDir(c.SourcesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(c.SourcesDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var src SourceConfig
		if err := yaml.Unmarshal(data, &src); err != nil {
			return fmt.Errorf("%s: %w", entry.Name(), err)
		}
		if err := src.normalize(); err != nil {
			return fmt.Errorf("%s: %w", entry.Name(), err)
		}

		c.Sources[src.ID] = &src
	}

	return nil
}

func (s *SourceConfig) normalize() error {
	if s.ID == "" {
		return fmt.Errorf("source id is required")
	}
	if s.Format == "" {
		s.Format = "txt"
	}
	if s.Format != "txt" && s.Format != "html" {
		return fmt.Errorf("source %s: unknown format %q", s.ID, s.Format)
	}
	if s.Inbox == "" {
		s.Inbox = filepath.Join("data", "inbox", s.ID)
	}
	if s.Format == "html" && s.Selectors.Message == "" {
		return fmt.Errorf("source %s: html format needs selectors.message", s.ID)
	}
	return nil
}

// SourceIDs returns configured source ids in sorted order.
func (c *Config) SourceIDs() []string {
	ids := make([]string, 0, len(c.Sources))
	for id := range c.Sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
