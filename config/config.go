package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration, read from the environment.
type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	Storage  StorageConfig
	Catalog  CatalogConfig
	Backup   BackupConfig
	R2       R2Config
	Analysis AnalysisSyncConfig
}

type AppConfig struct {
	Name            string
	Environment     string
	Version         string
	LogMode         string
	ShutdownTimeout time.Duration
}

type HTTPConfig struct {
	Addr           string
	GatewayToken   string
	AllowedOrigins []string
}

type StorageConfig struct {
	// DataFile is used when DatabaseURL is empty.
	DataFile    string
	DatabaseURL string
}

type CatalogConfig struct {
	LevelFile string
	BadgeFile string
}

type BackupConfig struct {
	// Interval 0 disables scheduled backups.
	Interval time.Duration
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
}

// Enabled reports whether enough settings are present to reach the bucket.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

type AnalysisSyncConfig struct {
	// URL empty disables the intake worker.
	URL      string
	Token    string
	Interval time.Duration
}

// LoadDotenv loads a .env file into the process environment. A missing file is
// reported but callers usually only log it.
func LoadDotenv(files ...string) error {
	return godotenv.Load(files...)
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:            getEnv("APP_NAME", "softtennis-coach"),
			Environment:     getEnv("APP_ENV", "development"),
			Version:         getEnv("APP_VERSION", "1.0.0"),
			LogMode:         getEnv("LOG_MODE", "dev"),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		HTTP: HTTPConfig{
			Addr:           getEnv("HTTP_ADDR", ":5200"),
			GatewayToken:   getEnv("GATEWAY_TOKEN", ""),
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Storage: StorageConfig{
			DataFile:    getEnv("PROGRESS_DATA_FILE", "data/user_progress.json"),
			DatabaseURL: getEnv("DATABASE_URL", ""),
		},
		Catalog: CatalogConfig{
			LevelFile: getEnv("LEVEL_CATALOG_FILE", ""),
			BadgeFile: getEnv("BADGE_CATALOG_FILE", ""),
		},
		Backup: BackupConfig{
			Interval: getEnvDuration("BACKUP_INTERVAL", time.Hour),
		},
		R2: R2Config{
			AccountID:       getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
			Bucket:          getEnv("R2_BUCKET_NAME", ""),
		},
		Analysis: AnalysisSyncConfig{
			URL:      strings.TrimRight(getEnv("ANALYSIS_SYNC_URL", ""), "/"),
			Token:    getEnv("ANALYSIS_SYNC_TOKEN", ""),
			Interval: getEnvDuration("ANALYSIS_SYNC_INTERVAL", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if c.Storage.DatabaseURL == "" && c.Storage.DataFile == "" {
		return fmt.Errorf("either DATABASE_URL or PROGRESS_DATA_FILE is required")
	}
	if c.Backup.Interval < 0 {
		return fmt.Errorf("BACKUP_INTERVAL must not be negative")
	}
	if c.Analysis.URL != "" && c.Analysis.Interval <= 0 {
		return fmt.Errorf("ANALYSIS_SYNC_INTERVAL must be positive when ANALYSIS_SYNC_URL is set")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		if secs, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return defaultVal
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
