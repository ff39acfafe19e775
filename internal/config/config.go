package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	EnvFile   string          `mapstructure:"env_file"`
	Preflight PreflightConfig `mapstructure:"preflight"`
	Source    SourceConfig    `mapstructure:"source"`
	Compose   ComposeConfig   `mapstructure:"compose"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Endpoints EndpointsConfig `mapstructure:"endpoints"`
	Readiness ReadinessConfig `mapstructure:"readiness"`
	Backup    BackupConfig    `mapstructure:"backup"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Schedule  string          `mapstructure:"schedule"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

type PreflightConfig struct {
	Checklist []string `mapstructure:"checklist"`
	Tools     []string `mapstructure:"tools"`
}

type SourceConfig struct {
	Remote string `mapstructure:"remote"`
	Branch string `mapstructure:"branch"`
}

type ComposeConfig struct {
	Binary     string `mapstructure:"binary"`
	File       string `mapstructure:"file"`
	Project    string `mapstructure:"project"`
	WebService string `mapstructure:"web_service"`

	MigrateCommand []string `mapstructure:"migrate_command"`
	TestCommand    []string `mapstructure:"test_command"`
}

type DatabaseConfig struct {
	Type     string `mapstructure:"type"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type EndpointsConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	HealthPath      string        `mapstructure:"health_path"`
	MaintenancePath string        `mapstructure:"maintenance_path"`
	WarmupPaths     []string      `mapstructure:"warmup_paths"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

type ReadinessConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	Interval time.Duration `mapstructure:"interval"`
}

type BackupConfig struct {
	Dir           string         `mapstructure:"dir"`
	ReportDir     string         `mapstructure:"report_dir"`
	Compress      bool           `mapstructure:"compress"`
	RetentionDays int            `mapstructure:"retention_days"`
	UploadTargets []UploadTarget `mapstructure:"upload_targets"`
}

type UploadTarget struct {
	Type    string `mapstructure:"type"`
	Enabled bool   `mapstructure:"enabled"`

	// Google Drive
	CredentialsFile  string `mapstructure:"credentials_file"`
	ClientSecretFile string `mapstructure:"client_secret_file"`
	FolderID         string `mapstructure:"folder_id"`

	// AWS S3
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`

	// Telegram
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	SendFile bool   `mapstructure:"send_file"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	BotToken   string `mapstructure:"bot_token"`
	ChatID     string `mapstructure:"chat_id"`
	SendReport bool   `mapstructure:"send_report"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("app.name", "telos")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("env_file", ".env.production")
	v.SetDefault("preflight.checklist", []string{"python3", "scripts/production_checklist.py"})
	v.SetDefault("preflight.tools", []string{"docker", "git", "pg_dump"})
	v.SetDefault("source.remote", "origin")
	v.SetDefault("source.branch", "main")
	v.SetDefault("compose.binary", "docker-compose")
	v.SetDefault("compose.web_service", "web")
	v.SetDefault("compose.migrate_command", []string{"flask", "db", "upgrade"})
	v.SetDefault("compose.test_command", []string{"pytest"})
	v.SetDefault("database.type", "postgresql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("endpoints.base_url", "http://localhost:5000")
	v.SetDefault("endpoints.health_path", "/health")
	v.SetDefault("endpoints.maintenance_path", "/api/admin/maintenance")
	v.SetDefault("endpoints.warmup_paths", []string{"/health", "/api/analytics/dashboard"})
	v.SetDefault("endpoints.request_timeout", "10s")
	v.SetDefault("readiness.timeout", "30s")
	v.SetDefault("readiness.interval", "2s")
	v.SetDefault("backup.dir", ".")
	v.SetDefault("backup.report_dir", ".")
	v.SetDefault("backup.compress", false)
	v.SetDefault("backup.retention_days", 0)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.EnvFile == "" {
		return fmt.Errorf("env_file is required")
	}
	if c.Endpoints.BaseURL == "" {
		return fmt.Errorf("endpoints.base_url is required")
	}
	if c.Compose.WebService == "" {
		return fmt.Errorf("compose.web_service is required")
	}
	if len(c.Preflight.Checklist) == 0 {
		return fmt.Errorf("preflight.checklist is required")
	}
	if c.Readiness.Timeout <= 0 {
		return fmt.Errorf("readiness.timeout must be positive")
	}
	if c.Readiness.Interval <= 0 {
		return fmt.Errorf("readiness.interval must be positive")
	}
	if c.Backup.Dir == "" {
		return fmt.Errorf("backup.dir is required")
	}

	for i, target := range c.Backup.UploadTargets {
		if target.Type == "" {
			return fmt.Errorf("backup.upload_targets[%d]: type is required", i)
		}
	}

	return nil
}

func (c *Config) GetEnabledUploadTargets() []UploadTarget {
	var enabled []UploadTarget
	for _, target := range c.Backup.UploadTargets {
		if target.Enabled {
			enabled = append(enabled, target)
		}
	}
	return enabled
}

// ComposeProject returns the configured compose project name, falling back
// to the working directory base name, which is what compose itself uses.
func (c *Config) ComposeProject() string {
	if c.Compose.Project != "" {
		return c.Compose.Project
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Base(wd)
}
