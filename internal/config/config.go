package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type (
	Config struct {
		Server       ServerConfig       `yaml:"server"`
		Database     DatabaseConfig     `yaml:"database"`
		Logger       LoggerConfig       `yaml:"logger"`
		JWT          JWTConfig          `yaml:"jwt"`
		Session      SessionConfig      `yaml:"session"`
		Mail         MailConfig         `yaml:"mail"`
		Notification NotificationConfig `yaml:"notification"`
		Numbering    NumberingConfig    `yaml:"numbering"`
		Metrics      MetricsConfig      `yaml:"metrics"`
		SuperAdmin   SuperAdminConfig   `yaml:"super_admin"`
	}

	ServerConfig struct {
		Port         int           `yaml:"port"`
		GinMode      string        `yaml:"gin_mode"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	}

	DatabaseConfig struct {
		Type     string `yaml:"type"`     // mysql, postgres, sqlite
		Host     string `yaml:"host"`     // localhost
		Port     int    `yaml:"port"`     // 3306 (for mysql), 5432 (for postgres)
		User     string `yaml:"user"`     // database user
		Password string `yaml:"password"` // password
		DBName   string `yaml:"dbname"`   // database name, or file path for sqlite
		SSLMode  string `yaml:"sslmode"`  // disable (for postgres)
		LogLevel string `yaml:"log_level"`
	}

	// LoggerConfig represents the logger configuration
	LoggerConfig struct {
		Level      string `yaml:"level"`       // debug, info, warn, error
		Format     string `yaml:"format"`      // json, console
		Output     string `yaml:"output"`      // stdout, file
		FilePath   string `yaml:"file_path"`   // path to log file when output is file
		MaxSize    int    `yaml:"max_size"`    // max size of log file in MB
		MaxBackups int    `yaml:"max_backups"` // max number of backup files
		MaxAge     int    `yaml:"max_age"`     // max age of backup files in days
		Compress   bool   `yaml:"compress"`    // whether to compress backup files
		Color      bool   `yaml:"color"`       // whether to use color in console output
		Stacktrace bool   `yaml:"stacktrace"`  // whether to include stacktrace in error logs
		TimeZone   string `yaml:"time_zone"`   // time zone for log timestamps
		TimeFormat string `yaml:"time_format"` // time format for log timestamps
	}

	JWTConfig struct {
		SecretKey string        `yaml:"secret_key"`
		Duration  time.Duration `yaml:"duration"`
	}

	SessionConfig struct {
		ValidationTTL time.Duration    `yaml:"validation_ttl"`
		Revocation    RevocationConfig `yaml:"revocation"`
	}

	RevocationConfig struct {
		Type  string      `yaml:"type"` // memory, redis
		Redis RedisConfig `yaml:"redis"`
	}

	RedisConfig struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	}

	MailConfig struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	}

	NotificationConfig struct {
		StockThreshold     float64 `yaml:"stock_threshold"`
		CriticalThreshold  float64 `yaml:"critical_threshold"`
		FallbackRecipients int     `yaml:"fallback_recipients"`
		Schedule           string  `yaml:"schedule"` // cron expression
		SchedulerEnabled   bool    `yaml:"scheduler_enabled"`
	}

	NumberingConfig struct {
		WorkOrderPrefix   string `yaml:"work_order_prefix"`
		DeliveryOrderCode string `yaml:"delivery_order_code"`
	}

	MetricsConfig struct {
		Enabled   bool   `yaml:"enabled"`
		Namespace string `yaml:"namespace"`
	}

	SuperAdminConfig struct {
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	}
)

var (
	ErrUnsupportedDatabase = errors.New("unsupported database type")
	ErrWeakJWTSecret       = errors.New("jwt secret key must be at least 32 characters")
)

// DefaultPath is used when neither --conf nor CONFIG_PATH is set.
const DefaultPath = "configs/backoffice.yaml"

// Load reads a YAML configuration file, resolving ${VAR:default} placeholders
// from the environment (and an optional .env file) before parsing.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML content.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(resolveEnv(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.GinMode == "" {
		c.Server.GinMode = "debug"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Database.Type == "" {
		c.Database.Type = "mysql"
	}
	if c.JWT.Duration == 0 {
		c.JWT.Duration = 24 * time.Hour
	}
	if c.Session.ValidationTTL == 0 {
		c.Session.ValidationTTL = 5 * time.Minute
	}
	if c.Session.Revocation.Type == "" {
		c.Session.Revocation.Type = "memory"
	}
	if c.Session.Revocation.Redis.Prefix == "" {
		c.Session.Revocation.Redis.Prefix = "backoffice:revoked:"
	}
	if c.Notification.StockThreshold == 0 {
		c.Notification.StockThreshold = 500
	}
	if c.Notification.CriticalThreshold == 0 {
		c.Notification.CriticalThreshold = 100
	}
	if c.Notification.FallbackRecipients == 0 {
		c.Notification.FallbackRecipients = 10
	}
	if c.Notification.Schedule == "" {
		c.Notification.Schedule = "0 7 * * *"
	}
	if c.Numbering.WorkOrderPrefix == "" {
		c.Numbering.WorkOrderPrefix = "WO"
	}
	if c.Numbering.DeliveryOrderCode == "" {
		c.Numbering.DeliveryOrderCode = "DO"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "backoffice"
	}
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDatabase, c.Database.Type)
	}
	if len(c.JWT.SecretKey) < 32 {
		return ErrWeakJWTSecret
	}
	return nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	switch c.Type {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.User, c.Password, c.Host, c.Port, c.DBName)
	case "sqlite":
		if dir := filepath.Dir(c.DBName); dir != "." {
			_ = os.MkdirAll(dir, 0755)
		}
		return c.DBName
	default:
		return ""
	}
}

var envPlaceholder = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// resolveEnv replaces environment variable placeholders in YAML content
func resolveEnv(content []byte) []byte {
	return envPlaceholder.ReplaceAllFunc(content, func(match []byte) []byte {
		matches := envPlaceholder.FindSubmatch(match)
		if value, exists := os.LookupEnv(string(matches[1])); exists {
			return []byte(value)
		}
		return matches[2]
	})
}
