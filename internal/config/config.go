// Package config provides configuration management for the ITSM application.
// It handles loading configuration from YAML files, applying environment variable
// overrides and command line flags, and validating configuration values for the
// server, storage, JWT, credential encryption, logging, security, reports, email,
// background tasks and telemetry.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Crypto    CryptoConfig    `yaml:"crypto"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
	Reports   ReportsConfig   `yaml:"reports"`
	Email     EmailConfig     `yaml:"email"`
	Tasks     TasksConfig     `yaml:"tasks"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	Host         string        `yaml:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled"`
	TLSCert      string        `yaml:"tls_cert"`
	TLSKey       string        `yaml:"tls_key"`
}

// DatabaseConfig holds storage configuration
type DatabaseConfig struct {
	Type     string         `yaml:"type"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
	Mongo    MongoConfig    `yaml:"mongo"`
}

// SQLiteConfig holds SQLite-specific configuration. Driver selects between
// the cgo driver ("sqlite3") and the pure Go driver ("sqlite").
type SQLiteConfig struct {
	Path   string `yaml:"path"`
	Driver string `yaml:"driver"`
}

// PostgresConfig holds PostgreSQL-specific configuration
type PostgresConfig struct {
	Driver       string `yaml:"driver"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Database     string `yaml:"database"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// MongoConfig holds MongoDB-specific configuration
type MongoConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// JWTConfig holds JWT authentication configuration
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	Expiration time.Duration `yaml:"expiration"`
	Issuer     string        `yaml:"issuer"`
}

// CryptoConfig holds the credential encryption key. The key is hex or base64
// encoded and must decode to 32 bytes.
type CryptoConfig struct {
	EncryptionKey string `yaml:"encryption_key"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSEnabled       bool     `yaml:"cors_enabled"`
	CORSOrigins       []string `yaml:"cors_origins"`
	RateLimitEnabled  bool     `yaml:"rate_limit_enabled"`
	RateLimitRequests int      `yaml:"rate_limit_requests"`
	RateLimitWindow   string   `yaml:"rate_limit_window"`
	RateLimitBurst    int      `yaml:"rate_limit_burst"`
}

// ReportsConfig holds report generation settings
type ReportsConfig struct {
	OutputDir       string `yaml:"output_dir"`
	DefaultTemplate string `yaml:"default_template"`
}

// EmailConfig holds outbound email settings
type EmailConfig struct {
	Provider       string `yaml:"provider"`
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	Sender         string `yaml:"sender"`
	SenderName     string `yaml:"sender_name"`
}

// TasksConfig holds background task queue settings
type TasksConfig struct {
	Workers        int           `yaml:"workers"`
	QueueSize      int           `yaml:"queue_size"`
	MaxAttempts    int           `yaml:"max_attempts"`
	Backoff        time.Duration `yaml:"backoff"`
	DeadLetterPath string        `yaml:"dead_letter_path"`
}

// BootstrapConfig holds the first-boot administrator account
type BootstrapConfig struct {
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
	AdminName     string `yaml:"admin_name"`
}

// TelemetryConfig holds OpenTelemetry exporter settings. Tracing is disabled
// when OTLPEndpoint is empty.
type TelemetryConfig struct {
	ServiceName  string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
	Metrics      bool   `yaml:"metrics"`
}

// Default bootstrap credentials, used only when none are configured.
const (
	DefaultAdminEmail    = "admin@itsm.com"
	DefaultAdminPassword = "admin123"
)

// Default returns a configuration populated with default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8000,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			SQLite: SQLiteConfig{
				Path:   "./data/itsm.db",
				Driver: "sqlite3",
			},
			Postgres: PostgresConfig{
				Driver:       "pq",
				Port:         5432,
				SSLMode:      "disable",
				MaxOpenConns: 25,
				MaxIdleConns: 5,
			},
			Mongo: MongoConfig{
				Database:       "itsm",
				ConnectTimeout: 10 * time.Second,
			},
		},
		JWT: JWTConfig{
			Expiration: 24 * time.Hour,
			Issuer:     "itsm",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			CORSEnabled:       true,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 300,
			RateLimitWindow:   "1m",
			RateLimitBurst:    50,
		},
		Reports: ReportsConfig{
			OutputDir:       "./data/reportes",
			DefaultTemplate: "clasico",
		},
		Email: EmailConfig{
			Provider:   "log",
			Sender:     "noreply@itsm.com",
			SenderName: "Sistema ITSM",
		},
		Tasks: TasksConfig{
			Workers:        2,
			QueueSize:      100,
			MaxAttempts:    3,
			Backoff:        2 * time.Second,
			DeadLetterPath: "./data/tareas.db",
		},
		Bootstrap: BootstrapConfig{
			AdminEmail:    DefaultAdminEmail,
			AdminPassword: DefaultAdminPassword,
			AdminName:     "Administrador",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "itsm",
			Metrics:     true,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if it
// exists), ITSM_* environment variables and finally command line flags.
func Load(path string, flags *Flags) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// defaults only
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if flags != nil {
		if err := cfg.applyFlags(flags); err != nil {
			return nil, fmt.Errorf("invalid flag value: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func (c *Config) applyEnvOverrides() {
	// Server overrides
	if port := os.Getenv("ITSM_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if host := os.Getenv("ITSM_SERVER_HOST"); host != "" {
		c.Server.Host = host
	}

	// Database overrides
	if dbType := os.Getenv("ITSM_DB_TYPE"); dbType != "" {
		c.Database.Type = dbType
	}
	if dbPath := os.Getenv("ITSM_DB_SQLITE_PATH"); dbPath != "" {
		c.Database.SQLite.Path = dbPath
	}
	if pgHost := os.Getenv("ITSM_DB_POSTGRES_HOST"); pgHost != "" {
		c.Database.Postgres.Host = pgHost
	}
	if pgPort := os.Getenv("ITSM_DB_POSTGRES_PORT"); pgPort != "" {
		if p, err := strconv.Atoi(pgPort); err == nil {
			c.Database.Postgres.Port = p
		}
	}
	if pgDB := os.Getenv("ITSM_DB_POSTGRES_DATABASE"); pgDB != "" {
		c.Database.Postgres.Database = pgDB
	}
	if pgUser := os.Getenv("ITSM_DB_POSTGRES_USER"); pgUser != "" {
		c.Database.Postgres.User = pgUser
	}
	if pgPass := os.Getenv("ITSM_DB_POSTGRES_PASSWORD"); pgPass != "" {
		c.Database.Postgres.Password = pgPass
	}
	if mongoURI := os.Getenv("ITSM_DB_MONGO_URI"); mongoURI != "" {
		c.Database.Mongo.URI = mongoURI
	}
	if mongoDB := os.Getenv("ITSM_DB_MONGO_DATABASE"); mongoDB != "" {
		c.Database.Mongo.Database = mongoDB
	}

	// Secrets
	if jwtSecret := os.Getenv("ITSM_JWT_SECRET"); jwtSecret != "" {
		c.JWT.Secret = jwtSecret
	}
	if key := os.Getenv("ITSM_ENCRYPTION_KEY"); key != "" {
		c.Crypto.EncryptionKey = key
	}
	if apiKey := os.Getenv("ITSM_SENDGRID_API_KEY"); apiKey != "" {
		c.Email.SendGridAPIKey = apiKey
	}
	if provider := os.Getenv("ITSM_EMAIL_PROVIDER"); provider != "" {
		c.Email.Provider = provider
	}
	if sender := os.Getenv("ITSM_EMAIL_SENDER"); sender != "" {
		c.Email.Sender = sender
	}
	if adminPass := os.Getenv("ITSM_BOOTSTRAP_ADMIN_PASSWORD"); adminPass != "" {
		c.Bootstrap.AdminPassword = adminPass
	}

	// CORS origins, comma separated
	if origins := os.Getenv("ITSM_CORS_ORIGINS"); origins != "" {
		c.Security.CORSOrigins = splitAndTrim(origins)
	}

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		c.Telemetry.OTLPEndpoint = endpoint
	}
	if os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true" {
		c.Telemetry.Insecure = true
	}

	// Logging overrides
	if logLevel := os.Getenv("ITSM_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// applyFlags applies explicitly set command line flags
func (c *Config) applyFlags(f *Flags) error {
	if v, ok := f.GetServerPort(); ok {
		c.Server.Port = v
	}
	if v, ok := f.GetServerHost(); ok {
		c.Server.Host = v
	}
	if v, ok := f.GetServerReadTimeout(); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("server.read-timeout: %w", err)
		}
		c.Server.ReadTimeout = d
	}
	if v, ok := f.GetServerWriteTimeout(); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("server.write-timeout: %w", err)
		}
		c.Server.WriteTimeout = d
	}
	if v, ok := f.GetServerTLSEnabled(); ok {
		c.Server.TLSEnabled = v
	}
	if v, ok := f.GetServerTLSCert(); ok {
		c.Server.TLSCert = v
	}
	if v, ok := f.GetServerTLSKey(); ok {
		c.Server.TLSKey = v
	}
	if v, ok := f.GetDBType(); ok {
		c.Database.Type = v
	}
	if v, ok := f.GetDBSQLitePath(); ok {
		c.Database.SQLite.Path = v
	}
	if v, ok := f.GetDBSQLiteDriver(); ok {
		c.Database.SQLite.Driver = v
	}
	if v, ok := f.GetDBPostgresDriver(); ok {
		c.Database.Postgres.Driver = v
	}
	if v, ok := f.GetDBPostgresHost(); ok {
		c.Database.Postgres.Host = v
	}
	if v, ok := f.GetDBPostgresPort(); ok {
		c.Database.Postgres.Port = v
	}
	if v, ok := f.GetDBPostgresDatabase(); ok {
		c.Database.Postgres.Database = v
	}
	if v, ok := f.GetDBPostgresUser(); ok {
		c.Database.Postgres.User = v
	}
	if v, ok := f.GetDBPostgresPassword(); ok {
		c.Database.Postgres.Password = v
	}
	if v, ok := f.GetDBPostgresSSLMode(); ok {
		c.Database.Postgres.SSLMode = v
	}
	if v, ok := f.GetDBMongoURI(); ok {
		c.Database.Mongo.URI = v
	}
	if v, ok := f.GetDBMongoDatabase(); ok {
		c.Database.Mongo.Database = v
	}
	if v, ok := f.GetJWTSecret(); ok {
		c.JWT.Secret = v
	}
	if v, ok := f.GetJWTExpiration(); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("jwt.expiration: %w", err)
		}
		c.JWT.Expiration = d
	}
	if v, ok := f.GetJWTIssuer(); ok {
		c.JWT.Issuer = v
	}
	if v, ok := f.GetCryptoEncryptionKey(); ok {
		c.Crypto.EncryptionKey = v
	}
	if v, ok := f.GetLogLevel(); ok {
		c.Logging.Level = v
	}
	if v, ok := f.GetLogFormat(); ok {
		c.Logging.Format = v
	}
	if v, ok := f.GetLogOutput(); ok {
		c.Logging.Output = v
	}
	if v, ok := f.GetSecurityCORSEnabled(); ok {
		c.Security.CORSEnabled = v
	}
	if v, ok := f.GetSecurityCORSOrigins(); ok {
		c.Security.CORSOrigins = v
	}
	if v, ok := f.GetSecurityRateLimitEnabled(); ok {
		c.Security.RateLimitEnabled = v
	}
	if v, ok := f.GetSecurityRateLimitRequests(); ok {
		c.Security.RateLimitRequests = v
	}
	if v, ok := f.GetSecurityRateLimitWindow(); ok {
		c.Security.RateLimitWindow = v
	}
	if v, ok := f.GetReportsOutputDir(); ok {
		c.Reports.OutputDir = v
	}
	if v, ok := f.GetReportsDefaultTemplate(); ok {
		c.Reports.DefaultTemplate = v
	}
	if v, ok := f.GetEmailProvider(); ok {
		c.Email.Provider = v
	}
	if v, ok := f.GetEmailSender(); ok {
		c.Email.Sender = v
	}
	if v, ok := f.GetTasksWorkers(); ok {
		c.Tasks.Workers = v
	}
	if v, ok := f.GetTasksMaxAttempts(); ok {
		c.Tasks.MaxAttempts = v
	}
	if v, ok := f.GetTasksDeadLetterPath(); ok {
		c.Tasks.DeadLetterPath = v
	}
	if v, ok := f.GetTelemetryOTLPEndpoint(); ok {
		c.Telemetry.OTLPEndpoint = v
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.TLSEnabled {
		if c.Server.TLSCert == "" || c.Server.TLSKey == "" {
			return fmt.Errorf("TLS enabled but cert or key not specified")
		}
	}

	// Validate database config
	switch c.Database.Type {
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return fmt.Errorf("SQLite path not specified")
		}
		if d := c.Database.SQLite.Driver; d != "" && d != "sqlite3" && d != "sqlite" {
			return fmt.Errorf("invalid SQLite driver: %s (must be 'sqlite3' or 'sqlite')", d)
		}
	case "postgres":
		if c.Database.Postgres.Host == "" || c.Database.Postgres.Database == "" {
			return fmt.Errorf("PostgreSQL host and database must be specified")
		}
		if d := c.Database.Postgres.Driver; d != "" && d != "pq" && d != "pgx" {
			return fmt.Errorf("invalid PostgreSQL driver: %s (must be 'pq' or 'pgx')", d)
		}
	case "mongo":
		if c.Database.Mongo.URI == "" || c.Database.Mongo.Database == "" {
			return fmt.Errorf("MongoDB uri and database must be specified")
		}
	default:
		return fmt.Errorf("invalid database type: %s (must be 'sqlite', 'postgres' or 'mongo')", c.Database.Type)
	}

	// Secrets may be empty; they are generated and persisted on first boot
	if c.JWT.Expiration <= 0 {
		return fmt.Errorf("JWT expiration must be positive")
	}
	if c.Crypto.EncryptionKey != "" {
		if _, err := c.EncryptionKeyBytes(); err != nil {
			return err
		}
	}

	// Validate logging config
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Security.RateLimitEnabled {
		if c.Security.RateLimitRequests < 1 {
			return fmt.Errorf("rate limit requests must be at least 1")
		}
		if _, err := c.RateLimitWindowDuration(); err != nil {
			return err
		}
	}

	switch c.Email.Provider {
	case "log", "noop":
	case "sendgrid":
		if c.Email.SendGridAPIKey == "" {
			return fmt.Errorf("sendgrid provider requires sendgrid_api_key")
		}
	default:
		return fmt.Errorf("invalid email provider: %s", c.Email.Provider)
	}

	if c.Tasks.Workers < 1 {
		return fmt.Errorf("tasks workers must be at least 1")
	}
	if c.Tasks.MaxAttempts < 1 {
		return fmt.Errorf("tasks max attempts must be at least 1")
	}
	if c.Reports.OutputDir == "" {
		return fmt.Errorf("reports output directory not specified")
	}

	return nil
}

// EncryptionKeyBytes decodes the configured credential encryption key
func (c *Config) EncryptionKeyBytes() ([]byte, error) {
	raw := strings.TrimSpace(c.Crypto.EncryptionKey)
	if raw == "" {
		return nil, fmt.Errorf("encryption key not specified")
	}
	if key, err := hex.DecodeString(raw); err == nil && len(key) == 32 {
		return key, nil
	}
	if key, err := base64.StdEncoding.DecodeString(raw); err == nil && len(key) == 32 {
		return key, nil
	}
	return nil, fmt.Errorf("encryption key must be 32 bytes encoded as hex or base64")
}

// RateLimitWindowDuration parses the rate limit window
func (c *Config) RateLimitWindowDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Security.RateLimitWindow)
	if err != nil {
		return 0, fmt.Errorf("invalid rate limit window: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("rate limit window must be positive")
	}
	return d, nil
}

// GetDSN returns the database connection string based on the configured type
func (c *Config) GetDSN() string {
	switch c.Database.Type {
	case "sqlite":
		return c.Database.SQLite.Path
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Database.Postgres.Host,
			c.Database.Postgres.Port,
			c.Database.Postgres.User,
			c.Database.Postgres.Password,
			c.Database.Postgres.Database,
			c.Database.Postgres.SSLMode,
		)
	case "mongo":
		return c.Database.Mongo.URI
	default:
		return ""
	}
}

// UsesDefaultAdminPassword reports whether the bootstrap administrator still
// uses the built-in password.
func (c *Config) UsesDefaultAdminPassword() bool {
	return c.Bootstrap.AdminPassword == DefaultAdminPassword
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
