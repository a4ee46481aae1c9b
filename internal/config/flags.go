package config

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

// Flags holds all command line flag values
type Flags struct {
	fs *flag.FlagSet

	// General
	configFile *string
	version    *bool

	// Server
	serverPort         *int
	serverHost         *string
	serverReadTimeout  *string
	serverWriteTimeout *string
	serverTLSEnabled   *bool
	serverTLSCert      *string
	serverTLSKey       *string

	// Database
	dbType             *string
	dbSQLitePath       *string
	dbSQLiteDriver     *string
	dbPostgresDriver   *string
	dbPostgresHost     *string
	dbPostgresPort     *int
	dbPostgresDatabase *string
	dbPostgresUser     *string
	dbPostgresPassword *string
	dbPostgresSSLMode  *string
	dbMongoURI         *string
	dbMongoDatabase    *string

	// JWT
	jwtSecret     *string
	jwtExpiration *string
	jwtIssuer     *string

	// Crypto
	cryptoEncryptionKey *string

	// Logging
	logLevel  *string
	logFormat *string
	logOutput *string

	// Security
	securityCORSEnabled       *bool
	securityCORSOrigins       *[]string
	securityRateLimitEnabled  *bool
	securityRateLimitRequests *int
	securityRateLimitWindow   *string

	// Reports
	reportsOutputDir       *string
	reportsDefaultTemplate *string

	// Email
	emailProvider *string
	emailSender   *string

	// Tasks
	tasksWorkers        *int
	tasksMaxAttempts    *int
	tasksDeadLetterPath *string

	// Telemetry
	telemetryOTLPEndpoint *string
}

// ParseFlags defines and parses all command line flags from os.Args
func ParseFlags() (*Flags, string, bool) {
	f := NewFlags(flag.CommandLine)

	f.fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "ITSM - IT service management backend for empresas, equipos, bitacoras and servicios\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		f.fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nConfiguration priority (highest to lowest):\n")
		fmt.Fprintf(os.Stderr, "  1. Command line flags\n")
		fmt.Fprintf(os.Stderr, "  2. Environment variables (ITSM_*)\n")
		fmt.Fprintf(os.Stderr, "  3. Configuration file (default: config.yaml)\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  # Start with custom config file\n")
		fmt.Fprintf(os.Stderr, "  %s --config /etc/itsm/config.yaml\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Use MongoDB\n")
		fmt.Fprintf(os.Stderr, "  %s --db.type mongo --db.mongo.uri mongodb://localhost:27017\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Use PostgreSQL through pgx\n")
		fmt.Fprintf(os.Stderr, "  %s --db.type postgres --db.postgres.driver pgx --db.postgres.host db.example.com\n\n", os.Args[0])
	}

	_ = f.fs.Parse(os.Args[1:])

	return f, *f.configFile, *f.version
}

// NewFlags defines all flags on fs without parsing them
func NewFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}

	// General flags
	f.configFile = fs.StringP("config", "c", "config.yaml", "Path to configuration file")
	f.version = fs.BoolP("version", "v", false, "Print version and exit")

	// Server flags
	f.serverPort = fs.Int("server.port", 0, "HTTP server port")
	f.serverHost = fs.String("server.host", "", "HTTP server bind address")
	f.serverReadTimeout = fs.String("server.read-timeout", "", "Server read timeout (e.g., 30s)")
	f.serverWriteTimeout = fs.String("server.write-timeout", "", "Server write timeout (e.g., 30s)")
	f.serverTLSEnabled = fs.Bool("server.tls-enabled", false, "Enable HTTPS")
	f.serverTLSCert = fs.String("server.tls-cert", "", "Path to TLS certificate")
	f.serverTLSKey = fs.String("server.tls-key", "", "Path to TLS key")

	// Database flags
	f.dbType = fs.String("db.type", "", "Database type (sqlite, postgres or mongo)")
	f.dbSQLitePath = fs.String("db.sqlite.path", "", "SQLite database file path")
	f.dbSQLiteDriver = fs.String("db.sqlite.driver", "", "SQLite driver (sqlite3 or sqlite)")
	f.dbPostgresDriver = fs.String("db.postgres.driver", "", "PostgreSQL driver (pq or pgx)")
	f.dbPostgresHost = fs.String("db.postgres.host", "", "PostgreSQL host")
	f.dbPostgresPort = fs.Int("db.postgres.port", 0, "PostgreSQL port")
	f.dbPostgresDatabase = fs.String("db.postgres.database", "", "PostgreSQL database name")
	f.dbPostgresUser = fs.String("db.postgres.user", "", "PostgreSQL user")
	f.dbPostgresPassword = fs.String("db.postgres.password", "", "PostgreSQL password")
	f.dbPostgresSSLMode = fs.String("db.postgres.ssl-mode", "", "PostgreSQL SSL mode")
	f.dbMongoURI = fs.String("db.mongo.uri", "", "MongoDB connection URI")
	f.dbMongoDatabase = fs.String("db.mongo.database", "", "MongoDB database name")

	// JWT flags
	f.jwtSecret = fs.String("jwt.secret", "", "JWT secret key")
	f.jwtExpiration = fs.String("jwt.expiration", "", "JWT expiration duration (e.g., 24h)")
	f.jwtIssuer = fs.String("jwt.issuer", "", "JWT issuer")

	// Crypto flags
	f.cryptoEncryptionKey = fs.String("crypto.encryption-key", "", "32-byte credential encryption key (hex or base64)")

	// Logging flags
	f.logLevel = fs.StringP("log.level", "l", "", "Log level (debug, info, warn, error)")
	f.logFormat = fs.String("log.format", "", "Log format (json or console)")
	f.logOutput = fs.String("log.output", "", "Log output (stdout or file path)")

	// Security flags
	f.securityCORSEnabled = fs.Bool("security.cors-enabled", false, "Enable CORS")
	f.securityCORSOrigins = fs.StringSlice("security.cors-origins", nil, "CORS allowed origins (can be specified multiple times)")
	f.securityRateLimitEnabled = fs.Bool("security.rate-limit-enabled", false, "Enable rate limiting")
	f.securityRateLimitRequests = fs.Int("security.rate-limit-requests", 0, "Rate limit requests per window")
	f.securityRateLimitWindow = fs.String("security.rate-limit-window", "", "Rate limit window duration (e.g., 1m)")

	// Reports flags
	f.reportsOutputDir = fs.String("reports.output-dir", "", "Directory for generated PDF reports")
	f.reportsDefaultTemplate = fs.String("reports.default-template", "", "Default report layout (clasico, moderno or compacto)")

	// Email flags
	f.emailProvider = fs.String("email.provider", "", "Email provider (sendgrid, log or noop)")
	f.emailSender = fs.String("email.sender", "", "Sender address for notifications")

	// Task flags
	f.tasksWorkers = fs.Int("tasks.workers", 0, "Background task workers")
	f.tasksMaxAttempts = fs.Int("tasks.max-attempts", 0, "Attempts before a task is dead-lettered")
	f.tasksDeadLetterPath = fs.String("tasks.dead-letter-path", "", "Path of the dead letter journal")

	// Telemetry flags
	f.telemetryOTLPEndpoint = fs.String("telemetry.otlp-endpoint", "", "OTLP gRPC endpoint for traces")

	return f
}

func (f *Flags) changed(name string) bool {
	fl := f.fs.Lookup(name)
	return fl != nil && fl.Changed
}

// GetServerPort returns the server port flag value and whether it was set
func (f *Flags) GetServerPort() (int, bool) {
	return *f.serverPort, f.changed("server.port")
}

// GetServerHost returns the server host flag value and whether it was set
func (f *Flags) GetServerHost() (string, bool) {
	return *f.serverHost, f.changed("server.host")
}

// GetServerReadTimeout returns the server read timeout flag value and whether it was set
func (f *Flags) GetServerReadTimeout() (string, bool) {
	return *f.serverReadTimeout, f.changed("server.read-timeout")
}

// GetServerWriteTimeout returns the server write timeout flag value and whether it was set
func (f *Flags) GetServerWriteTimeout() (string, bool) {
	return *f.serverWriteTimeout, f.changed("server.write-timeout")
}

// GetServerTLSEnabled returns the server TLS enabled flag value and whether it was set
func (f *Flags) GetServerTLSEnabled() (bool, bool) {
	return *f.serverTLSEnabled, f.changed("server.tls-enabled")
}

// GetServerTLSCert returns the server TLS cert flag value and whether it was set
func (f *Flags) GetServerTLSCert() (string, bool) {
	return *f.serverTLSCert, f.changed("server.tls-cert")
}

// GetServerTLSKey returns the server TLS key flag value and whether it was set
func (f *Flags) GetServerTLSKey() (string, bool) {
	return *f.serverTLSKey, f.changed("server.tls-key")
}

// GetDBType returns the database type flag value and whether it was set
func (f *Flags) GetDBType() (string, bool) {
	return *f.dbType, f.changed("db.type")
}

// GetDBSQLitePath returns the SQLite path flag value and whether it was set
func (f *Flags) GetDBSQLitePath() (string, bool) {
	return *f.dbSQLitePath, f.changed("db.sqlite.path")
}

// GetDBSQLiteDriver returns the SQLite driver flag value and whether it was set
func (f *Flags) GetDBSQLiteDriver() (string, bool) {
	return *f.dbSQLiteDriver, f.changed("db.sqlite.driver")
}

// GetDBPostgresDriver returns the PostgreSQL driver flag value and whether it was set
func (f *Flags) GetDBPostgresDriver() (string, bool) {
	return *f.dbPostgresDriver, f.changed("db.postgres.driver")
}

// GetDBPostgresHost returns the PostgreSQL host flag value and whether it was set
func (f *Flags) GetDBPostgresHost() (string, bool) {
	return *f.dbPostgresHost, f.changed("db.postgres.host")
}

// GetDBPostgresPort returns the PostgreSQL port flag value and whether it was set
func (f *Flags) GetDBPostgresPort() (int, bool) {
	return *f.dbPostgresPort, f.changed("db.postgres.port")
}

// GetDBPostgresDatabase returns the PostgreSQL database flag value and whether it was set
func (f *Flags) GetDBPostgresDatabase() (string, bool) {
	return *f.dbPostgresDatabase, f.changed("db.postgres.database")
}

// GetDBPostgresUser returns the PostgreSQL user flag value and whether it was set
func (f *Flags) GetDBPostgresUser() (string, bool) {
	return *f.dbPostgresUser, f.changed("db.postgres.user")
}

// GetDBPostgresPassword returns the PostgreSQL password flag value and whether it was set
func (f *Flags) GetDBPostgresPassword() (string, bool) {
	return *f.dbPostgresPassword, f.changed("db.postgres.password")
}

// GetDBPostgresSSLMode returns the PostgreSQL SSL mode flag value and whether it was set
func (f *Flags) GetDBPostgresSSLMode() (string, bool) {
	return *f.dbPostgresSSLMode, f.changed("db.postgres.ssl-mode")
}

// GetDBMongoURI returns the MongoDB URI flag value and whether it was set
func (f *Flags) GetDBMongoURI() (string, bool) {
	return *f.dbMongoURI, f.changed("db.mongo.uri")
}

// GetDBMongoDatabase returns the MongoDB database flag value and whether it was set
func (f *Flags) GetDBMongoDatabase() (string, bool) {
	return *f.dbMongoDatabase, f.changed("db.mongo.database")
}

// GetJWTSecret returns the JWT secret flag value and whether it was set
func (f *Flags) GetJWTSecret() (string, bool) {
	return *f.jwtSecret, f.changed("jwt.secret")
}

// GetJWTExpiration returns the JWT expiration flag value and whether it was set
func (f *Flags) GetJWTExpiration() (string, bool) {
	return *f.jwtExpiration, f.changed("jwt.expiration")
}

// GetJWTIssuer returns the JWT issuer flag value and whether it was set
func (f *Flags) GetJWTIssuer() (string, bool) {
	return *f.jwtIssuer, f.changed("jwt.issuer")
}

// GetCryptoEncryptionKey returns the encryption key flag value and whether it was set
func (f *Flags) GetCryptoEncryptionKey() (string, bool) {
	return *f.cryptoEncryptionKey, f.changed("crypto.encryption-key")
}

// GetLogLevel returns the log level flag value and whether it was set
func (f *Flags) GetLogLevel() (string, bool) {
	return *f.logLevel, f.changed("log.level")
}

// GetLogFormat returns the log format flag value and whether it was set
func (f *Flags) GetLogFormat() (string, bool) {
	return *f.logFormat, f.changed("log.format")
}

// GetLogOutput returns the log output flag value and whether it was set
func (f *Flags) GetLogOutput() (string, bool) {
	return *f.logOutput, f.changed("log.output")
}

// GetSecurityCORSEnabled returns the CORS enabled flag value and whether it was set
func (f *Flags) GetSecurityCORSEnabled() (bool, bool) {
	return *f.securityCORSEnabled, f.changed("security.cors-enabled")
}

// GetSecurityCORSOrigins returns the CORS origins flag value and whether it was set
func (f *Flags) GetSecurityCORSOrigins() ([]string, bool) {
	return *f.securityCORSOrigins, f.changed("security.cors-origins")
}

// GetSecurityRateLimitEnabled returns the rate limit enabled flag value and whether it was set
func (f *Flags) GetSecurityRateLimitEnabled() (bool, bool) {
	return *f.securityRateLimitEnabled, f.changed("security.rate-limit-enabled")
}

// GetSecurityRateLimitRequests returns the rate limit requests flag value and whether it was set
func (f *Flags) GetSecurityRateLimitRequests() (int, bool) {
	return *f.securityRateLimitRequests, f.changed("security.rate-limit-requests")
}

// GetSecurityRateLimitWindow returns the rate limit window flag value and whether it was set
func (f *Flags) GetSecurityRateLimitWindow() (string, bool) {
	return *f.securityRateLimitWindow, f.changed("security.rate-limit-window")
}

// GetReportsOutputDir returns the report output directory flag value and whether it was set
func (f *Flags) GetReportsOutputDir() (string, bool) {
	return *f.reportsOutputDir, f.changed("reports.output-dir")
}

// GetReportsDefaultTemplate returns the default report layout flag value and whether it was set
func (f *Flags) GetReportsDefaultTemplate() (string, bool) {
	return *f.reportsDefaultTemplate, f.changed("reports.default-template")
}

// GetEmailProvider returns the email provider flag value and whether it was set
func (f *Flags) GetEmailProvider() (string, bool) {
	return *f.emailProvider, f.changed("email.provider")
}

// GetEmailSender returns the email sender flag value and whether it was set
func (f *Flags) GetEmailSender() (string, bool) {
	return *f.emailSender, f.changed("email.sender")
}

// GetTasksWorkers returns the task worker count flag value and whether it was set
func (f *Flags) GetTasksWorkers() (int, bool) {
	return *f.tasksWorkers, f.changed("tasks.workers")
}

// GetTasksMaxAttempts returns the task attempt limit flag value and whether it was set
func (f *Flags) GetTasksMaxAttempts() (int, bool) {
	return *f.tasksMaxAttempts, f.changed("tasks.max-attempts")
}

// GetTasksDeadLetterPath returns the dead letter journal path flag value and whether it was set
func (f *Flags) GetTasksDeadLetterPath() (string, bool) {
	return *f.tasksDeadLetterPath, f.changed("tasks.dead-letter-path")
}

// GetTelemetryOTLPEndpoint returns the OTLP endpoint flag value and whether it was set
func (f *Flags) GetTelemetryOTLPEndpoint() (string, bool) {
	return *f.telemetryOTLPEndpoint, f.changed("telemetry.otlp-endpoint")
}
