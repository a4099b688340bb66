package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Security  SecurityConfig
	CORS      CORSConfig
	Logging   LoggingConfig
	SetlistFM SetlistFMConfig
	Import    ImportConfig
	Admin     AdminConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL      string // Full PostgreSQL URL
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration // How long startup waits for the database to answer
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int
	Host string
}

// SecurityConfig holds token signing settings
type SecurityConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// SetlistFMConfig holds setlist.fm API settings
type SetlistFMConfig struct {
	APIKey            string
	BaseURL           string
	RequestsPerSecond float64
}

// ImportConfig controls retries of a reconciliation pass that lost a race
type ImportConfig struct {
	MaxAttempts  int
	RetryBackoff time.Duration
}

// AdminConfig seeds the owner account on startup
type AdminConfig struct {
	Username string
	Password string
}

// Load reads the full server configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	if err := cfg.loadDatabase(); err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}
	if err := cfg.loadServer(); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	if err := cfg.loadSecurity(); err != nil {
		return nil, fmt.Errorf("load security config: %w", err)
	}
	if err := cfg.loadSetlistFM(); err != nil {
		return nil, fmt.Errorf("load setlist.fm config: %w", err)
	}
	if err := cfg.loadImport(); err != nil {
		return nil, fmt.Errorf("load import config: %w", err)
	}
	cfg.loadCORS()
	cfg.loadLogging()
	cfg.loadAdmin()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// LoadTool reads the subset needed by command line tools: database, logging and import retries
func LoadTool() (*Config, error) {
	cfg := &Config{}

	if err := cfg.loadDatabase(); err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}
	if err := cfg.loadImport(); err != nil {
		return nil, fmt.Errorf("load import config: %w", err)
	}
	cfg.loadLogging()

	if problems := cfg.toolProblems(); len(problems) > 0 {
		return nil, fmt.Errorf("validate config: %w", validationError(problems))
	}
	return cfg, nil
}

func (c *Config) loadDatabase() error {
	// Try to load DATABASE_URL first
	c.Database.URL = os.Getenv("DATABASE_URL")

	// If not present, construct from individual parameters
	if c.Database.URL == "" {
		c.Database.Host = getEnvOrDefault("DB_HOST", "localhost")
		c.Database.User = os.Getenv("DB_USER")
		c.Database.Password = os.Getenv("DB_PASSWORD")
		c.Database.Name = os.Getenv("DB_NAME")
		c.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")

		port, err := strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))
		if err != nil {
			return fmt.Errorf("invalid DB_PORT: %w", err)
		}
		c.Database.Port = port

		if c.Database.Host != "" && c.Database.User != "" && c.Database.Name != "" {
			c.Database.URL = fmt.Sprintf(
				"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
				c.Database.User,
				c.Database.Password,
				c.Database.Host,
				c.Database.Port,
				c.Database.Name,
				c.Database.SSLMode,
			)
		}
	}

	return c.loadPool()
}

func (c *Config) loadPool() error {
	var err error
	if c.Database.MaxOpenConns, err = strconv.Atoi(getEnvOrDefault("DB_MAX_OPEN_CONNS", "10")); err != nil {
		return fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	if c.Database.MaxIdleConns, err = strconv.Atoi(getEnvOrDefault("DB_MAX_IDLE_CONNS", "5")); err != nil {
		return fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}
	if c.Database.ConnMaxLifetime, err = time.ParseDuration(getEnvOrDefault("DB_CONN_MAX_LIFETIME", "30m")); err != nil {
		return fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}
	if c.Database.ConnectTimeout, err = time.ParseDuration(getEnvOrDefault("DB_CONNECT_TIMEOUT", "30s")); err != nil {
		return fmt.Errorf("invalid DB_CONNECT_TIMEOUT: %w", err)
	}
	return nil
}

func (c *Config) loadServer() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}
	c.Server.Port = port
	c.Server.Host = getEnvOrDefault("HOST", "0.0.0.0")
	return nil
}

func (c *Config) loadSecurity() error {
	c.Security.JWTSecret = os.Getenv("JWT_SECRET")

	ttl, err := time.ParseDuration(getEnvOrDefault("JWT_TTL", "12h"))
	if err != nil {
		return fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	c.Security.TokenTTL = ttl
	return nil
}

func (c *Config) loadSetlistFM() error {
	c.SetlistFM.APIKey = os.Getenv("SETLISTFM_API_KEY")
	c.SetlistFM.BaseURL = getEnvOrDefault("SETLISTFM_BASE_URL", "https://api.setlist.fm/rest/1.0")

	rps, err := strconv.ParseFloat(getEnvOrDefault("SETLISTFM_RPS", "2"), 64)
	if err != nil {
		return fmt.Errorf("invalid SETLISTFM_RPS: %w", err)
	}
	c.SetlistFM.RequestsPerSecond = rps
	return nil
}

func (c *Config) loadImport() error {
	attempts, err := strconv.Atoi(getEnvOrDefault("IMPORT_MAX_ATTEMPTS", "3"))
	if err != nil {
		return fmt.Errorf("invalid IMPORT_MAX_ATTEMPTS: %w", err)
	}
	c.Import.MaxAttempts = attempts

	backoff, err := time.ParseDuration(getEnvOrDefault("IMPORT_RETRY_BACKOFF", "100ms"))
	if err != nil {
		return fmt.Errorf("invalid IMPORT_RETRY_BACKOFF: %w", err)
	}
	c.Import.RetryBackoff = backoff
	return nil
}

func (c *Config) loadCORS() {
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv != "" {
		origins := strings.Split(originsEnv, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		c.CORS.AllowedOrigins = origins
	} else {
		// Default for local development
		c.CORS.AllowedOrigins = []string{
			"http://localhost:5000",
			"http://localhost:8080",
		}
	}
}

func (c *Config) loadLogging() {
	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", "info")
	c.Logging.Format = getEnvOrDefault("LOG_FORMAT", "json")
}

func (c *Config) loadAdmin() {
	c.Admin.Username = strings.TrimSpace(os.Getenv("ADMIN_USERNAME"))
	c.Admin.Password = os.Getenv("ADMIN_PASSWORD")
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	problems := c.toolProblems()

	if c.Security.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	} else if len(c.Security.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}
	if c.Security.TokenTTL <= 0 {
		problems = append(problems, "JWT_TTL must be positive")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, "PORT must be between 1 and 65535")
	}

	if c.SetlistFM.RequestsPerSecond <= 0 {
		problems = append(problems, "SETLISTFM_RPS must be positive")
	}

	if (c.Admin.Username == "") != (c.Admin.Password == "") {
		problems = append(problems, "ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}

	if len(problems) > 0 {
		return validationError(problems)
	}
	return nil
}

func (c *Config) toolProblems() []string {
	var problems []string

	if c.Database.URL == "" {
		problems = append(problems, "DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
	}

	if c.Database.MaxOpenConns < 1 {
		problems = append(problems, "DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		problems = append(problems, "DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS")
	}

	if c.Import.MaxAttempts < 1 {
		problems = append(problems, "IMPORT_MAX_ATTEMPTS must be at least 1")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		problems = append(problems, "LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		problems = append(problems, "LOG_FORMAT must be one of: json, text")
	}

	return problems
}

func validationError(problems []string) error {
	return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(os.Getenv("ENV"))
	return env == "" || env == "development"
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
