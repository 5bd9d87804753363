package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database DatabasesConfig `mapstructure:"database"`
	Logging  LoggingConfig   `mapstructure:"logging"`
	Consent  ConsentConfig   `mapstructure:"consent"`
	Security SecurityConfig  `mapstructure:"security"`
	CORS     CORSConfig      `mapstructure:"cors"`
	Cache    CacheConfig     `mapstructure:"cache"`
	Redis    RedisConfig     `mapstructure:"redis"`
	Events   EventsConfig    `mapstructure:"events"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Hostname     string        `mapstructure:"hostname"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabasesConfig holds all database configurations
type DatabasesConfig struct {
	Consent DatabaseConfig `mapstructure:"consent"`
}

// DatabaseConfig holds individual database configuration
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"`
	Hostname        string        `mapstructure:"hostname"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ConsentConfig holds consent lifecycle configuration
type ConsentConfig struct {
	DefaultDurationDays int `mapstructure:"default_duration_days"`
	MaxDurationDays     int `mapstructure:"max_duration_days"`
	MaxBatchSize        int `mapstructure:"max_batch_size"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	// EmailHashKey keys the email hash so digests cannot be matched against other datasets
	EmailHashKey string `mapstructure:"email_hash_key"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// CacheConfig holds the widget config cache settings
type CacheConfig struct {
	// Driver is one of none, memory, redis
	Driver string        `mapstructure:"driver"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// RedisConfig holds the Redis connection shared by the cache and the event publisher
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EventsConfig holds consent event publishing settings
type EventsConfig struct {
	// Driver is one of none, redis, nats
	Driver      string `mapstructure:"driver"`
	StreamName  string `mapstructure:"stream_name"`
	NATSURL     string `mapstructure:"nats_url"`
	SubjectBase string `mapstructure:"subject_base"`
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

var globalConfig *Config

// Load reads configuration from file and environment variables.
// With an empty configPath, deployment.yaml is searched in repository/conf.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("deployment")
		v.SetConfigType("yaml")
		v.AddConfigPath("./repository/conf")
		v.AddConfigPath("./cmd/server/repository/conf")
		v.AddConfigPath("../repository/conf")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	// CONSENTLY_DATABASE_CONSENT_PASSWORD overrides database.consent.password
	v.SetEnvPrefix("CONSENTLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	globalConfig = &config
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.hostname", "0.0.0.0")
	v.SetDefault("server.port", 9446)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("database.consent.type", "mysql")
	v.SetDefault("database.consent.max_open_conns", 25)
	v.SetDefault("database.consent.max_idle_conns", 5)
	v.SetDefault("database.consent.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "X-Correlation-ID"})
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("consent.default_duration_days", 365)
	v.SetDefault("consent.max_duration_days", 3650)
	v.SetDefault("consent.max_batch_size", 100)
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("events.driver", "none")
	v.SetDefault("events.stream_name", "consently:consent-events")
	v.SetDefault("events.subject_base", "consently.consent")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	db := config.Database.Consent
	if db.Type != "mysql" && db.Type != "postgres" {
		return fmt.Errorf("unsupported database type: %s", db.Type)
	}
	if db.Hostname == "" {
		return fmt.Errorf("database hostname is required")
	}
	if db.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if config.Consent.DefaultDurationDays <= 0 {
		return fmt.Errorf("consent default duration must be positive")
	}
	if config.Consent.MaxDurationDays < config.Consent.DefaultDurationDays {
		return fmt.Errorf("consent max duration (%d) is below the default duration (%d)",
			config.Consent.MaxDurationDays, config.Consent.DefaultDurationDays)
	}
	if config.Consent.MaxBatchSize <= 0 {
		return fmt.Errorf("consent max batch size must be positive")
	}

	if len(config.Security.EmailHashKey) > 64 {
		return fmt.Errorf("email hash key must be at most 64 bytes")
	}

	switch config.Cache.Driver {
	case "none", "memory":
	case "redis":
		if config.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis cache driver")
		}
	default:
		return fmt.Errorf("unsupported cache driver: %s", config.Cache.Driver)
	}

	switch config.Events.Driver {
	case "none":
	case "redis":
		if config.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis events driver")
		}
	case "nats":
		if config.Events.NATSURL == "" {
			return fmt.Errorf("nats url is required for the nats events driver")
		}
	default:
		return fmt.Errorf("unsupported events driver: %s", config.Events.Driver)
	}

	return nil
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// SetGlobal sets the global configuration (for testing purposes)
func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

// DriverName returns the database/sql driver name for the configured type
func (d *DatabaseConfig) DriverName() string {
	if d.Type == "postgres" {
		return "postgres"
	}
	return "mysql"
}

// GetDSN returns the database connection string
func (d *DatabaseConfig) GetDSN() string {
	if d.Type == "postgres" {
		sslMode := d.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Hostname, d.Port, d.User, d.Password, d.Database, sslMode)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		d.User,
		d.Password,
		d.Hostname,
		d.Port,
		d.Database,
	)
}

// GetServerAddress returns the server address in host:port format
func (s *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}
