package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Port              int           `mapstructure:"port" yaml:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	DB      DBConfig      `mapstructure:"db" yaml:"db"`
	Startup StartupConfig `mapstructure:"startup" yaml:"startup"`
	HTTP    HTTPConfig    `mapstructure:"http" yaml:"http"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // console or json
}

// DBConfig describes the message store connection.
type DBConfig struct {
	Driver   string `mapstructure:"driver" yaml:"driver"` // postgres or sqlite
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	Name     string `mapstructure:"name" yaml:"name"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
	Path     string `mapstructure:"path" yaml:"path"`
	MaxConns int    `mapstructure:"max_conns" yaml:"max_conns"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
}

// StartupConfig tunes the database readiness gate.
type StartupConfig struct {
	Retries        int           `mapstructure:"retries" yaml:"retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout" yaml:"attempt_timeout"`
}

// HTTPConfig holds API behaviour knobs.
type HTTPConfig struct {
	ListLimit    int    `mapstructure:"list_limit" yaml:"list_limit"`
	DefaultName  string `mapstructure:"default_name" yaml:"default_name"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

// MetricsConfig controls the Prometheus listener. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Port:              5000,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		DB: DBConfig{
			Driver:   "postgres",
			Host:     "db",
			Port:     5432,
			User:     "appuser",
			Password: "apppassword",
			Name:     "appdb",
			SSLMode:  "disable",
			Path:     "msgboard.db",
			MaxConns: 5,

			ConnectTimeout: 5 * time.Second,
		},
		Startup: StartupConfig{
			Retries:        15,
			RetryDelay:     2 * time.Second,
			AttemptTimeout: 2 * time.Second,
		},
		HTTP: HTTPConfig{
			ListLimit:    100,
			DefaultName:  "anonymous",
			MaxBodyBytes: 100 << 10,
		},
	}
}

// Addr returns the HTTP listen address. The API binds on all interfaces.
func (c Config) Addr() string {
	return "0.0.0.0:" + strconv.Itoa(c.Port)
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}
	if other.DB.Driver != "" {
		c.DB.Driver = other.DB.Driver
	}
	if other.DB.Path != "" {
		c.DB.Path = other.DB.Path
	}
	if other.DB.MaxConns != 0 {
		c.DB.MaxConns = other.DB.MaxConns
	}
	if other.Startup.Retries != 0 {
		c.Startup.Retries = other.Startup.Retries
	}
	if other.Startup.RetryDelay != 0 {
		c.Startup.RetryDelay = other.Startup.RetryDelay
	}
	if other.Startup.AttemptTimeout != 0 {
		c.Startup.AttemptTimeout = other.Startup.AttemptTimeout
	}
	if other.HTTP.MaxBodyBytes != 0 {
		c.HTTP.MaxBodyBytes = other.HTTP.MaxBodyBytes
	}
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}
}

// Validate reports configuration that cannot be served.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported db driver %q", c.DB.Driver))
	}
	if c.DB.MaxConns <= 0 {
		errs = append(errs, errors.New("db.max_conns must be positive"))
	}
	if c.Startup.Retries <= 0 {
		errs = append(errs, errors.New("startup.retries must be positive"))
	}
	if c.Startup.RetryDelay < 0 {
		errs = append(errs, errors.New("startup.retry_delay must not be negative"))
	}
	if c.Startup.AttemptTimeout < 0 {
		errs = append(errs, errors.New("startup.attempt_timeout must not be negative"))
	}
	if c.DB.ConnectTimeout < 0 {
		errs = append(errs, errors.New("db.connect_timeout must not be negative"))
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("http.max_body_bytes must be positive"))
	}
	if c.HTTP.ListLimit <= 0 {
		errs = append(errs, errors.New("http.list_limit must be positive"))
	}
	return errors.Join(errs...)
}
