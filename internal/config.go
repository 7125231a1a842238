package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/laguz/internal/constraint"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Journal JournalConfig     `yaml:"journal"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// JournalConfig holds the journal directory and cache/limit tuning.
//
// TTLs are expressed in seconds because YAML has no duration scalar; a zero
// value means "use the built-in default".
type JournalConfig struct {
	Dir                  string `yaml:"dir"`
	MetaTTLActiveSeconds int    `yaml:"meta_ttl_active_seconds"`
	MetaTTLIdleSeconds   int    `yaml:"meta_ttl_idle_seconds"`
	ContentTTLSeconds    int    `yaml:"content_ttl_seconds"`
	MaxEntries           int    `yaml:"max_entries"`
	HardLimitBytes       int    `yaml:"hard_limit_bytes"`
	SoftLimitBytes       int    `yaml:"soft_limit_bytes"`
}

// MetaTTLActive returns the metadata TTL used while a client is connected.
func (c *JournalConfig) MetaTTLActive() time.Duration {
	return time.Duration(c.MetaTTLActiveSeconds) * time.Second
}

// MetaTTLIdle returns the metadata TTL used while nobody is watching.
func (c *JournalConfig) MetaTTLIdle() time.Duration {
	return time.Duration(c.MetaTTLIdleSeconds) * time.Second
}

// ContentTTL returns the entry content cache TTL.
func (c *JournalConfig) ContentTTL() time.Duration {
	return time.Duration(c.ContentTTLSeconds) * time.Second
}

// Limits returns the typing constraint byte limits.
func (c *JournalConfig) Limits() constraint.Limits {
	return constraint.Limits{Hard: c.HardLimitBytes, Soft: c.SoftLimitBytes}
}

// Validate validates the journal configuration.
func (c *JournalConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.MetaTTLActiveSeconds, validation.Min(0)),
		validation.Field(&c.MetaTTLIdleSeconds, validation.Min(0)),
		validation.Field(&c.ContentTTLSeconds, validation.Min(0)),
		validation.Field(&c.MaxEntries, validation.Min(0)),
		validation.Field(&c.HardLimitBytes, validation.Min(0)),
		validation.Field(&c.SoftLimitBytes, validation.Min(0)),
	); err != nil {
		return err
	}
	if c.HardLimitBytes > 0 && c.SoftLimitBytes > c.HardLimitBytes {
		return fmt.Errorf("journal: soft_limit_bytes %d exceeds hard_limit_bytes %d",
			c.SoftLimitBytes, c.HardLimitBytes)
	}
	return nil
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Journal: JournalConfig{
			Dir:                  "./journal",
			MetaTTLActiveSeconds: 300,
			MetaTTLIdleSeconds:   30,
			ContentTTLSeconds:    900,
			HardLimitBytes:       constraint.DefaultHardLimit,
			SoftLimitBytes:       constraint.DefaultSoftLimit,
		},
		SQLite: SQLiteConfig{
			Path: "./laguz.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
