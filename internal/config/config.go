package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/waterprint/waterprint/internal/catalog"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// Config holds the configuration for the waterprint server and its dependencies.
type Config struct {
	// Listen is the address the server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// Debug runs the HTTP server in debug mode.
	Debug bool `yaml:"debug" mapstructure:"debug"`
	// ServerURL is the public base URL of the server, used in emails.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// RecomputeSchedule is the cron schedule used to refresh the cached footprint of every user.
	// An empty value disables the job.
	RecomputeSchedule string `yaml:"recompute_schedule" mapstructure:"recompute_schedule"`
	// Categories are added to the built-in catalog. Their ids must not collide with built-in ids.
	Categories []catalog.Entry `yaml:"categories" mapstructure:"categories"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Cache holds the catalog cache configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Chart holds the chart exporter configuration.
	Chart *ChartConfig `yaml:"chart" mapstructure:"chart"`
	// Email holds the configuration used to mail reports.
	Email *EmailConfig `yaml:"email" mapstructure:"email"`
	// Gravatar holds the configuration for Gravatar profile pictures.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the path to the database file.
	Path string `yaml:"path" mapstructure:"path"`
}

// CacheConfig holds the configuration for the cache engine.
type CacheConfig struct {
	// Type is the type of cache engine to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the address of the Redis server if using Redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// TTL is how long the category list stays cached. Zero keeps it until the next seed.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ChartConfig holds the size of rendered charts in pixels.
type ChartConfig struct {
	Width  int `yaml:"width" mapstructure:"width"`
	Height int `yaml:"height" mapstructure:"height"`
}

// EmailConfig holds the email configuration.
type EmailConfig struct {
	// Enabled indicates whether reports can be mailed.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// SMTPHost is the SMTP server host.
	SMTPHost string `yaml:"smtp_host" mapstructure:"smtp_host"`
	// SMTPPort is the SMTP server port.
	SMTPPort int `yaml:"smtp_port" mapstructure:"smtp_port"`
	// Username is the SMTP username.
	Username string `yaml:"username" mapstructure:"username"`
	// Password is the SMTP password.
	Password string `yaml:"password" mapstructure:"password"`
	// FromEmail is the email address from which reports are sent.
	FromEmail string `yaml:"from_email" mapstructure:"from_email"`
	// FromName is the name from which reports are sent.
	FromName string `yaml:"from_name" mapstructure:"from_name"`
	// UseTLS indicates whether to use STARTTLS for the SMTP connection.
	UseTLS bool `yaml:"use_tls" mapstructure:"use_tls"`
	// UseSSL indicates whether to use implicit TLS for the SMTP connection.
	UseSSL bool `yaml:"use_ssl" mapstructure:"use_ssl"`
	// InsecureSkipVerify indicates whether to skip TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar support is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to use when no Gravatar is found.
	// Valid values: "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating for Gravatar images.
	// Valid values: "g", "pg", "r", "x"
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the Gravatar image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
// If no config file is found, defaults and environment variables are used.
func Load(path string) (*Config, error) {
	loadDotEnv()

	v := viper.New()

	// Set default values
	setDefaults(v)

	// Configure Viper
	v.SetConfigType("yaml")
	v.SetEnvPrefix("WATERPRINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		// Use specific config file
		v.SetConfigFile(path)
	} else {
		// Search for config in common locations
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.waterprint")
		v.AddConfigPath("/etc/waterprint")
	}

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Debug("no config file found, using defaults and environment")
	} else {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Sanitize config values
	sanitizeConfig(&c)

	// Validate required configs
	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// loadDotEnv loads a .env file from the working directory if there is one.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Warn("failed to load .env file", "error", err)
	}
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:3003")
	v.SetDefault("debug", false)
	v.SetDefault("server_url", "http://localhost:3003")
	v.SetDefault("recompute_schedule", "0 * * * *") // Every hour

	// Database defaults
	v.SetDefault("database.path", "./data/waterprint.db")

	// Cache defaults
	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 0)

	// Chart defaults
	v.SetDefault("chart.width", 1024)
	v.SetDefault("chart.height", 576)

	// Email defaults
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_host", "")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from_email", "")
	v.SetDefault("email.from_name", "Waterprint")
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.use_ssl", false)
	v.SetDefault("email.insecure_skip_verify", false)

	// Gravatar defaults
	v.SetDefault("gravatar.enabled", false)
	v.SetDefault("gravatar.default_image", "identicon")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 80)
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing waterprint config")
	}

	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}

	if c.RecomputeSchedule != "" {
		// Basic validation for cron format (5 fields)
		cronFields := strings.Fields(c.RecomputeSchedule)
		if len(cronFields) != 5 {
			return fmt.Errorf("recompute schedule must be a valid cron expression with 5 fields (minute hour day month weekday)")
		}
	}

	// A broken factor is a configuration error, the server must not start with it.
	if _, err := catalog.Merge(c.Categories); err != nil {
		return fmt.Errorf("invalid categories: %w", err)
	}

	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Cache != nil {
		if c.Cache.Type == "" {
			return fmt.Errorf("cache type is required when cache is enabled")
		}
		if c.Cache.Type != CacheTypeMemory && c.Cache.Type != CacheTypeRedis {
			return fmt.Errorf("unknown cache type %q", c.Cache.Type)
		}
		if c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
		}
		if c.Cache.TTL < 0 {
			return fmt.Errorf("cache ttl must not be negative")
		}
	} else {
		c.Cache = &CacheConfig{
			Type: CacheTypeMemory, // Default to in-memory cache if not enabled
		}
	}

	if c.Chart != nil {
		if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
			return fmt.Errorf("chart width and height must be greater than 0")
		}
	}

	if c.Email != nil && c.Email.Enabled {
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("SMTP host is required when email is enabled") //nolint:staticcheck
		}
		if c.Email.FromEmail == "" {
			return fmt.Errorf("from email is required when email is enabled")
		}
		if c.Email.SMTPPort <= 0 || c.Email.SMTPPort > 65535 {
			return fmt.Errorf("invalid SMTP port %d", c.Email.SMTPPort)
		}
	}

	return nil
}

// sanitizeConfig sanitizes the configuration values.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = urlSanitize(c.Listen)

	if c.ServerURL != "" {
		c.ServerURL = urlSanitize(c.ServerURL)
	}

	c.RecomputeSchedule = strings.TrimSpace(c.RecomputeSchedule)

	for i := range c.Categories {
		c.Categories[i].Name = strings.TrimSpace(c.Categories[i].Name)
	}
}

func urlSanitize(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}

// CatalogEntries returns the built-in catalog merged with the configured categories.
func (c *Config) CatalogEntries() []catalog.Entry {
	entries, err := catalog.Merge(c.Categories)
	if err != nil {
		// validateConfig already rejected this configuration
		return catalog.Builtin()
	}
	return entries
}

// GetChartSize returns the chart size with proper defaults.
func (c *Config) GetChartSize() (int, int) {
	if c == nil || c.Chart == nil || c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return 1024, 576
	}
	return c.Chart.Width, c.Chart.Height
}
