package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Session SessionConfig `mapstructure:"session"`
	OIDC    OIDCConfig    `mapstructure:"oidc"`
	Log     LogConfig     `mapstructure:"log"`
	Uploads UploadsConfig `mapstructure:"uploads"`
	Theme   ThemeConfig   `mapstructure:"theme"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Contact ContactConfig `mapstructure:"contact"`
	Admin   AdminConfig   `mapstructure:"admin"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port    string    `mapstructure:"port"`
	BaseURL string    `mapstructure:"base_url"`
	TLS     TLSConfig `mapstructure:"tls"`
}

// TLSConfig holds TLS-specific configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// DBConfig holds database-specific configuration.
// Driver is either "sqlite3" or "mysql". MySQL DSNs need parseTime=true,
// clientFoundRows=true and multiStatements=true.
type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// SessionConfig holds session cookie configuration.
type SessionConfig struct {
	SecretKey string `mapstructure:"secretKey"`
	Lifetime  int    `mapstructure:"lifetime"` // hours
}

// OIDCConfig holds OIDC client configuration. Leaving IssuerURL empty
// disables single sign-on.
type OIDCConfig struct {
	IssuerURL    string `mapstructure:"issuer_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// Enabled reports whether an OIDC provider is configured.
func (c OIDCConfig) Enabled() bool {
	return c.IssuerURL != ""
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// UploadsConfig controls where event media is written and what is accepted.
type UploadsConfig struct {
	Root            string   `mapstructure:"root"`
	MaxImageBytes   int64    `mapstructure:"max_image_bytes"`
	MaxVideoBytes   int64    `mapstructure:"max_video_bytes"`
	ImageExtensions []string `mapstructure:"image_extensions"`
	VideoExtensions []string `mapstructure:"video_extensions"`
	ThumbnailWidth  int      `mapstructure:"thumbnail_width"`
}

// ThemeConfig holds the fallback palette used when no active theme resolves.
type ThemeConfig struct {
	DefaultPrimary   string `mapstructure:"default_primary"`
	DefaultSecondary string `mapstructure:"default_secondary"`
	DefaultAccent    string `mapstructure:"default_accent"`
}

// CacheConfig holds configuration for the SQLite key/value cache.
type CacheConfig struct {
	FilePath string `mapstructure:"file_path"`
}

// ContactConfig controls public contact form submissions.
type ContactConfig struct {
	ThrottleSeconds int `mapstructure:"throttle_seconds"`
}

// AdminConfig describes the administrator account created on first start.
// No account is created while Password is empty.
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// LoadConfig reads configuration from a .env file, a config file and
// environment variables, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v := viper.New()

	// Set default values
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "file:events.db?_foreign_keys=on")
	v.SetDefault("session.secretKey", "")
	v.SetDefault("session.lifetime", 24)
	v.SetDefault("oidc.issuer_url", "")
	v.SetDefault("oidc.client_id", "")
	v.SetDefault("oidc.client_secret", "")
	v.SetDefault("oidc.redirect_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("uploads.root", "static")
	v.SetDefault("uploads.max_image_bytes", 10<<20)
	v.SetDefault("uploads.max_video_bytes", 50<<20)
	v.SetDefault("uploads.image_extensions", []string{"jpg", "jpeg", "png"})
	v.SetDefault("uploads.video_extensions", []string{"mp4", "mov", "avi", "wmv"})
	v.SetDefault("uploads.thumbnail_width", 480)
	v.SetDefault("theme.default_primary", "#f8f5f2")
	v.SetDefault("theme.default_secondary", "#2c3e50")
	v.SetDefault("theme.default_accent", "#e67e22")
	v.SetDefault("cache.file_path", "cache.db")
	v.SetDefault("contact.throttle_seconds", 60)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.email", "admin@example.com")
	v.SetDefault("admin.password", "")

	// Set up viper to read from config file
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/event-site/")
	v.AddConfigPath("$HOME/.event-site")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	v.SetEnvPrefix("SITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
