package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port        string   `env:"PORT" envDefault:"8080"`
	DatabaseURL string   `env:"DATABASE_URL"`
	StoreDriver string   `env:"STORE_DRIVER" envDefault:"postgres"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	BcryptCost  int      `env:"BCRYPT_COST" envDefault:"10"`

	Cloudinary CloudinaryConfig
	Uploads    UploadConfig
}

// CloudinaryConfig selects the remote asset store. Either URL or the three
// credential fields must be set for Cloudinary to be used.
type CloudinaryConfig struct {
	URL       string `env:"CLOUDINARY_URL"`
	CloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `env:"CLOUDINARY_API_KEY"`
	APISecret string `env:"CLOUDINARY_API_SECRET"`
	Folder    string `env:"CLOUDINARY_FOLDER" envDefault:"videotube"`
}

// UploadConfig controls where multipart files land before they are pushed to
// the asset store, and the local fallback store.
type UploadConfig struct {
	TempDir       string `env:"UPLOAD_TEMP_DIR" envDefault:"./public/temp"`
	PublicDir     string `env:"PUBLIC_DIR" envDefault:"./public/assets"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080/static"`
	MaxUploadMB   int64  `env:"MAX_UPLOAD_MB" envDefault:"10"`
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.CORSOrigins = normalizeOrigins(cfg.CORSOrigins)
	if cfg.Uploads.MaxUploadMB <= 0 {
		cfg.Uploads.MaxUploadMB = 10
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case StoreDriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// MaxUploadBytes is the multipart body limit.
func (c Config) MaxUploadBytes() int64 {
	return c.Uploads.MaxUploadMB << 20
}

// Enabled reports whether enough Cloudinary credentials are present.
func (c CloudinaryConfig) Enabled() bool {
	if strings.TrimSpace(c.URL) != "" {
		return true
	}
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

func normalizeOrigins(origins []string) []string {
	var out []string
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
