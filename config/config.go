package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable that overrides the config
const EnvPrefix = "CASESTUDY_"

// Config holds application configuration
type Config struct {
	API    APIConfig    `yaml:"api" envPrefix:"API_"`
	Upload UploadConfig `yaml:"upload" envPrefix:"UPLOAD_"`
	Web    WebConfig    `yaml:"web" envPrefix:"WEB_"`
	Ingest IngestConfig `yaml:"ingest" envPrefix:"INGEST_"`
	Log    LogConfig    `yaml:"log" envPrefix:"LOG_"`
}

// APIConfig describes the backend query API
type APIConfig struct {
	// BaseURL is set at deploy time through CASESTUDY_API_URL
	BaseURL       string        `yaml:"base_url" env:"URL"`
	QueryTimeout  time.Duration `yaml:"query_timeout" env:"QUERY_TIMEOUT"`
	HealthTimeout time.Duration `yaml:"health_timeout" env:"HEALTH_TIMEOUT"`
	UploadTimeout time.Duration `yaml:"upload_timeout" env:"UPLOAD_TIMEOUT"`
}

// UploadConfig holds client-side upload limits
type UploadConfig struct {
	MaxFileSizeMB     int      `yaml:"max_file_size_mb" env:"MAX_FILE_SIZE_MB"`
	AllowedExtensions []string `yaml:"allowed_extensions" env:"ALLOWED_EXTENSIONS" envSeparator:","`
}

// WebConfig configures the browser UI server
type WebConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

// IngestConfig configures folder ingestion
type IngestConfig struct {
	// Settle is how long a watched file must stay unchanged before upload
	Settle time.Duration `yaml:"settle" env:"SETTLE"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
	// File receives logs while the terminal UI owns the screen
	File string `yaml:"file" env:"FILE"`
}

// Dir returns the directory holding the config file and logs
func Dir() string {
	return filepath.Join(os.Getenv("HOME"), ".casestudy-ai")
}

// DefaultPath returns the default config file location
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load loads configuration from file, .env and environment, in that order of precedence
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.API.BaseURL) == "" {
		errs = append(errs, errors.New("api.base_url must not be empty"))
	}
	if c.API.QueryTimeout <= 0 {
		errs = append(errs, fmt.Errorf("api.query_timeout must be positive, got %s", c.API.QueryTimeout))
	}
	if c.API.HealthTimeout <= 0 {
		errs = append(errs, fmt.Errorf("api.health_timeout must be positive, got %s", c.API.HealthTimeout))
	}
	if c.API.UploadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("api.upload_timeout must be positive, got %s", c.API.UploadTimeout))
	}
	if c.Upload.MaxFileSizeMB <= 0 {
		errs = append(errs, fmt.Errorf("upload.max_file_size_mb must be positive, got %d", c.Upload.MaxFileSizeMB))
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		errs = append(errs, errors.New("upload.allowed_extensions must not be empty"))
	}
	for _, ext := range c.Upload.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fmt.Errorf("upload.allowed_extensions: %q must look like \".pdf\"", ext))
		}
	}
	if c.Ingest.Settle <= 0 {
		errs = append(errs, fmt.Errorf("ingest.settle must be positive, got %s", c.Ingest.Settle))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) normalize() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	for i, ext := range c.Upload.AllowedExtensions {
		c.Upload.AllowedExtensions[i] = strings.ToLower(strings.TrimSpace(ext))
	}
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.API.BaseURL = "http://localhost:8000"
	cfg.API.QueryTimeout = 30 * time.Second
	cfg.API.HealthTimeout = 30 * time.Second
	cfg.API.UploadTimeout = 300 * time.Second
	cfg.Upload.MaxFileSizeMB = 100
	cfg.Upload.AllowedExtensions = []string{".pdf", ".docx", ".txt", ".md"}
	cfg.Web.Addr = "127.0.0.1:5173"
	cfg.Ingest.Settle = time.Second
	cfg.Log.Level = "info"
	cfg.Log.File = filepath.Join(Dir(), "casestudy.log")

	return cfg
}
