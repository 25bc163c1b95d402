package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	domaincfg "memvault/domain/config"
)

// Config holds all application configuration
type Config struct {
	Environment string

	// Logging
	LogLevel string

	// Validation cache
	ValidationCacheSize int
	ValidationCacheTTL  time.Duration

	// Sanitization
	MaxSanitizeDepth int

	// Integrity scanning
	RepairEnabled  bool
	ScanBatchSize  int
	FailOnResidual bool
}

// UnmarshalYAML overlays the keys present in the document onto the current
// values. Durations are written as Go duration strings ("5m", "45s").
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Environment         *string `yaml:"environment"`
		LogLevel            *string `yaml:"logLevel"`
		ValidationCacheSize *int    `yaml:"validationCacheSize"`
		ValidationCacheTTL  *string `yaml:"validationCacheTtl"`
		MaxSanitizeDepth    *int    `yaml:"maxSanitizeDepth"`
		RepairEnabled       *bool   `yaml:"repairEnabled"`
		ScanBatchSize       *int    `yaml:"scanBatchSize"`
		FailOnResidual      *bool   `yaml:"failOnResidual"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.Environment != nil {
		c.Environment = *raw.Environment
	}
	if raw.LogLevel != nil {
		c.LogLevel = *raw.LogLevel
	}
	if raw.ValidationCacheSize != nil {
		c.ValidationCacheSize = *raw.ValidationCacheSize
	}
	if raw.ValidationCacheTTL != nil {
		d, err := time.ParseDuration(*raw.ValidationCacheTTL)
		if err != nil {
			return fmt.Errorf("validationCacheTtl: %w", err)
		}
		c.ValidationCacheTTL = d
	}
	if raw.MaxSanitizeDepth != nil {
		c.MaxSanitizeDepth = *raw.MaxSanitizeDepth
	}
	if raw.RepairEnabled != nil {
		c.RepairEnabled = *raw.RepairEnabled
	}
	if raw.ScanBatchSize != nil {
		c.ScanBatchSize = *raw.ScanBatchSize
	}
	if raw.FailOnResidual != nil {
		c.FailOnResidual = *raw.FailOnResidual
	}
	return nil
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		ValidationCacheSize: getEnvInt("VALIDATION_CACHE_SIZE", 512),
		ValidationCacheTTL:  getEnvDuration("VALIDATION_CACHE_TTL", 5*time.Minute),
		MaxSanitizeDepth:    getEnvInt("MAX_SANITIZE_DEPTH", 32),

		RepairEnabled:  getEnvBool("REPAIR_ENABLED", true),
		ScanBatchSize:  getEnvInt("SCAN_BATCH_SIZE", 500),
		FailOnResidual: getEnvBool("FAIL_ON_RESIDUAL", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadConfigFile loads configuration from a YAML file, with environment
// variables as the base layer. Used by the CLI; the library path never
// touches disk.
func LoadConfigFile(path string) (*Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.ValidationCacheSize <= 0 {
		return fmt.Errorf("VALIDATION_CACHE_SIZE must be positive, got %d", c.ValidationCacheSize)
	}
	if c.ValidationCacheTTL <= 0 {
		return fmt.Errorf("VALIDATION_CACHE_TTL must be positive, got %s", c.ValidationCacheTTL)
	}
	if c.MaxSanitizeDepth <= 0 {
		return fmt.Errorf("MAX_SANITIZE_DEPTH must be positive, got %d", c.MaxSanitizeDepth)
	}
	if c.ScanBatchSize <= 0 {
		return fmt.Errorf("SCAN_BATCH_SIZE must be positive, got %d", c.ScanBatchSize)
	}
	return nil
}

// DomainConfig selects the domain limit profile for the configured
// environment and applies the infrastructure overrides on top.
func (c *Config) DomainConfig() *domaincfg.DomainConfig {
	dc := domaincfg.LoadDomainConfig(c.Environment)
	dc.ValidationCacheSize = c.ValidationCacheSize
	dc.ValidationCacheTTL = c.ValidationCacheTTL
	dc.MaxSanitizeDepth = c.MaxSanitizeDepth
	return dc
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
