package config

import "time"

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Memory constraints
	MaxTitleLength    int
	MaxContentLength  int
	MaxTagsPerMemory  int
	MaxTagLength      int
	MaxMetadataKeys   int
	MaxMetadataValue  int

	// Validation cache
	ValidationCacheSize int
	ValidationCacheTTL  time.Duration

	// Sanitization
	MaxSanitizeDepth int

	// Validation settings
	AllowEmptyContent bool
	DedupeTags        bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxTitleLength:   200,
		MaxContentLength: 50000,
		MaxTagsPerMemory: 20,
		MaxTagLength:     50,
		MaxMetadataKeys:  50,
		MaxMetadataValue: 1000,

		ValidationCacheSize: 512,
		ValidationCacheTTL:  5 * time.Minute,

		MaxSanitizeDepth: 32,

		AllowEmptyContent: true,
		DedupeTags:        true,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()

	// Tighter limits for production
	cfg.MaxContentLength = 20000
	cfg.ValidationCacheSize = 2048
	cfg.ValidationCacheTTL = 15 * time.Minute

	return cfg
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()

	// More permissive for development
	cfg.MaxContentLength = 100000
	cfg.ValidationCacheSize = 64
	cfg.ValidationCacheTTL = 30 * time.Second

	return cfg
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}
