package di

import (
	"go.uber.org/zap"

	"memvault/application/services"
	domaincfg "memvault/domain/config"
	"memvault/domain/core/validators"
	"memvault/infrastructure/config"
	"memvault/pkg/sanitize"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideDomainConfig selects the domain limits for the environment
func ProvideDomainConfig(cfg *config.Config) *domaincfg.DomainConfig {
	return cfg.DomainConfig()
}

// ProvideSanitizer creates the sanitization service
func ProvideSanitizer(dc *domaincfg.DomainConfig) *sanitize.Service {
	return sanitize.NewServiceWithDepth(dc.MaxSanitizeDepth)
}

// ProvideValidator creates the schema validator with its result cache
func ProvideValidator(sanitizer *sanitize.Service, dc *domaincfg.DomainConfig) *validators.MemoryValidator {
	return validators.NewMemoryValidator(sanitizer, dc)
}

// ProvideEncryptionService creates the encryption service
func ProvideEncryptionService(logger *zap.Logger) *services.EncryptionService {
	return services.NewEncryptionService(logger)
}

// ProvideRepairService creates the auto-repair service
func ProvideRepairService(logger *zap.Logger) *services.AutoRepairService {
	return services.NewAutoRepairService(logger)
}

// ProvideIntegrityService creates the integrity scanner
func ProvideIntegrityService(
	validator *validators.MemoryValidator,
	repair *services.AutoRepairService,
	logger *zap.Logger,
) *services.DataIntegrityService {
	return services.NewDataIntegrityService(validator, repair, logger)
}

// ProvideValidationService creates the validation facade
func ProvideValidationService(
	sanitizer *sanitize.Service,
	validator *validators.MemoryValidator,
	integrity *services.DataIntegrityService,
	repair *services.AutoRepairService,
	encryption *services.EncryptionService,
	logger *zap.Logger,
) *services.ValidationService {
	return services.NewValidationService(sanitizer, validator, integrity, repair, encryption, logger)
}
