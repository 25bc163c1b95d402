//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"memvault/application/services"
	"memvault/domain/core/validators"
	"memvault/infrastructure/config"
	"memvault/pkg/sanitize"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Sanitizer  *sanitize.Service
	Validator  *validators.MemoryValidator
	Encryption *services.EncryptionService
	Repair     *services.AutoRepairService
	Integrity  *services.DataIntegrityService
	Validation *services.ValidationService
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideSanitizer,
	ProvideValidator,
	ProvideEncryptionService,
	ProvideRepairService,
	ProvideIntegrityService,
	ProvideValidationService,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
