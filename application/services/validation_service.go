package services

import (
	"go.uber.org/zap"

	"memvault/domain/core/entities"
	"memvault/domain/core/validators"
	"memvault/pkg/sanitize"
)

// ValidationService is the single entry point the application layer exposes
// for record hygiene: sanitization, schema validation, corruption scanning,
// repair and password policy checks. It owns no logic of its own - every
// call delegates to the owning collaborator - so behavior stays identical
// whether a caller goes through the facade or hits a collaborator directly.
type ValidationService struct {
	sanitizer  *sanitize.Service
	validator  *validators.MemoryValidator
	integrity  *DataIntegrityService
	repair     *AutoRepairService
	encryption *EncryptionService
	logger     *zap.Logger
}

// NewValidationService creates the validation facade
func NewValidationService(
	sanitizer *sanitize.Service,
	validator *validators.MemoryValidator,
	integrity *DataIntegrityService,
	repair *AutoRepairService,
	encryption *EncryptionService,
	logger *zap.Logger,
) *ValidationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationService{
		sanitizer:  sanitizer,
		validator:  validator,
		integrity:  integrity,
		repair:     repair,
		encryption: encryption,
		logger:     logger,
	}
}

// SanitizeText neutralizes markup and control characters in free text
func (s *ValidationService) SanitizeText(text string) string {
	return s.sanitizer.SanitizeText(text)
}

// SanitizeObject sanitizes every string reachable from a decoded JSON value
func (s *ValidationService) SanitizeObject(value any) (any, error) {
	return s.sanitizer.SanitizeObject(value)
}

// ValidateMemory validates a full record, using the result cache
func (s *ValidationService) ValidateMemory(m *entities.Memory) *validators.ValidationResult {
	return s.validator.ValidateMemory(m, true)
}

// ValidateCreate validates creation input and materializes a record from it
func (s *ValidationService) ValidateCreate(input *validators.CreateMemoryInput) *validators.ValidationResult {
	return s.validator.ValidateCreate(input)
}

// ValidateUpdate validates only the fields an update actually carries
func (s *ValidationService) ValidateUpdate(patch *validators.UpdateMemoryInput) *validators.PatchResult {
	return s.validator.ValidateUpdate(patch)
}

// DetectDataCorruption scans a batch without modifying it
func (s *ValidationService) DetectDataCorruption(records []*entities.Memory) []DataIssue {
	return s.integrity.DetectDataCorruption(records)
}

// DetectAndRepairData scans a batch and repairs what re-validates cleanly
func (s *ValidationService) DetectAndRepairData(records []*entities.Memory) DataIntegrityReport {
	report := s.integrity.DetectAndRepairData(records)
	if report.Corrupted > 0 {
		s.logger.Warn("integrity scan left corrupted records",
			zap.Int("total", report.Total),
			zap.Int("corrupted", report.Corrupted),
			zap.Int("repaired", report.Repaired),
		)
	}
	return report
}

// RepairMemory applies the deterministic repair rules to one record
func (s *ValidationService) RepairMemory(m *entities.Memory, issues []DataIssue) (*entities.Memory, error) {
	return s.repair.AutoRepairMemory(m, issues)
}

// ValidatePassword checks the password policy
func (s *ValidationService) ValidatePassword(password string) PasswordValidation {
	return s.encryption.ValidatePassword(password)
}

// PurgeValidationCache drops all cached validation results. Called when the
// domain limits change at runtime.
func (s *ValidationService) PurgeValidationCache() {
	s.validator.PurgeCache()
}
