package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"memvault/domain/config"
	"memvault/domain/core/entities"
	"memvault/domain/core/validators"
	pkgerrors "memvault/pkg/errors"
	"memvault/pkg/sanitize"
)

func newTestValidation(t *testing.T) *ValidationService {
	t.Helper()

	logger := zap.NewNop()
	sanitizer := sanitize.NewService()
	validator := validators.NewMemoryValidator(sanitizer, config.DefaultDomainConfig())
	repair := NewAutoRepairService(logger)
	integrity := NewDataIntegrityService(validator, repair, logger)
	encryption := NewEncryptionService(logger)

	return NewValidationService(sanitizer, validator, integrity, repair, encryption, logger)
}

func TestValidationServiceDelegation(t *testing.T) {
	svc := newTestValidation(t)

	t.Run("sanitize text", func(t *testing.T) {
		assert.Equal(t, "hola", svc.SanitizeText("<b>hola</b>"))
	})

	t.Run("sanitize object", func(t *testing.T) {
		out, err := svc.SanitizeObject(map[string]any{"k": "<i>v</i>"})
		require.NoError(t, err)
		assert.Equal(t, "v", out.(map[string]any)["k"])
	})

	t.Run("validate memory", func(t *testing.T) {
		m := entities.NewMemory("Título", "Contenido")
		result := svc.ValidateMemory(m)
		assert.True(t, result.Success, "errors: %v", result.Errors)
	})

	t.Run("validate create", func(t *testing.T) {
		result := svc.ValidateCreate(&validators.CreateMemoryInput{
			Title: "Nueva memoria",
			Type:  entities.TypeText,
		})
		assert.True(t, result.Success, "errors: %v", result.Errors)
	})

	t.Run("validate password", func(t *testing.T) {
		assert.True(t, svc.ValidatePassword("Secr3t!@").IsValid)
		assert.False(t, svc.ValidatePassword("weak").IsValid)
	})
}

// End-to-end: create a record, corrupt the batch, repair it, then encrypt
// and decrypt the repaired record.
func TestValidationPipeline(t *testing.T) {
	svc := newTestValidation(t)
	enc := NewEncryptionService(zap.NewNop())

	result := svc.ValidateCreate(&validators.CreateMemoryInput{
		Title:   "Excursión al lago",
		Content: "El agua estaba helada pero nadie quiso salir.",
		Type:    entities.TypeText,
		Tags:    []string{"verano", "lago"},
	})
	require.True(t, result.Success, "errors: %v", result.Errors)

	// Corrupt the record the way a broken export would.
	damaged := result.Data.Clone()
	damaged.Title = ""
	damaged.Type = "bogus"

	batch := []*entities.Memory{damaged}
	report := svc.DetectAndRepairData(batch)
	require.Equal(t, 1, report.Repaired)

	repaired := batch[0]
	assert.Equal(t, entities.DefaultTitle, repaired.Title)
	assert.Equal(t, entities.DefaultType, repaired.Type)

	sealed, err := enc.EncryptMemory(repaired, "Secr3t!@")
	require.NoError(t, err)

	opened, err := enc.DecryptMemory(sealed, "Secr3t!@")
	require.NoError(t, err)
	assert.True(t, opened.Equals(repaired))

	// A wrong password on the sealed record routes the UI to a retry.
	_, err = enc.DecryptMemory(sealed, "0ther!pass")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.RemediationRetryPassword, pkgerrors.RemediationFor(err))
}
