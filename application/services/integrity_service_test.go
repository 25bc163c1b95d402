package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"memvault/domain/config"
	"memvault/domain/core/entities"
	"memvault/domain/core/validators"
	"memvault/pkg/sanitize"
)

func newTestIntegrity(t *testing.T) *DataIntegrityService {
	t.Helper()
	validator := validators.NewMemoryValidator(sanitize.NewService(), config.DefaultDomainConfig())
	repair := NewAutoRepairService(zap.NewNop())
	return NewDataIntegrityService(validator, repair, zap.NewNop())
}

func healthyMemory(id string) *entities.Memory {
	m := entities.NewMemory("Tarde de juegos", "Jugamos al parchís toda la tarde.")
	m.ID = id
	return m
}

func hasIssue(issues []DataIssue, field string, kind IssueKind) bool {
	for _, issue := range issues {
		if issue.Field == field && issue.Kind == kind {
			return true
		}
	}
	return false
}

func TestDetectDataCorruption(t *testing.T) {
	svc := newTestIntegrity(t)

	t.Run("healthy records report nothing", func(t *testing.T) {
		issues := svc.DetectDataCorruption([]*entities.Memory{
			healthyMemory("rec-1"),
			healthyMemory("rec-2"),
		})
		assert.Empty(t, issues)
	})

	t.Run("missing title and unknown type", func(t *testing.T) {
		m := healthyMemory("rec-1")
		m.Title = ""
		m.Type = "bogus"

		issues := svc.DetectDataCorruption([]*entities.Memory{m})
		assert.True(t, hasIssue(issues, "title", IssueMissingField))
		assert.True(t, hasIssue(issues, "type", IssueTypeMismatch))
	})

	t.Run("audio record without reference", func(t *testing.T) {
		m := healthyMemory("rec-1")
		m.Type = entities.TypeAudio

		issues := svc.DetectDataCorruption([]*entities.Memory{m})
		assert.True(t, hasIssue(issues, "audioUrl", IssueBrokenReference))
	})

	t.Run("photo record with unusable reference", func(t *testing.T) {
		m := healthyMemory("rec-1")
		m.Type = entities.TypePhoto
		m.ImageURL = "ftp://host/foto.jpg"

		issues := svc.DetectDataCorruption([]*entities.Memory{m})
		assert.True(t, hasIssue(issues, "imageUrl", IssueBrokenReference))
	})

	t.Run("sentiment confidence out of range", func(t *testing.T) {
		m := healthyMemory("rec-1")
		m.Emotion = &entities.Emotion{Primary: "alegría", Confidence: 1.5}

		issues := svc.DetectDataCorruption([]*entities.Memory{m})
		assert.True(t, hasIssue(issues, "emotion.confidence", IssueOutOfRange))
	})

	t.Run("updatedAt before createdAt", func(t *testing.T) {
		m := healthyMemory("rec-1")
		m.UpdatedAt = m.CreatedAt.Add(-time.Hour)

		issues := svc.DetectDataCorruption([]*entities.Memory{m})
		assert.True(t, hasIssue(issues, "updatedAt", IssueOutOfRange))
	})

	t.Run("stringly-typed confidence metadata", func(t *testing.T) {
		m := healthyMemory("rec-1")
		m.Metadata = map[string]any{"confidence": "0.93"}

		issues := svc.DetectDataCorruption([]*entities.Memory{m})
		assert.True(t, hasIssue(issues, "metadata.confidence", IssueTypeMismatch))
	})

	t.Run("nil entry reported as missing record", func(t *testing.T) {
		issues := svc.DetectDataCorruption([]*entities.Memory{nil})
		assert.True(t, hasIssue(issues, "record", IssueMissingField))
	})

	t.Run("detection does not modify records", func(t *testing.T) {
		m := healthyMemory("rec-1")
		m.Title = "<b>Tarde</b>"
		m.Type = "bogus"

		svc.DetectDataCorruption([]*entities.Memory{m})
		assert.Equal(t, "<b>Tarde</b>", m.Title)
		assert.Equal(t, entities.MemoryType("bogus"), m.Type)
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		batch := func() []*entities.Memory {
			a := healthyMemory("rec-1")
			a.Title = ""
			b := healthyMemory("rec-2")
			b.Type = entities.TypeAudio
			return []*entities.Memory{a, b}
		}

		first := svc.DetectDataCorruption(batch())
		second := svc.DetectDataCorruption(batch())
		assert.Equal(t, first, second)
	})
}

func TestDetectAndRepairData(t *testing.T) {
	t.Run("corrupted record repaired to schema defaults", func(t *testing.T) {
		svc := newTestIntegrity(t)

		m := healthyMemory("rec-1")
		m.Title = ""
		m.Type = "bogus"
		m.Tags = []string{"ok", "<script>alert(1)</script>"}

		records := []*entities.Memory{m}
		report := svc.DetectAndRepairData(records)

		assert.Equal(t, 1, report.Total)
		assert.Equal(t, 1, report.Repaired)
		assert.Equal(t, 0, report.Corrupted)
		assert.True(t, hasIssue(report.Issues, "title", IssueMissingField))
		assert.True(t, hasIssue(report.Issues, "type", IssueTypeMismatch))

		repaired := records[0]
		assert.Equal(t, entities.DefaultTitle, repaired.Title)
		assert.Equal(t, entities.DefaultType, repaired.Type)
		assert.Equal(t, []string{"ok", ""}, repaired.Tags)
	})

	t.Run("healthy records pass through untouched", func(t *testing.T) {
		svc := newTestIntegrity(t)

		m := healthyMemory("rec-1")
		records := []*entities.Memory{m}
		report := svc.DetectAndRepairData(records)

		assert.Equal(t, 1, report.Total)
		assert.Equal(t, 0, report.Repaired)
		assert.Equal(t, 0, report.Corrupted)
		assert.Same(t, m, records[0])
	})

	t.Run("unrepairable record stays in batch flagged corrupted", func(t *testing.T) {
		svc := newTestIntegrity(t)

		m := healthyMemory("rec-1")
		meta := map[string]any{}
		meta["self"] = meta
		m.Metadata = meta

		records := []*entities.Memory{m, healthyMemory("rec-2")}
		report := svc.DetectAndRepairData(records)

		assert.Equal(t, 2, report.Total)
		assert.Equal(t, 1, report.Corrupted)
		assert.Equal(t, 0, report.Repaired)
		assert.Len(t, records, 2, "batch must never shrink")
		assert.Same(t, m, records[0], "unrepairable record left untouched")
	})

	t.Run("nil entry flagged corrupted without repair", func(t *testing.T) {
		svc := newTestIntegrity(t)

		records := []*entities.Memory{nil, healthyMemory("rec-2")}
		report := svc.DetectAndRepairData(records)

		assert.Equal(t, 2, report.Total)
		assert.Equal(t, 1, report.Corrupted)
		assert.Equal(t, 0, report.Repaired)
		assert.True(t, hasIssue(report.Issues, "record", IssueMissingField))
		require.Len(t, records, 2, "batch must never shrink")
		assert.Nil(t, records[0])
	})

	t.Run("repair convergence", func(t *testing.T) {
		svc := newTestIntegrity(t)

		m := healthyMemory("rec-1")
		m.Title = ""
		m.Type = entities.TypeAudio // requires audio reference it does not have
		m.Emotion = &entities.Emotion{Primary: "pena", Confidence: -0.2}

		records := []*entities.Memory{m}
		first := svc.DetectAndRepairData(records)
		require.Equal(t, 1, first.Repaired)

		second := svc.DetectAndRepairData(records)
		assert.Equal(t, 0, second.Repaired)
		assert.Equal(t, 0, second.Corrupted)
		assert.Empty(t, second.Issues)
	})
}
