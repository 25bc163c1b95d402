package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"memvault/domain/core/entities"
	pkgerrors "memvault/pkg/errors"
)

func newTestRepair(t *testing.T) *AutoRepairService {
	t.Helper()
	return NewAutoRepairService(zap.NewNop())
}

func TestAutoRepairMemory(t *testing.T) {
	svc := newTestRepair(t)

	t.Run("missing fields restored to schema defaults", func(t *testing.T) {
		m := &entities.Memory{ID: "rec-1"}
		issues := []DataIssue{
			{RecordID: "rec-1", Field: "title", Kind: IssueMissingField},
			{RecordID: "rec-1", Field: "type", Kind: IssueMissingField},
			{RecordID: "rec-1", Field: "tags", Kind: IssueMissingField},
		}

		out, err := svc.AutoRepairMemory(m, issues)
		require.NoError(t, err)

		assert.Equal(t, entities.DefaultTitle, out.Title)
		assert.Equal(t, entities.DefaultType, out.Type)
		assert.Equal(t, []string{}, out.Tags)
	})

	t.Run("missing id gets a generated one", func(t *testing.T) {
		m := &entities.Memory{Title: "x", Type: entities.TypeText}

		out, err := svc.AutoRepairMemory(m, []DataIssue{
			{Field: "id", Kind: IssueMissingField},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, out.ID)

		// Repairing again must not replace an id that is already present.
		again, err := svc.AutoRepairMemory(out, []DataIssue{
			{Field: "id", Kind: IssueMissingField},
		})
		require.NoError(t, err)
		assert.Equal(t, out.ID, again.ID)
	})

	t.Run("unknown type coerced to default", func(t *testing.T) {
		m := &entities.Memory{ID: "rec-1", Title: "x", Type: "bogus"}

		out, err := svc.AutoRepairMemory(m, []DataIssue{
			{Field: "type", Kind: IssueTypeMismatch},
		})
		require.NoError(t, err)
		assert.Equal(t, entities.DefaultType, out.Type)
	})

	t.Run("numeric string metadata coerced to float", func(t *testing.T) {
		m := &entities.Memory{
			ID:       "rec-1",
			Title:    "x",
			Type:     entities.TypeText,
			Metadata: map[string]any{"confidence": " 0.93 "},
		}

		out, err := svc.AutoRepairMemory(m, []DataIssue{
			{Field: "metadata.confidence", Kind: IssueTypeMismatch},
		})
		require.NoError(t, err)
		assert.Equal(t, 0.93, out.Metadata["confidence"])
	})

	t.Run("non-numeric confidence metadata dropped", func(t *testing.T) {
		m := &entities.Memory{
			ID:       "rec-1",
			Title:    "x",
			Type:     entities.TypeText,
			Metadata: map[string]any{"confidence": "muy alta"},
		}

		out, err := svc.AutoRepairMemory(m, []DataIssue{
			{Field: "metadata.confidence", Kind: IssueTypeMismatch},
		})
		require.NoError(t, err)
		assert.NotContains(t, out.Metadata, "confidence")
	})

	t.Run("broken audio reference cleared and type downgraded", func(t *testing.T) {
		m := &entities.Memory{
			ID:       "rec-1",
			Title:    "x",
			Type:     entities.TypeAudio,
			AudioURL: "ftp://host/nota.ogg",
		}

		out, err := svc.AutoRepairMemory(m, []DataIssue{
			{Field: "audioUrl", Kind: IssueBrokenReference},
		})
		require.NoError(t, err)
		assert.Empty(t, out.AudioURL)
		assert.Equal(t, entities.TypeText, out.Type)
	})

	t.Run("broken image reference on text record keeps type", func(t *testing.T) {
		m := &entities.Memory{
			ID:       "rec-1",
			Title:    "x",
			Type:     entities.TypeText,
			ImageURL: "://bad",
		}

		out, err := svc.AutoRepairMemory(m, []DataIssue{
			{Field: "imageUrl", Kind: IssueBrokenReference},
		})
		require.NoError(t, err)
		assert.Empty(t, out.ImageURL)
		assert.Equal(t, entities.TypeText, out.Type)
	})

	t.Run("out of range values clamped", func(t *testing.T) {
		created := time.Now().UTC()
		m := &entities.Memory{
			ID:        "rec-1",
			Title:     "x",
			Type:      entities.TypeText,
			CreatedAt: created,
			UpdatedAt: created.Add(-time.Hour),
			Emotion:   &entities.Emotion{Primary: "pena", Confidence: 1.7},
		}

		out, err := svc.AutoRepairMemory(m, []DataIssue{
			{Field: "emotion.confidence", Kind: IssueOutOfRange},
			{Field: "updatedAt", Kind: IssueOutOfRange},
		})
		require.NoError(t, err)
		assert.Equal(t, 1.0, out.Emotion.Confidence)
		assert.True(t, out.UpdatedAt.Equal(created))
	})

	t.Run("negative confidence clamps to zero", func(t *testing.T) {
		m := &entities.Memory{
			ID:      "rec-1",
			Title:   "x",
			Type:    entities.TypeText,
			Emotion: &entities.Emotion{Primary: "pena", Confidence: -0.4},
		}

		out, err := svc.AutoRepairMemory(m, []DataIssue{
			{Field: "emotion.confidence", Kind: IssueOutOfRange},
		})
		require.NoError(t, err)
		assert.Equal(t, 0.0, out.Emotion.Confidence)
	})

	t.Run("deterministic", func(t *testing.T) {
		newRecord := func() *entities.Memory {
			return &entities.Memory{ID: "rec-1", Type: "bogus"}
		}
		issues := []DataIssue{
			{Field: "title", Kind: IssueMissingField},
			{Field: "type", Kind: IssueTypeMismatch},
		}

		first, err := svc.AutoRepairMemory(newRecord(), issues)
		require.NoError(t, err)
		second, err := svc.AutoRepairMemory(newRecord(), issues)
		require.NoError(t, err)
		assert.True(t, first.Equals(second))
	})

	t.Run("input record never mutated", func(t *testing.T) {
		m := &entities.Memory{ID: "rec-1", Title: "", Type: "bogus"}

		_, err := svc.AutoRepairMemory(m, []DataIssue{
			{Field: "title", Kind: IssueMissingField},
			{Field: "type", Kind: IssueTypeMismatch},
		})
		require.NoError(t, err)
		assert.Empty(t, m.Title)
		assert.Equal(t, entities.MemoryType("bogus"), m.Type)
	})

	t.Run("unknown issue kind unresolvable", func(t *testing.T) {
		m := &entities.Memory{ID: "rec-1", Title: "x", Type: entities.TypeText}

		_, err := svc.AutoRepairMemory(m, []DataIssue{
			{Field: "title", Kind: "HAUNTED"},
		})
		assert.ErrorIs(t, err, pkgerrors.ErrRepairUnresolvable)
	})

	t.Run("nil record rejected", func(t *testing.T) {
		_, err := svc.AutoRepairMemory(nil, nil)
		assert.ErrorIs(t, err, pkgerrors.ErrNilMemory)
	})
}

func TestBatchRepairMemories(t *testing.T) {
	svc := newTestRepair(t)

	t.Run("per-record outcomes with aggregate counts", func(t *testing.T) {
		records := []*entities.Memory{
			{ID: "rec-1", Title: "", Type: entities.TypeText},
			{ID: "rec-2", Title: "sano", Type: entities.TypeText},
			{ID: "rec-3", Title: "x", Type: entities.TypeText},
		}
		issues := [][]DataIssue{
			{{Field: "title", Kind: IssueMissingField}},
			nil,
			{{Field: "title", Kind: "HAUNTED"}},
		}

		out, report := svc.BatchRepairMemories(records, issues)

		assert.Equal(t, 3, report.Total)
		assert.Equal(t, 1, report.Repaired)
		assert.Equal(t, 1, report.Failed)
		require.Len(t, out, 3)

		assert.Equal(t, entities.DefaultTitle, out[0].Title)
		assert.Same(t, records[1], out[1], "clean record passes through")
		assert.Same(t, records[2], out[2], "failed record left untouched")

		require.Len(t, report.Outcomes, 2)
		assert.True(t, report.Outcomes[0].Success)
		assert.False(t, report.Outcomes[1].Success)
		assert.Equal(t, "rec-3", report.Outcomes[1].RecordID)
	})

	t.Run("empty batch", func(t *testing.T) {
		out, report := svc.BatchRepairMemories(nil, nil)
		assert.Empty(t, out)
		assert.Equal(t, 0, report.Total)
	})
}
