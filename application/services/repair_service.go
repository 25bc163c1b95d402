package services

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"memvault/domain/core/entities"
	"memvault/domain/core/validators"
	pkgerrors "memvault/pkg/errors"
)

// RepairOutcome records the result of repairing a single record in a batch
type RepairOutcome struct {
	RecordID string `json:"recordId"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// BatchRepairReport aggregates a batch repair run
type BatchRepairReport struct {
	Total    int             `json:"total"`
	Repaired int             `json:"repaired"`
	Failed   int             `json:"failed"`
	Outcomes []RepairOutcome `json:"outcomes"`
}

// AutoRepairService applies deterministic repairs to corrupted records. Each
// issue kind has exactly one repair rule; rules are pure functions of the
// record and the issue, applied in reported order, so the same record with
// the same issues always repairs to the same result. The input record is
// never mutated.
type AutoRepairService struct {
	logger *zap.Logger
}

// NewAutoRepairService creates a repair service
func NewAutoRepairService(logger *zap.Logger) *AutoRepairService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoRepairService{logger: logger}
}

// AutoRepairMemory returns a repaired clone of the record with one rule
// applied per issue, in the order the issues were reported. An issue kind
// without a rule fails the whole record.
func (s *AutoRepairService) AutoRepairMemory(m *entities.Memory, issues []DataIssue) (*entities.Memory, error) {
	if m == nil {
		return nil, pkgerrors.ErrNilMemory
	}

	out := m.Clone()
	for _, issue := range issues {
		if err := s.applyRule(out, issue); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// BatchRepairMemories repairs every record and reports per-record outcomes.
// A failed record is reported but leaves the rest of the batch unaffected.
func (s *AutoRepairService) BatchRepairMemories(records []*entities.Memory, issuesByIndex [][]DataIssue) ([]*entities.Memory, BatchRepairReport) {
	report := BatchRepairReport{Total: len(records)}
	out := make([]*entities.Memory, len(records))

	for i, m := range records {
		var issues []DataIssue
		if i < len(issuesByIndex) {
			issues = issuesByIndex[i]
		}

		if len(issues) == 0 {
			out[i] = m
			continue
		}

		repaired, err := s.AutoRepairMemory(m, issues)
		outcome := RepairOutcome{Success: err == nil}
		if m != nil {
			outcome.RecordID = m.ID
		}

		if err != nil {
			outcome.Error = err.Error()
			out[i] = m
			report.Failed++
			s.logger.Warn("batch repair: record failed",
				zap.String("record_id", outcome.RecordID),
				zap.Error(err),
			)
		} else {
			out[i] = repaired
			report.Repaired++
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	return out, report
}

// applyRule mutates the working clone according to the single rule for the
// issue kind.
func (s *AutoRepairService) applyRule(m *entities.Memory, issue DataIssue) error {
	switch issue.Kind {
	case IssueMissingField:
		s.fillDefault(m, issue.Field)
		return nil

	case IssueTypeMismatch:
		s.coerceField(m, issue.Field)
		return nil

	case IssueBrokenReference:
		s.clearReference(m, issue.Field)
		return nil

	case IssueOutOfRange:
		s.clampField(m, issue.Field)
		return nil

	default:
		return pkgerrors.ErrRepairUnresolvable.
			WithDetail("field", issue.Field).
			WithDetail("kind", string(issue.Kind))
	}
}

// fillDefault restores a missing field to its schema default. Identifiers
// have no static default; a missing id gets a fresh one.
func (s *AutoRepairService) fillDefault(m *entities.Memory, field string) {
	if field == "id" {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		return
	}

	def, ok := validators.SchemaDefault(field)
	if !ok {
		return
	}

	switch field {
	case "title":
		m.Title = def.(string)
	case "content":
		m.Content = def.(string)
	case "type":
		m.Type = def.(entities.MemoryType)
	case "tags":
		m.Tags = append([]string(nil), def.([]string)...)
	case "privacyLevel":
		m.PrivacyLevel = def.(entities.PrivacyLevel)
	}
}

// coerceField attempts a safe type coercion; when none applies the field
// falls back to its default.
func (s *AutoRepairService) coerceField(m *entities.Memory, field string) {
	switch field {
	case "type":
		if !m.Type.IsValid() {
			m.Type = entities.DefaultType
		}
	case "privacyLevel":
		if m.PrivacyLevel != "" && !m.PrivacyLevel.IsValid() {
			m.PrivacyLevel = entities.DefaultPrivacy
		}
	case "metadata.confidence":
		raw, ok := m.Metadata["confidence"].(string)
		if !ok {
			return
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			m.Metadata["confidence"] = f
		} else {
			delete(m.Metadata, "confidence")
		}
	default:
		s.fillDefault(m, field)
	}
}

// clearReference nulls a broken media reference. When the record type
// requires that reference the type is downgraded to text so the record stays
// self-consistent.
func (s *AutoRepairService) clearReference(m *entities.Memory, field string) {
	switch field {
	case "audioUrl":
		m.AudioURL = ""
		if m.Type.RequiresAudio() {
			m.Type = entities.TypeText
		}
	case "imageUrl":
		m.ImageURL = ""
		if m.Type.RequiresImage() {
			m.Type = entities.TypeText
		}
	}
}

// clampField pulls an out-of-range value back to the nearest bound
func (s *AutoRepairService) clampField(m *entities.Memory, field string) {
	switch field {
	case "confidence", "emotion.confidence":
		if m.Emotion == nil {
			return
		}
		if m.Emotion.Confidence < 0 {
			m.Emotion.Confidence = 0
		} else if m.Emotion.Confidence > 1 {
			m.Emotion.Confidence = 1
		}
	case "updatedAt":
		if m.UpdatedAt.Before(m.CreatedAt) {
			m.UpdatedAt = m.CreatedAt
		}
	}
}
