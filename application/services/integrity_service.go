package services

import (
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"memvault/domain/core/entities"
	"memvault/domain/core/validators"
)

// IssueKind classifies a detected data corruption
type IssueKind string

const (
	// IssueMissingField marks a required field that is absent or empty
	IssueMissingField IssueKind = "MISSING_FIELD"

	// IssueTypeMismatch marks a field holding a value outside its declared
	// domain, including enum violations and stringly-typed numbers
	IssueTypeMismatch IssueKind = "TYPE_MISMATCH"

	// IssueBrokenReference marks a media reference that is required by the
	// record type but missing, or present but not well-formed
	IssueBrokenReference IssueKind = "BROKEN_REFERENCE"

	// IssueOutOfRange marks a numeric or temporal value outside its bounds
	IssueOutOfRange IssueKind = "OUT_OF_RANGE"
)

// DataIssue locates one corruption in one record
type DataIssue struct {
	RecordID string    `json:"recordId"`
	Field    string    `json:"field"`
	Kind     IssueKind `json:"kind"`
}

// DataIntegrityReport summarizes a scan over a batch of records. Corrupted
// counts records with at least one unrepaired issue remaining; Repaired
// counts records whose issues were all fixed and re-validated.
type DataIntegrityReport struct {
	Total     int         `json:"total"`
	Corrupted int         `json:"corrupted"`
	Repaired  int         `json:"repaired"`
	Issues    []DataIssue `json:"issues"`
}

// DataIntegrityService scans memory records for corruption and, paired with
// an AutoRepairService, repairs what it can. Detection is read-only and
// deterministic: the same records always yield the same issues in the same
// order. Repair never commits a change that does not re-validate cleanly,
// and never drops a record - residual failures stay in the batch, flagged as
// corrupted.
type DataIntegrityService struct {
	validator *validators.MemoryValidator
	repair    *AutoRepairService
	logger    *zap.Logger
}

// NewDataIntegrityService creates an integrity service
func NewDataIntegrityService(
	validator *validators.MemoryValidator,
	repair *AutoRepairService,
	logger *zap.Logger,
) *DataIntegrityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataIntegrityService{
		validator: validator,
		repair:    repair,
		logger:    logger,
	}
}

// DetectDataCorruption scans a batch and reports every issue found, in
// record order then field order. The input records are never modified.
func (s *DataIntegrityService) DetectDataCorruption(records []*entities.Memory) []DataIssue {
	var issues []DataIssue
	for _, m := range records {
		issues = append(issues, s.inspectRecord(m)...)
	}
	return issues
}

// DetectAndRepairData scans a batch, repairs every record with issues, and
// re-validates each repaired record before committing it back into the
// batch. Records whose repair does not produce a clean re-validation are
// left untouched and counted as corrupted; the batch never shrinks.
func (s *DataIntegrityService) DetectAndRepairData(records []*entities.Memory) DataIntegrityReport {
	report := DataIntegrityReport{Total: len(records)}

	for i, m := range records {
		issues := s.inspectRecord(m)
		if len(issues) == 0 {
			continue
		}
		report.Issues = append(report.Issues, issues...)

		// A nil entry has no record to repair; it stays in the batch
		// flagged corrupted.
		if m == nil {
			s.logger.Warn("nil record in batch", zap.Int("index", i))
			report.Corrupted++
			continue
		}

		repaired, err := s.repair.AutoRepairMemory(m, issues)
		if err != nil {
			s.logger.Warn("record repair failed",
				zap.String("record_id", m.ID),
				zap.Int("issues", len(issues)),
				zap.Error(err),
			)
			report.Corrupted++
			continue
		}

		// Commit the sanitized form of the repaired record, and only if it
		// re-validates with no remaining issues.
		result := s.validator.ValidateMemory(repaired, false)
		if !result.Success || len(s.structuralIssues(result.Data)) > 0 {
			s.logger.Warn("repaired record failed re-validation",
				zap.String("record_id", m.ID),
			)
			report.Corrupted++
			continue
		}

		records[i] = result.Data
		report.Repaired++
	}

	return report
}

// inspectRecord maps validation failures and structural checks onto issue
// kinds for one record.
func (s *DataIntegrityService) inspectRecord(m *entities.Memory) []DataIssue {
	if m == nil {
		return []DataIssue{{Field: "record", Kind: IssueMissingField}}
	}

	var issues []DataIssue
	add := func(field string, kind IssueKind) {
		issues = append(issues, DataIssue{RecordID: m.ID, Field: field, Kind: kind})
	}

	result := s.validator.ValidateMemory(m, false)
	for _, fe := range result.Errors {
		switch fe.Code {
		case validators.CodeRequiredField:
			add(fe.Field, IssueMissingField)
		case validators.CodeInvalidEnum:
			add(fe.Field, IssueTypeMismatch)
		case validators.CodeOutOfRange:
			add(fe.Field, IssueOutOfRange)
		default:
			add(fe.Field, IssueTypeMismatch)
		}
	}

	return append(issues, s.structuralIssues(m)...)
}

// structuralIssues covers the checks the schema validator does not express:
// media references, sentiment bounds, timestamp ordering and legacy
// stringly-typed metadata.
func (s *DataIntegrityService) structuralIssues(m *entities.Memory) []DataIssue {
	var issues []DataIssue
	add := func(field string, kind IssueKind) {
		issues = append(issues, DataIssue{RecordID: m.ID, Field: field, Kind: kind})
	}

	// Media-bearing types must carry a usable reference.
	if m.Type.RequiresAudio() {
		if m.AudioURL == "" {
			add("audioUrl", IssueBrokenReference)
		} else if !wellFormedReference(m.AudioURL) {
			add("audioUrl", IssueBrokenReference)
		}
	}
	if m.Type.RequiresImage() {
		if m.ImageURL == "" {
			add("imageUrl", IssueBrokenReference)
		} else if !wellFormedReference(m.ImageURL) {
			add("imageUrl", IssueBrokenReference)
		}
	}

	if m.Emotion != nil && (m.Emotion.Confidence < 0 || m.Emotion.Confidence > 1) {
		add("emotion.confidence", IssueOutOfRange)
	}

	if !m.UpdatedAt.IsZero() && !m.CreatedAt.IsZero() && m.UpdatedAt.Before(m.CreatedAt) {
		add("updatedAt", IssueOutOfRange)
	}

	// Legacy exports serialized the confidence annotation as a string.
	if raw, ok := m.Metadata["confidence"].(string); ok {
		if _, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			add("metadata.confidence", IssueTypeMismatch)
		}
	}

	return issues
}

// wellFormedReference accepts absolute URLs and local file paths
func wellFormedReference(ref string) bool {
	if strings.TrimSpace(ref) == "" {
		return false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	if u.Scheme != "" {
		return u.Scheme == "http" || u.Scheme == "https" || u.Scheme == "file"
	}
	// Relative references are local paths from the app's media directory.
	return !strings.ContainsAny(ref, "\x00")
}
