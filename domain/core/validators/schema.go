package validators

import (
	"memvault/domain/core/entities"
)

// Field error codes reported by MemoryValidator
const (
	CodeRequiredField = "REQUIRED_FIELD"
	CodeInvalidEnum   = "INVALID_ENUM"
	CodeTooLong       = "TOO_LONG"
	CodeTooManyTags   = "TOO_MANY_TAGS"
	CodeOutOfRange    = "OUT_OF_RANGE"
	CodeInvalidValue  = "INVALID_VALUE"
)

// FieldError is one schema violation on a named field
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of validating one memory record.
// Data carries the sanitized record and is present iff Success.
type ValidationResult struct {
	Success bool               `json:"success"`
	Data    *entities.Memory   `json:"data,omitempty"`
	Errors  []FieldError       `json:"errors,omitempty"`
}

// Clone deep-copies a result so cache hits never alias cached state
func (r *ValidationResult) Clone() *ValidationResult {
	if r == nil {
		return nil
	}
	c := &ValidationResult{Success: r.Success, Data: r.Data.Clone()}
	if r.Errors != nil {
		c.Errors = make([]FieldError, len(r.Errors))
		copy(c.Errors, r.Errors)
	}
	return c
}

// fieldRule is one row of the declarative memory schema. The table is the
// single source of required/default knowledge shared by validation and the
// repair rules, so the two can never disagree about what a well-formed
// record looks like.
type fieldRule struct {
	Name      string
	Required  bool
	Sanitized bool
	Default   any
}

// MemorySchema enumerates every validated field of a memory record in wire
// order. Check functions beyond the flags live in MemoryValidator because
// they need configured limits.
var MemorySchema = []fieldRule{
	{Name: "id", Required: false},
	{Name: "title", Required: true, Sanitized: true, Default: entities.DefaultTitle},
	{Name: "content", Required: false, Sanitized: true, Default: ""},
	{Name: "type", Required: true, Default: entities.DefaultType},
	{Name: "tags", Required: false, Sanitized: true, Default: []string{}},
	{Name: "createdAt", Required: false},
	{Name: "updatedAt", Required: false},
	{Name: "audioUrl", Required: false},
	{Name: "imageUrl", Required: false},
	{Name: "metadata", Required: false, Sanitized: true},
	{Name: "privacyLevel", Required: false, Default: entities.DefaultPrivacy},
	{Name: "emotion", Required: false},
}

// SchemaDefault returns the documented default for a field, and whether the
// schema defines one.
func SchemaDefault(field string) (any, bool) {
	for _, rule := range MemorySchema {
		if rule.Name == field {
			return rule.Default, rule.Default != nil
		}
	}
	return nil, false
}
