package validators

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"memvault/domain/config"
	"memvault/domain/core/entities"
	"memvault/pkg/sanitize"
)

// MemoryValidator validates memory records against the schema and sanitizes
// their free-text fields. Validation is a pure function of its input; the
// result cache is bounded (LRU) with TTL eviction and only affects latency,
// never outcomes. Safe for concurrent use.
type MemoryValidator struct {
	cfg       *config.DomainConfig
	sanitizer *sanitize.Service
	validate  *validator.Validate
	cache     *expirable.LRU[string, *ValidationResult]
}

// NewMemoryValidator creates a validator with the given sanitizer and limits
func NewMemoryValidator(sanitizer *sanitize.Service, cfg *config.DomainConfig) *MemoryValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	v := validator.New()
	// Report wire field names, not Go identifiers
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})

	return &MemoryValidator{
		cfg:       cfg,
		sanitizer: sanitizer,
		validate:  v,
		cache:     expirable.NewLRU[string, *ValidationResult](cfg.ValidationCacheSize, nil, cfg.ValidationCacheTTL),
	}
}

// ValidateMemory validates and sanitizes a full record. When useCache is
// true, a previous result for an identical input may be returned; the cached
// copy is deep-cloned so callers never share state.
func (mv *MemoryValidator) ValidateMemory(m *entities.Memory, useCache bool) *ValidationResult {
	if m == nil {
		return &ValidationResult{
			Success: false,
			Errors:  []FieldError{{Field: "memory", Code: CodeRequiredField, Message: "memory record must not be nil"}},
		}
	}

	var key string
	if useCache {
		hash, hashable := contentHash(m)
		if !hashable {
			// No canonical key means no safe cache lookup or store.
			useCache = false
		} else {
			key = hash
			if cached, ok := mv.cache.Get(key); ok {
				return cached.Clone()
			}
		}
	}

	result := mv.validateUncached(m)

	if useCache {
		mv.cache.Add(key, result.Clone())
	}
	return result
}

func (mv *MemoryValidator) validateUncached(m *entities.Memory) *ValidationResult {
	sanitized, errs := mv.sanitizeMemory(m)

	errs = append(errs, mv.structErrors(sanitized)...)
	errs = append(errs, mv.limitErrors(sanitized)...)

	if len(errs) > 0 {
		return &ValidationResult{Success: false, Errors: errs}
	}
	return &ValidationResult{Success: true, Data: sanitized}
}

// ValidateCreate validates a creation payload. All mandatory fields must be
// present; on success Data is a fully-populated new record.
func (mv *MemoryValidator) ValidateCreate(input *CreateMemoryInput) *ValidationResult {
	if input == nil {
		return &ValidationResult{
			Success: false,
			Errors:  []FieldError{{Field: "input", Code: CodeRequiredField, Message: "create payload must not be nil"}},
		}
	}

	candidate := input.toMemory()
	return mv.ValidateMemory(candidate, false)
}

// ValidateUpdate validates a partial patch: only the supplied keys are
// checked, against the same field rules as full validation.
func (mv *MemoryValidator) ValidateUpdate(patch *UpdateMemoryInput) *PatchResult {
	if patch == nil {
		return &PatchResult{
			Success: false,
			Errors:  []FieldError{{Field: "patch", Code: CodeRequiredField, Message: "update payload must not be nil"}},
		}
	}

	cleaned := patch.clone()
	var errs []FieldError

	if cleaned.Title != nil {
		title := strings.TrimSpace(mv.sanitizer.SanitizeText(*cleaned.Title))
		cleaned.Title = &title
		if title == "" {
			errs = append(errs, FieldError{Field: "title", Code: CodeRequiredField, Message: "title must not be empty"})
		} else if len([]rune(title)) > mv.cfg.MaxTitleLength {
			errs = append(errs, tooLong("title", mv.cfg.MaxTitleLength))
		}
	}

	if cleaned.Content != nil {
		content := mv.sanitizer.SanitizeText(*cleaned.Content)
		cleaned.Content = &content
		if len([]rune(content)) > mv.cfg.MaxContentLength {
			errs = append(errs, tooLong("content", mv.cfg.MaxContentLength))
		}
	}

	if cleaned.Type != nil && !cleaned.Type.IsValid() {
		errs = append(errs, invalidEnum("type", string(*cleaned.Type)))
	}

	if cleaned.PrivacyLevel != nil && !cleaned.PrivacyLevel.IsValid() {
		errs = append(errs, invalidEnum("privacyLevel", string(*cleaned.PrivacyLevel)))
	}

	if cleaned.Tags != nil {
		tags := mv.normalizeTags(*cleaned.Tags)
		cleaned.Tags = &tags
		errs = append(errs, mv.tagErrors(tags)...)
	}

	if cleaned.Emotion != nil {
		cleaned.Emotion.Primary = mv.sanitizer.SanitizeText(cleaned.Emotion.Primary)
		if c := cleaned.Emotion.Confidence; c < 0 || c > 1 {
			errs = append(errs, FieldError{
				Field:   "confidence",
				Code:    CodeOutOfRange,
				Message: "emotion confidence must be between 0 and 1",
			})
		}
	}

	if len(errs) > 0 {
		return &PatchResult{Success: false, Errors: errs}
	}
	return &PatchResult{Success: true, Patch: cleaned}
}

// sanitizeMemory returns a sanitized deep copy of m. Tags are deduplicated
// preserving first occurrence; entries emptied by sanitization are kept so
// sanitization never drops data. Untraversable metadata (cycles, excessive
// nesting) is reported as a field error instead of being traversed.
func (mv *MemoryValidator) sanitizeMemory(m *entities.Memory) (*entities.Memory, []FieldError) {
	c := m.Clone()
	var errs []FieldError

	c.Title = strings.TrimSpace(mv.sanitizer.SanitizeText(c.Title))
	c.Content = mv.sanitizer.SanitizeText(c.Content)

	if c.Tags != nil {
		c.Tags = mv.normalizeTags(c.Tags)
	}

	if c.Metadata != nil {
		cleaned, err := mv.sanitizer.SanitizeObject(c.Metadata)
		if err != nil {
			errs = append(errs, FieldError{Field: "metadata", Code: CodeInvalidValue, Message: err.Error()})
			c.Metadata = nil
		} else if meta, ok := cleaned.(map[string]any); ok {
			c.Metadata = meta
		}
	}

	if c.Emotion != nil {
		c.Emotion.Primary = mv.sanitizer.SanitizeText(c.Emotion.Primary)
	}

	return c, errs
}

func (mv *MemoryValidator) normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		cleaned := mv.sanitizer.SanitizeText(tag)
		if mv.cfg.DedupeTags {
			if seen[cleaned] {
				continue
			}
			seen[cleaned] = true
		}
		out = append(out, cleaned)
	}
	return out
}

// structErrors maps validator/v10 violations onto ordered field errors
func (mv *MemoryValidator) structErrors(m *entities.Memory) []FieldError {
	err := mv.validate.Struct(m)
	if err == nil {
		return nil
	}

	violations, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "memory", Code: CodeInvalidValue, Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(violations))
	for _, v := range violations {
		out = append(out, mapViolation(v))
	}
	return out
}

func mapViolation(v validator.FieldError) FieldError {
	field := v.Field()
	switch v.Tag() {
	case "required":
		return FieldError{Field: field, Code: CodeRequiredField, Message: fmt.Sprintf("%s is required", field)}
	case "oneof":
		return FieldError{Field: field, Code: CodeInvalidEnum, Message: fmt.Sprintf("%s must be one of: %s", field, v.Param())}
	case "gte", "lte", "gt", "lt":
		return FieldError{Field: field, Code: CodeOutOfRange, Message: fmt.Sprintf("%s is out of range", field)}
	case "max":
		return FieldError{Field: field, Code: CodeTooLong, Message: fmt.Sprintf("%s must be at most %s characters", field, v.Param())}
	default:
		return FieldError{Field: field, Code: CodeInvalidValue, Message: fmt.Sprintf("%s is invalid", field)}
	}
}

// limitErrors applies the configured length and size limits
func (mv *MemoryValidator) limitErrors(m *entities.Memory) []FieldError {
	var errs []FieldError

	if len([]rune(m.Title)) > mv.cfg.MaxTitleLength {
		errs = append(errs, tooLong("title", mv.cfg.MaxTitleLength))
	}

	if len([]rune(m.Content)) > mv.cfg.MaxContentLength {
		errs = append(errs, tooLong("content", mv.cfg.MaxContentLength))
	}

	if !mv.cfg.AllowEmptyContent && m.Content == "" && m.Type == entities.TypeText {
		errs = append(errs, FieldError{Field: "content", Code: CodeRequiredField, Message: "content is required"})
	}

	errs = append(errs, mv.tagErrors(m.Tags)...)

	if len(m.Metadata) > mv.cfg.MaxMetadataKeys {
		errs = append(errs, FieldError{
			Field:   "metadata",
			Code:    CodeTooLong,
			Message: fmt.Sprintf("metadata cannot have more than %d keys", mv.cfg.MaxMetadataKeys),
		})
	}
	for k, v := range m.Metadata {
		if s, ok := v.(string); ok && len([]rune(s)) > mv.cfg.MaxMetadataValue {
			errs = append(errs, FieldError{
				Field:   "metadata",
				Code:    CodeTooLong,
				Message: fmt.Sprintf("metadata value for %q exceeds %d characters", k, mv.cfg.MaxMetadataValue),
			})
		}
	}

	return errs
}

func (mv *MemoryValidator) tagErrors(tags []string) []FieldError {
	var errs []FieldError

	if len(tags) > mv.cfg.MaxTagsPerMemory {
		errs = append(errs, FieldError{
			Field:   "tags",
			Code:    CodeTooManyTags,
			Message: fmt.Sprintf("cannot have more than %d tags", mv.cfg.MaxTagsPerMemory),
		})
	}

	for _, tag := range tags {
		if len([]rune(tag)) > mv.cfg.MaxTagLength {
			errs = append(errs, FieldError{
				Field:   "tags",
				Code:    CodeTooLong,
				Message: fmt.Sprintf("tag %q exceeds %d characters", tag, mv.cfg.MaxTagLength),
			})
		}
	}

	return errs
}

// PurgeCache drops all cached validation results
func (mv *MemoryValidator) PurgeCache() {
	mv.cache.Purge()
}

// contentHash keys the cache on the canonical JSON of the input record.
// encoding/json sorts map keys, so equal records always hash equal. Records
// whose metadata cannot be marshaled (NaN floats and the like) have no
// canonical key and report hashable false; they must never touch the cache.
func contentHash(m *entities.Memory) (hash string, hashable bool) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), true
}

func tooLong(field string, limit int) FieldError {
	return FieldError{
		Field:   field,
		Code:    CodeTooLong,
		Message: fmt.Sprintf("%s must be at most %d characters", field, limit),
	}
}

func invalidEnum(field, value string) FieldError {
	return FieldError{
		Field:   field,
		Code:    CodeInvalidEnum,
		Message: fmt.Sprintf("%s has unrecognized value %q", field, value),
	}
}
