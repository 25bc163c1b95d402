// Package sanitize neutralizes unsafe content in user-supplied text before it
// is validated or persisted. Markup is stripped with bluemonday's strict
// policy (script and style bodies are removed entirely, remaining tags are
// dropped, entities are normalized) and control characters are removed.
package sanitize

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"

	pkgerrors "memvault/pkg/errors"
)

// DefaultMaxDepth bounds recursion over nested objects
const DefaultMaxDepth = 32

// Service strips unsafe markup and control characters from free text.
// A Service is immutable after construction and safe for concurrent use.
type Service struct {
	policy   *bluemonday.Policy
	maxDepth int
}

// NewService creates a sanitization service with the strict policy and the
// default depth bound.
func NewService() *Service {
	return NewServiceWithDepth(DefaultMaxDepth)
}

// NewServiceWithDepth creates a sanitization service with a custom depth bound
func NewServiceWithDepth(maxDepth int) *Service {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Service{
		policy:   bluemonday.StrictPolicy(),
		maxDepth: maxDepth,
	}
}

// SanitizeText removes markup fragments and control characters from s.
// Tabs and newlines are preserved. The transform is idempotent: sanitizing
// already-sanitized text returns it unchanged.
func (s *Service) SanitizeText(text string) string {
	// Control characters go first: the HTML tokenizer rewrites NUL bytes
	// to U+FFFD, which would survive a post-pass strip.
	return s.policy.Sanitize(stripControl(text))
}

// SanitizeObject walks an arbitrarily nested value and applies SanitizeText
// to every string leaf. Maps and slices are rebuilt; non-string leaves pass
// through untouched. Cyclic references and nesting beyond the depth bound are
// rejected as errors rather than traversed best-effort.
func (s *Service) SanitizeObject(obj any) (any, error) {
	visited := make(map[uintptr]bool)
	return s.sanitizeValue(obj, visited, 0)
}

func (s *Service) sanitizeValue(v any, visited map[uintptr]bool, depth int) (any, error) {
	if depth > s.maxDepth {
		return nil, pkgerrors.ErrMaxDepthExceeded.WithDetail("max_depth", s.maxDepth)
	}

	switch val := v.(type) {
	case nil:
		return nil, nil

	case string:
		return s.SanitizeText(val), nil

	case map[string]any:
		ptr := reflect.ValueOf(val).Pointer()
		if visited[ptr] {
			return nil, pkgerrors.ErrCyclicReference
		}
		visited[ptr] = true
		defer delete(visited, ptr)

		out := make(map[string]any, len(val))
		for k, item := range val {
			cleaned, err := s.sanitizeValue(item, visited, depth+1)
			if err != nil {
				return nil, err
			}
			out[s.SanitizeText(k)] = cleaned
		}
		return out, nil

	case []any:
		ptr := reflect.ValueOf(val).Pointer()
		if visited[ptr] {
			return nil, pkgerrors.ErrCyclicReference
		}
		visited[ptr] = true
		defer delete(visited, ptr)

		out := make([]any, len(val))
		for i, item := range val {
			cleaned, err := s.sanitizeValue(item, visited, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = cleaned
		}
		return out, nil

	case []string:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = s.SanitizeText(item)
		}
		return out, nil

	default:
		// numbers, bools and any other leaf pass through unchanged
		return v, nil
	}
}

// SanitizeStrings sanitizes a string slice preserving order
func (s *Service) SanitizeStrings(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = s.SanitizeText(v)
	}
	return out
}

// stripControl removes control characters except tab and newline
func stripControl(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
}
