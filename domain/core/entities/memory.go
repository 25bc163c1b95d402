package entities

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// MemoryType represents the kind of media a memory holds.
// The wire values are Spanish because the persisted format predates this
// rewrite; Go identifiers stay English.
type MemoryType string

const (
	TypeText  MemoryType = "texto"
	TypeAudio MemoryType = "audio"
	TypeVideo MemoryType = "video"
	TypePhoto MemoryType = "foto"
)

// ValidMemoryTypes lists every accepted memory type in wire order
var ValidMemoryTypes = []MemoryType{TypeText, TypeAudio, TypeVideo, TypePhoto}

// IsValid reports whether the type is a recognized enum member
func (t MemoryType) IsValid() bool {
	switch t {
	case TypeText, TypeAudio, TypeVideo, TypePhoto:
		return true
	default:
		return false
	}
}

// RequiresAudio reports whether records of this type must carry an audio reference
func (t MemoryType) RequiresAudio() bool {
	return t == TypeAudio
}

// RequiresImage reports whether records of this type must carry an image reference
func (t MemoryType) RequiresImage() bool {
	return t == TypePhoto || t == TypeVideo
}

// PrivacyLevel controls who may see a memory
type PrivacyLevel string

const (
	PrivacyPrivate PrivacyLevel = "privado"
	PrivacyShared  PrivacyLevel = "compartido"
	PrivacyPublic  PrivacyLevel = "publico"
)

// IsValid reports whether the privacy level is a recognized enum member
func (p PrivacyLevel) IsValid() bool {
	switch p {
	case PrivacyPrivate, PrivacyShared, PrivacyPublic:
		return true
	default:
		return false
	}
}

// Documented defaults applied by validation and repair
const (
	DefaultTitle = "Sin título"
	DefaultType  = TypeText
)

// DefaultPrivacy is the privacy level assigned when none is supplied
const DefaultPrivacy = PrivacyPrivate

// Emotion is an optional sentiment annotation attached by the import wizard
type Emotion struct {
	Primary    string  `json:"primary"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// Memory is a plaintext journal record. Callers own and mutate it; the
// pipeline services treat it as a value and return modified copies.
type Memory struct {
	ID           string         `json:"id,omitempty"`
	Title        string         `json:"title" validate:"required"`
	Content      string         `json:"content"`
	Type         MemoryType     `json:"type" validate:"required,oneof=texto audio video foto"`
	Tags         []string       `json:"tags,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	AudioURL     string         `json:"audioUrl,omitempty"`
	ImageURL     string         `json:"imageUrl,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	PrivacyLevel PrivacyLevel   `json:"privacyLevel,omitempty" validate:"omitempty,oneof=privado compartido publico"`
	Emotion      *Emotion       `json:"emotion,omitempty"`
	IsEncrypted  bool           `json:"isEncrypted"`
}

// NewMemory creates an empty text memory with generated id and timestamps
func NewMemory(title, content string) *Memory {
	now := time.Now().UTC()
	return &Memory{
		ID:           uuid.New().String(),
		Title:        title,
		Content:      content,
		Type:         DefaultType,
		Tags:         []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
		Metadata:     map[string]any{},
		PrivacyLevel: DefaultPrivacy,
	}
}

// Clone returns a deep copy so validation and repair never alias caller state
func (m *Memory) Clone() *Memory {
	if m == nil {
		return nil
	}

	c := *m

	if m.Tags != nil {
		c.Tags = make([]string, len(m.Tags))
		copy(c.Tags, m.Tags)
	}

	if m.Metadata != nil {
		c.Metadata = cloneValueMap(m.Metadata)
	}

	if m.Emotion != nil {
		e := *m.Emotion
		c.Emotion = &e
	}

	return &c
}

// Equals compares two memories field for field. Metadata is compared by key
// with deep equality on each value.
func (m *Memory) Equals(other *Memory) bool {
	if m == nil || other == nil {
		return m == other
	}

	if m.ID != other.ID ||
		m.Title != other.Title ||
		m.Content != other.Content ||
		m.Type != other.Type ||
		m.AudioURL != other.AudioURL ||
		m.ImageURL != other.ImageURL ||
		m.PrivacyLevel != other.PrivacyLevel ||
		m.IsEncrypted != other.IsEncrypted ||
		!m.CreatedAt.Equal(other.CreatedAt) ||
		!m.UpdatedAt.Equal(other.UpdatedAt) {
		return false
	}

	if len(m.Tags) != len(other.Tags) {
		return false
	}
	for i := range m.Tags {
		if m.Tags[i] != other.Tags[i] {
			return false
		}
	}

	if (m.Emotion == nil) != (other.Emotion == nil) {
		return false
	}
	if m.Emotion != nil && *m.Emotion != *other.Emotion {
		return false
	}

	if len(m.Metadata) != len(other.Metadata) {
		return false
	}
	for k, v := range m.Metadata {
		// Leaves can be nested maps or slices, which == would panic on.
		if !reflect.DeepEqual(other.Metadata[k], v) {
			return false
		}
	}

	return true
}

// CloneMetadata deep-copies a metadata map so the result shares nothing with
// the input. Nil stays nil.
func CloneMetadata(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	return cloneValueMap(in)
}

// cloneValueMap deep-copies decoded JSON metadata. Cyclic maps are cloned
// preserving the cycle rather than recursing forever; the sanitizer rejects
// them downstream.
func cloneValueMap(in map[string]any) map[string]any {
	return cloneMapSeen(in, make(map[uintptr]map[string]any))
}

func cloneMapSeen(in map[string]any, seen map[uintptr]map[string]any) map[string]any {
	ptr := reflect.ValueOf(in).Pointer()
	if c, ok := seen[ptr]; ok {
		return c
	}

	out := make(map[string]any, len(in))
	seen[ptr] = out
	for k, v := range in {
		switch val := v.(type) {
		case map[string]any:
			out[k] = cloneMapSeen(val, seen)
		case []any:
			items := make([]any, len(val))
			copy(items, val)
			out[k] = items
		default:
			out[k] = v
		}
	}
	return out
}
