package validators

import (
	"time"

	"github.com/google/uuid"

	"memvault/domain/core/entities"
)

// CreateMemoryInput is the payload for creating a record. All mandatory
// fields of the schema must be supplied.
type CreateMemoryInput struct {
	Title        string                `json:"title"`
	Content      string                `json:"content"`
	Type         entities.MemoryType   `json:"type"`
	Tags         []string              `json:"tags,omitempty"`
	AudioURL     string                `json:"audioUrl,omitempty"`
	ImageURL     string                `json:"imageUrl,omitempty"`
	Metadata     map[string]any        `json:"metadata,omitempty"`
	PrivacyLevel entities.PrivacyLevel `json:"privacyLevel,omitempty"`
	Emotion      *entities.Emotion     `json:"emotion,omitempty"`
}

// toMemory builds a candidate record with generated id and timestamps.
// Validation of the candidate happens in ValidateCreate.
func (in *CreateMemoryInput) toMemory() *entities.Memory {
	now := time.Now().UTC()

	privacy := in.PrivacyLevel
	if privacy == "" {
		privacy = entities.DefaultPrivacy
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	return &entities.Memory{
		ID:           uuid.New().String(),
		Title:        in.Title,
		Content:      in.Content,
		Type:         in.Type,
		Tags:         tags,
		CreatedAt:    now,
		UpdatedAt:    now,
		AudioURL:     in.AudioURL,
		ImageURL:     in.ImageURL,
		Metadata:     in.Metadata,
		PrivacyLevel: privacy,
		Emotion:      in.Emotion,
	}
}

// UpdateMemoryInput is a partial patch. Nil fields were not supplied and are
// not validated; non-nil fields are checked against the same rules as full
// validation.
type UpdateMemoryInput struct {
	Title        *string                `json:"title,omitempty"`
	Content      *string                `json:"content,omitempty"`
	Type         *entities.MemoryType   `json:"type,omitempty"`
	Tags         *[]string              `json:"tags,omitempty"`
	AudioURL     *string                `json:"audioUrl,omitempty"`
	ImageURL     *string                `json:"imageUrl,omitempty"`
	Metadata     *map[string]any        `json:"metadata,omitempty"`
	PrivacyLevel *entities.PrivacyLevel `json:"privacyLevel,omitempty"`
	Emotion      *entities.Emotion      `json:"emotion,omitempty"`
}

func (in *UpdateMemoryInput) clone() *UpdateMemoryInput {
	c := &UpdateMemoryInput{}

	if in.Title != nil {
		v := *in.Title
		c.Title = &v
	}
	if in.Content != nil {
		v := *in.Content
		c.Content = &v
	}
	if in.Type != nil {
		v := *in.Type
		c.Type = &v
	}
	if in.Tags != nil {
		v := make([]string, len(*in.Tags))
		copy(v, *in.Tags)
		c.Tags = &v
	}
	if in.AudioURL != nil {
		v := *in.AudioURL
		c.AudioURL = &v
	}
	if in.ImageURL != nil {
		v := *in.ImageURL
		c.ImageURL = &v
	}
	if in.Metadata != nil {
		v := make(map[string]any, len(*in.Metadata))
		for k, item := range *in.Metadata {
			v[k] = item
		}
		c.Metadata = &v
	}
	if in.PrivacyLevel != nil {
		v := *in.PrivacyLevel
		c.PrivacyLevel = &v
	}
	if in.Emotion != nil {
		v := *in.Emotion
		c.Emotion = &v
	}

	return c
}

// Apply merges the patch into a record copy and stamps UpdatedAt
func (in *UpdateMemoryInput) Apply(m *entities.Memory) *entities.Memory {
	out := m.Clone()

	if in.Title != nil {
		out.Title = *in.Title
	}
	if in.Content != nil {
		out.Content = *in.Content
	}
	if in.Type != nil {
		out.Type = *in.Type
	}
	if in.Tags != nil {
		out.Tags = append([]string(nil), *in.Tags...)
	}
	if in.AudioURL != nil {
		out.AudioURL = *in.AudioURL
	}
	if in.ImageURL != nil {
		out.ImageURL = *in.ImageURL
	}
	if in.Metadata != nil {
		out.Metadata = *in.Metadata
	}
	if in.PrivacyLevel != nil {
		out.PrivacyLevel = *in.PrivacyLevel
	}
	if in.Emotion != nil {
		e := *in.Emotion
		out.Emotion = &e
	}

	out.UpdatedAt = time.Now().UTC()
	return out
}

// PatchResult is the outcome of validating a partial update.
// Patch carries the sanitized patch and is present iff Success.
type PatchResult struct {
	Success bool               `json:"success"`
	Patch   *UpdateMemoryInput `json:"patch,omitempty"`
	Errors  []FieldError       `json:"errors,omitempty"`
}
