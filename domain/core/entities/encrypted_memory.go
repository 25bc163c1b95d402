package entities

import (
	"encoding/json"
	"time"

	"memvault/domain/core/valueobjects"
	pkgerrors "memvault/pkg/errors"
)

// EncryptedMemory is a Memory whose sensitive fields (content and media
// references) have been replaced by encrypted envelopes. Every other field
// passes through unchanged. IsEncrypted is true by invariant; it is kept as
// a serialized field so the storage collaborator can tell record variants
// apart without inspecting payloads.
type EncryptedMemory struct {
	ID           string                      `json:"id,omitempty"`
	Title        string                      `json:"title"`
	Content      valueobjects.EncryptedData  `json:"content"`
	Type         MemoryType                  `json:"type"`
	Tags         []string                    `json:"tags,omitempty"`
	CreatedAt    time.Time                   `json:"createdAt"`
	UpdatedAt    time.Time                   `json:"updatedAt"`
	AudioURL     *valueobjects.EncryptedData `json:"audioUrl,omitempty"`
	ImageURL     *valueobjects.EncryptedData `json:"imageUrl,omitempty"`
	Metadata     map[string]any              `json:"metadata,omitempty"`
	PrivacyLevel PrivacyLevel                `json:"privacyLevel,omitempty"`
	Emotion      *Emotion                    `json:"emotion,omitempty"`
	IsEncrypted  bool                        `json:"isEncrypted"`
}

// Validate checks the structural invariants of an encrypted record before it
// is trusted for decryption.
func (m *EncryptedMemory) Validate() error {
	if m == nil {
		return pkgerrors.ErrNilMemory
	}

	if !m.IsEncrypted {
		return pkgerrors.New(
			pkgerrors.KindInvalidInput,
			"NOT_ENCRYPTED",
			"Encrypted memory must have isEncrypted set",
		)
	}

	if err := m.Content.Validate(); err != nil {
		return err
	}

	if m.AudioURL != nil {
		if err := m.AudioURL.Validate(); err != nil {
			return err
		}
	}

	if m.ImageURL != nil {
		if err := m.ImageURL.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// MarshalRecord serializes a validated encrypted record for storage
func (m *EncryptedMemory) MarshalRecord() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// ParseEncryptedMemory deserializes a stored record and checks its
// structural invariants before handing it back.
func ParseEncryptedMemory(data []byte) (*EncryptedMemory, error) {
	var m EncryptedMemory
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, pkgerrors.New(
			pkgerrors.KindInvalidInput,
			"MALFORMED_RECORD",
			"Stored record is not valid JSON",
		).WithCause(err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
