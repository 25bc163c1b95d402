package valueobjects

import (
	"encoding/hex"

	pkgerrors "memvault/pkg/errors"
)

// Sizes of the hex-decoded envelope fields
const (
	SaltSize = 32 // 256-bit PBKDF2 salt
	IVSize   = 16 // 128-bit AES-CBC IV
	HMACSize = 32 // SHA-256 digest
)

// EncryptedData is the persisted envelope for a single encrypted payload.
// All binary fields are hex-encoded; Timestamp is Unix milliseconds at
// encryption time. An envelope is single-use: the IV and salt are freshly
// random per encryption call and never shared between envelopes.
//
// Wire format (stored verbatim by the storage collaborator):
//
//	{ "data": <hex>, "iv": <hex>, "salt": <hex>, "hmac": <hex>, "timestamp": <ms> }
type EncryptedData struct {
	Data      string `json:"data"`
	IV        string `json:"iv"`
	Salt      string `json:"salt"`
	HMAC      string `json:"hmac"`
	Timestamp int64  `json:"timestamp"`
}

// Validate checks structural well-formedness: every field decodes as hex and
// the fixed-size fields have their expected lengths. It says nothing about
// authenticity; that is the HMAC check during decryption.
func (e EncryptedData) Validate() error {
	ciphertext, err := hex.DecodeString(e.Data)
	if err != nil {
		return pkgerrors.ErrMalformedEnvelope.WithDetail("field", "data").WithCause(err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%IVSize != 0 {
		return pkgerrors.ErrMalformedEnvelope.WithDetail("field", "data").
			WithDetail("length", len(ciphertext))
	}

	if iv, err := hex.DecodeString(e.IV); err != nil || len(iv) != IVSize {
		return pkgerrors.ErrMalformedEnvelope.WithDetail("field", "iv")
	}

	if salt, err := hex.DecodeString(e.Salt); err != nil || len(salt) != SaltSize {
		return pkgerrors.ErrMalformedEnvelope.WithDetail("field", "salt")
	}

	if mac, err := hex.DecodeString(e.HMAC); err != nil || len(mac) != HMACSize {
		return pkgerrors.ErrMalformedEnvelope.WithDetail("field", "hmac")
	}

	return nil
}

// IsZero reports whether the envelope is empty
func (e EncryptedData) IsZero() bool {
	return e.Data == "" && e.IV == "" && e.Salt == "" && e.HMAC == ""
}

// Decode returns the raw binary envelope fields. The envelope must have been
// validated first; Decode assumes well-formed hex.
func (e EncryptedData) Decode() (ciphertext, iv, salt, mac []byte, err error) {
	if err = e.Validate(); err != nil {
		return nil, nil, nil, nil, err
	}

	ciphertext, _ = hex.DecodeString(e.Data)
	iv, _ = hex.DecodeString(e.IV)
	salt, _ = hex.DecodeString(e.Salt)
	mac, _ = hex.DecodeString(e.HMAC)
	return ciphertext, iv, salt, mac, nil
}
