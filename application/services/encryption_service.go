package services

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/pbkdf2"

	"memvault/domain/core/entities"
	"memvault/domain/core/valueobjects"
	pkgerrors "memvault/pkg/errors"
)

// Key derivation and cipher parameters. These are part of the persisted
// envelope format and must not change without a format migration.
const (
	KeyIterations = 10000
	KeySize       = 32 // AES-256
)

// MinPasswordLength is the password policy floor
const MinPasswordLength = 8

// PasswordValidation reports every unmet password policy rule, one entry
// per rule.
type PasswordValidation struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// EncryptionService performs authenticated symmetric encryption of strings,
// records and file payloads. It keeps no state across calls: every operation
// is a pure transform of its inputs plus fresh randomness, so a single
// instance is safe for concurrent use.
//
// Envelope construction: PBKDF2-HMAC-SHA256 (10k iterations) stretches the
// password with a fresh 256-bit salt into an AES-256 key; the plaintext is
// encrypted with AES-CBC under a fresh 128-bit IV and PKCS7 padding; an
// HMAC-SHA256 under the same derived key authenticates iv || salt ||
// ciphertext. The widened HMAC scope (rather than ciphertext alone) is a
// deliberate format decision: it removes IV/salt malleability at the cost of
// incompatibility with envelopes authenticated over ciphertext only.
type EncryptionService struct {
	logger *zap.Logger
}

// NewEncryptionService creates an encryption service
func NewEncryptionService(logger *zap.Logger) *EncryptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EncryptionService{logger: logger}
}

// DeriveKey stretches a password into a 256-bit AES key. Deterministic for
// identical (password, salt) pairs.
func (s *EncryptionService) DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, KeyIterations, KeySize, sha256.New)
}

// EncryptString encrypts plaintext under a password-derived key. Salt and IV
// are freshly random on every call; no two envelopes ever share them, even
// for identical inputs.
func (s *EncryptionService) EncryptString(plaintext, password string) (valueobjects.EncryptedData, error) {
	if password == "" {
		return valueobjects.EncryptedData{}, pkgerrors.ErrEmptyPassword
	}

	salt := make([]byte, valueobjects.SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return valueobjects.EncryptedData{}, pkgerrors.New(
			pkgerrors.KindInternal, "RANDOM_SOURCE", "failed to generate salt",
		).WithCause(err)
	}

	iv := make([]byte, valueobjects.IVSize)
	if _, err := rand.Read(iv); err != nil {
		return valueobjects.EncryptedData{}, pkgerrors.New(
			pkgerrors.KindInternal, "RANDOM_SOURCE", "failed to generate iv",
		).WithCause(err)
	}

	key := s.DeriveKey(password, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return valueobjects.EncryptedData{}, pkgerrors.New(
			pkgerrors.KindInternal, "CIPHER_INIT", "failed to initialize cipher",
		).WithCause(err)
	}

	padded := padPKCS7([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return valueobjects.EncryptedData{
		Data:      hex.EncodeToString(ciphertext),
		IV:        hex.EncodeToString(iv),
		Salt:      hex.EncodeToString(salt),
		HMAC:      hex.EncodeToString(computeMAC(key, iv, salt, ciphertext)),
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// DecryptString authenticates and decrypts an envelope. The HMAC is
// recomputed and compared in constant time before any decryption is
// attempted; on mismatch the call fails closed with an IntegrityViolation
// and the ciphertext is never touched. A passing HMAC followed by invalid
// padding, invalid UTF-8 or an empty result is a DecryptionFailure - the
// payload itself is damaged rather than tampered with.
func (s *EncryptionService) DecryptString(encrypted valueobjects.EncryptedData, password string) (string, error) {
	if password == "" {
		return "", pkgerrors.ErrEmptyPassword
	}

	ciphertext, iv, salt, mac, err := encrypted.Decode()
	if err != nil {
		return "", err
	}

	key := s.DeriveKey(password, salt)

	expected := computeMAC(key, iv, salt, ciphertext)
	if !hmac.Equal(mac, expected) {
		s.logger.Warn("integrity check failed, refusing to decrypt",
			zap.Int("ciphertext_bytes", len(ciphertext)),
			zap.Int64("envelope_timestamp", encrypted.Timestamp),
		)
		return "", pkgerrors.ErrIntegrityViolation
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", pkgerrors.New(
			pkgerrors.KindInternal, "CIPHER_INIT", "failed to initialize cipher",
		).WithCause(err)
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plaintext, err := unpadPKCS7(padded, aes.BlockSize)
	if err != nil {
		return "", pkgerrors.ErrDecryptionFailed.WithCause(err)
	}

	if len(plaintext) == 0 || !utf8.Valid(plaintext) {
		return "", pkgerrors.ErrDecryptionFailed
	}

	return string(plaintext), nil
}

// EncryptMemory replaces the sensitive fields of a record (content and media
// references) with encrypted envelopes. All other fields pass through
// unchanged. Each field gets its own envelope with independent salt and IV.
func (s *EncryptionService) EncryptMemory(m *entities.Memory, password string) (*entities.EncryptedMemory, error) {
	if m == nil {
		return nil, pkgerrors.ErrNilMemory
	}

	content, err := s.EncryptString(m.Content, password)
	if err != nil {
		return nil, err
	}

	out := &entities.EncryptedMemory{
		ID:           m.ID,
		Title:        m.Title,
		Content:      content,
		Type:         m.Type,
		Tags:         append([]string(nil), m.Tags...),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		Metadata:     entities.CloneMetadata(m.Metadata),
		PrivacyLevel: m.PrivacyLevel,
		IsEncrypted:  true,
	}
	if m.Emotion != nil {
		e := *m.Emotion
		out.Emotion = &e
	}

	if m.AudioURL != "" {
		enc, err := s.EncryptString(m.AudioURL, password)
		if err != nil {
			return nil, err
		}
		out.AudioURL = &enc
	}

	if m.ImageURL != "" {
		enc, err := s.EncryptString(m.ImageURL, password)
		if err != nil {
			return nil, err
		}
		out.ImageURL = &enc
	}

	return out, nil
}

// DecryptMemory reverses EncryptMemory. Any field-level failure aborts the
// whole call; partial plaintext is never returned.
func (s *EncryptionService) DecryptMemory(m *entities.EncryptedMemory, password string) (*entities.Memory, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	content, err := s.DecryptString(m.Content, password)
	if err != nil {
		return nil, err
	}

	out := &entities.Memory{
		ID:           m.ID,
		Title:        m.Title,
		Content:      content,
		Type:         m.Type,
		Tags:         append([]string(nil), m.Tags...),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		Metadata:     entities.CloneMetadata(m.Metadata),
		PrivacyLevel: m.PrivacyLevel,
		IsEncrypted:  false,
	}
	if m.Emotion != nil {
		e := *m.Emotion
		out.Emotion = &e
	}

	if m.AudioURL != nil {
		url, err := s.DecryptString(*m.AudioURL, password)
		if err != nil {
			return nil, err
		}
		out.AudioURL = url
	}

	if m.ImageURL != nil {
		url, err := s.DecryptString(*m.ImageURL, password)
		if err != nil {
			return nil, err
		}
		out.ImageURL = url
	}

	return out, nil
}

// EncryptFile encrypts a raw byte payload. The bytes are base64-encoded
// before encryption so the string transform applies unchanged; the binary
// content is otherwise opaque to this service.
func (s *EncryptionService) EncryptFile(data []byte, password string) (valueobjects.EncryptedData, error) {
	if len(data) == 0 {
		return valueobjects.EncryptedData{}, pkgerrors.New(
			pkgerrors.KindInvalidInput, "EMPTY_FILE", "file payload must not be empty",
		)
	}
	return s.EncryptString(base64.StdEncoding.EncodeToString(data), password)
}

// DecryptFile reverses EncryptFile and returns the raw bytes
func (s *EncryptionService) DecryptFile(encrypted valueobjects.EncryptedData, password string) ([]byte, error) {
	payload, err := s.DecryptString(encrypted, password)
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, pkgerrors.ErrDecryptionFailed.WithCause(err)
	}
	return data, nil
}

// ValidatePassword checks the password policy and reports one error per
// unmet rule.
func (s *EncryptionService) ValidatePassword(password string) PasswordValidation {
	var errs []string

	if len(password) < MinPasswordLength {
		errs = append(errs, "password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	if !hasUpper {
		errs = append(errs, "password must contain an uppercase letter")
	}
	if !hasLower {
		errs = append(errs, "password must contain a lowercase letter")
	}
	if !hasDigit {
		errs = append(errs, "password must contain a digit")
	}
	if !hasSymbol {
		errs = append(errs, "password must contain a symbol")
	}

	return PasswordValidation{IsValid: len(errs) == 0, Errors: errs}
}

// GenerateMasterKey returns 256 bits of cryptographically secure random
// data, hex-encoded.
func (s *EncryptionService) GenerateMasterKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", pkgerrors.New(
			pkgerrors.KindInternal, "RANDOM_SOURCE", "failed to generate master key",
		).WithCause(err)
	}
	return hex.EncodeToString(key), nil
}

// computeMAC authenticates iv || salt || ciphertext under the derived key
func computeMAC(key, iv, salt, ciphertext []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(iv)
	h.Write(salt)
	h.Write(ciphertext)
	return h.Sum(nil)
}

// padPKCS7 pads data to a multiple of blockSize
func padPKCS7(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

// unpadPKCS7 strips and verifies PKCS7 padding
func unpadPKCS7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, pkgerrors.New(pkgerrors.KindDecryption, "BAD_PADDING", "invalid padded length")
	}

	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, pkgerrors.New(pkgerrors.KindDecryption, "BAD_PADDING", "invalid padding byte")
	}

	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, pkgerrors.New(pkgerrors.KindDecryption, "BAD_PADDING", "inconsistent padding")
		}
	}

	return data[:len(data)-n], nil
}
