// Package privacy implements viewing keys for selective disclosure.
//
// A viewing key is a symmetric 32-byte key a wallet can hand to an auditor.
// Payloads (amounts, memos, counterparties) are sealed with
// XChaCha20-Poly1305, so possession of the viewing key grants read access
// without granting the ability to spend. Keys are indexed by their SHA-256
// hash so they can be referenced without being revealed.
package privacy

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

// KeySize is the byte length of a viewing key.
const KeySize = 32

// Level controls how much of a payment is disclosed.
type Level string

const (
	// LevelTransparent leaves all data public.
	LevelTransparent Level = "transparent"
	// LevelShielded hides sender, amount, and recipient.
	LevelShielded Level = "shielded"
	// LevelCompliant shields data but escrows a viewing key for auditors.
	LevelCompliant Level = "compliant"
)

// ViewingKey is a selective-disclosure key.
type ViewingKey struct {
	// Key is the raw 32-byte key. Secret.
	Key []byte
	// KeyHash is SHA256(Key), safe to use as an index.
	KeyHash []byte
	// CreatedAt is the Unix creation time in milliseconds.
	CreatedAt int64
	// Label is an optional human-readable label.
	Label string
}

// EncryptedPayload is a sealed payload with the nonce needed to open it.
type EncryptedPayload struct {
	Ciphertext []byte
	Nonce      []byte
}

// GenerateViewingKey draws a fresh random viewing key.
func GenerateViewingKey(label string) (*ViewingKey, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate viewing key: %w", err)
	}

	keyHash := sha256.Sum256(key)
	return &ViewingKey{
		Key:       key,
		KeyHash:   keyHash[:],
		CreatedAt: time.Now().UnixMilli(),
		Label:     label,
	}, nil
}

// KeyHash returns SHA256(viewingKey) for indexing without disclosure.
func KeyHash(viewingKey []byte) ([]byte, error) {
	if len(viewingKey) != KeySize {
		return nil, validation.Errorf("viewingKey", "must be %d bytes, got %d", KeySize, len(viewingKey))
	}
	h := sha256.Sum256(viewingKey)
	return h[:], nil
}

// Encrypt seals plaintext for holders of viewingKey using
// XChaCha20-Poly1305 with a fresh random 24-byte nonce.
func Encrypt(viewingKey, plaintext []byte) (*EncryptedPayload, error) {
	aead, err := newAEAD(viewingKey)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return &EncryptedPayload{
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
		Nonce:      nonce,
	}, nil
}

// Decrypt opens a sealed payload. Authentication failure (wrong key or
// tampered ciphertext) is returned as an error from the AEAD open.
func Decrypt(viewingKey []byte, payload *EncryptedPayload) ([]byte, error) {
	aead, err := newAEAD(viewingKey)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, validation.Errorf("payload", "must not be nil")
	}
	if len(payload.Nonce) != chacha20poly1305.NonceSizeX {
		return nil, validation.Errorf("payload", "nonce must be %d bytes, got %d", chacha20poly1305.NonceSizeX, len(payload.Nonce))
	}

	plaintext, err := aead.Open(nil, payload.Nonce, payload.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}

// ShouldEncrypt reports whether a privacy level requires sealing payloads.
func ShouldEncrypt(level Level) bool {
	return level == LevelShielded || level == LevelCompliant
}

// ShouldIncludeViewingKey reports whether a privacy level escrows a viewing
// key for auditors.
func ShouldIncludeViewingKey(level Level) bool {
	return level == LevelCompliant
}

func newAEAD(viewingKey []byte) (cipher.AEAD, error) {
	if len(viewingKey) != KeySize {
		return nil, validation.Errorf("viewingKey", "must be %d bytes, got %d", KeySize, len(viewingKey))
	}
	aead, err := chacha20poly1305.NewX(viewingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return aead, nil
}
