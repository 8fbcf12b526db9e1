package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/umlpad/pkg/domain"
	"github.com/aretw0/umlpad/pkg/ports"
)

// envelopeID marks the single opaque entry that holds the encrypted list.
const envelopeID = "__encrypted__"

// ErrDecrypt is returned when stored history cannot be decrypted with any key.
// It does not wrap domain.ErrCorruptHistory so a wrong key never reads as an
// empty history that the next save would overwrite.
var ErrDecrypt = errors.New("history decryption failed")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey encrypts new data. Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried when the active key cannot decrypt, allowing key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.HistoryBackend
	config EncryptionConfig
}

// NewEncryptionMiddleware returns a middleware that stores the history list as
// one AES-GCM sealed envelope entry.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, fmt.Errorf("active key must be 32 bytes (AES-256), got %d", len(config.ActiveKey))
	}
	for i, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, fmt.Errorf("fallback key %d must be 32 bytes, got %d", i, len(k))
		}
	}
	return func(next ports.HistoryBackend) ports.HistoryBackend {
		return &encryptionMiddleware{next: next, config: config}
	}, nil
}

func (m *encryptionMiddleware) Store(ctx context.Context, entries []domain.HistoryEntry) error {
	plainText, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt history: %w", err)
	}

	envelope := domain.HistoryEntry{
		ID:     envelopeID,
		Source: base64.StdEncoding.EncodeToString(ciphertext),
	}
	return m.next.Store(ctx, []domain.HistoryEntry{envelope})
}

func (m *encryptionMiddleware) Load(ctx context.Context) ([]domain.HistoryEntry, error) {
	stored, err := m.next.Load(ctx)
	if err != nil || len(stored) == 0 {
		return nil, err
	}

	if len(stored) != 1 || stored[0].ID != envelopeID {
		return nil, fmt.Errorf("%w: history is not encrypted", ErrDecrypt)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(stored[0].Source)
	if err != nil {
		return nil, fmt.Errorf("%w: bad envelope encoding: %v", domain.ErrCorruptHistory, err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, err
	}

	var entries []domain.HistoryEntry
	if err := json.Unmarshal(plainText, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptHistory, err)
	}
	return entries, nil
}

func (m *encryptionMiddleware) Remove(ctx context.Context) error {
	return m.next.Remove(ctx)
}

func encrypt(plaintext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	for _, key := range append([][]byte{activeKey}, fallbackKeys...) {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, fmt.Errorf("%w with all available keys", ErrDecrypt)
}

func decrypt(ciphertext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
