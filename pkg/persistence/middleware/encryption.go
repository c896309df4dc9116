// Package middleware wraps a StateStore with cross-cutting persistence
// behavior such as encryption at rest and masking of sensitive facts.
package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/softgrove/vellum/pkg/domain"
	"github.com/softgrove/vellum/pkg/ports"
)

const envelopeKey = "encrypted"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new saves.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.StateStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts the world state
// with AES-GCM before it reaches the underlying store. Only Meta stays in the
// clear so recency scans keep working; player facts, world facts, and the
// choice history are sealed in the envelope.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.StateStore) ports.StateStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

var _ ports.StateStore = (*encryptionMiddleware)(nil)

func (m *encryptionMiddleware) Initialize(ctx context.Context, namespace string) (*domain.WorldState, error) {
	if namespace == "" {
		return nil, fmt.Errorf("%w: namespace cannot be empty", domain.ErrUsage)
	}
	// Bypassing next.Initialize keeps the seed state from ever touching the
	// store in plaintext.
	state := domain.NewWorldState(time.Now())
	if err := m.Save(ctx, namespace, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, namespace string, state *domain.WorldState) error {
	plainText, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("encrypt state: %w", err)
	}

	// The envelope is an opaque state carrying only Meta and the sealed blob.
	envelope := &domain.WorldState{
		Meta: state.Meta,
		Extra: map[string]any{
			envelopeKey: base64.StdEncoding.EncodeToString(ciphertext),
		},
	}
	if err := m.next.Save(ctx, namespace, envelope); err != nil {
		return err
	}
	// The inner store refreshed the envelope's lastSaved; mirror it so the
	// caller's copy stays consistent with what a Load would return.
	state.Meta.LastSaved = envelope.Meta.LastSaved
	return nil
}

func (m *encryptionMiddleware) Load(ctx context.Context, namespace string) (*domain.WorldState, error) {
	envelope, err := m.next.Load(ctx, namespace)
	if err != nil {
		return nil, err
	}

	encoded, ok := envelope.Extra[envelopeKey].(string)
	if !ok {
		// Fail closed: with encryption configured, a plaintext save is
		// treated as corrupt rather than silently accepted.
		return nil, fmt.Errorf("%w: save is missing its encryption envelope", domain.ErrCorruptState)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", domain.ErrCorruptState, err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptState, err)
	}

	var state domain.WorldState
	if err := yaml.Unmarshal(plainText, &state); err != nil {
		return nil, fmt.Errorf("%w: unmarshal decrypted state: %v", domain.ErrCorruptState, err)
	}
	// The envelope's stamp is authoritative: the inner store refreshed it on
	// every save, after the blob was sealed.
	state.Meta.LastSaved = envelope.Meta.LastSaved
	return &state, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, namespace string) error {
	return m.next.Delete(ctx, namespace)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *encryptionMiddleware) MostRecent(ctx context.Context) (string, error) {
	return m.next.MostRecent(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
