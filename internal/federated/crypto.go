/*
Package federated turns local performance summaries into noised,
committed contributions and periodically folds batches into a
versioned community global model.

The pipeline per contribution: summarize → privatize (Laplace noise) →
commit (HMAC-SHA256) → seal (ChaCha20-Poly1305) → enqueue. Batches of
five or more queued contributions are verified, opened, averaged and
folded into the global model, bumping its patch version.
*/
package federated

import (
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// masterSecretSize is the length of the persisted master secret.
const masterSecretSize = 32

// Sealer holds the keys used to commit and seal contributions. Keys
// are derived from one master secret with distinct HKDF info strings,
// so commitment and encryption never share a key.
type Sealer struct {
	commitKey []byte
	aead      cipher.AEAD
}

// NewSealer creates a sealer with a fresh random in-memory master
// secret. Contributions sealed by it are only openable within the same
// process; prefer LoadOrCreateSealer when the queue outlives the run.
func NewSealer() (*Sealer, error) {
	master := make([]byte, masterSecretSize)
	if _, err := rand.Read(master); err != nil {
		return nil, fmt.Errorf("failed to generate master secret: %w", err)
	}
	return NewSealerFromSecret(master)
}

// LoadOrCreateSealer loads the master secret from path, generating and
// persisting a fresh one on first use. Keeping the secret beside the
// database lets contributions queued by earlier invocations still be
// opened at batch time. A malformed secret file is rotated; entries
// sealed under the old secret are then dropped at aggregation.
func LoadOrCreateSealer(path string) (*Sealer, error) {
	master, err := os.ReadFile(path)
	if err == nil && len(master) == masterSecretSize {
		return NewSealerFromSecret(master)
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read sealer secret: %w", err)
	}
	if err == nil {
		log.Printf("Warning: sealer secret at %s is malformed, rotating it", path)
	}

	master = make([]byte, masterSecretSize)
	if _, err := rand.Read(master); err != nil {
		return nil, fmt.Errorf("failed to generate master secret: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create secret directory: %w", err)
	}
	if err := os.WriteFile(path, master, 0o600); err != nil {
		return nil, fmt.Errorf("failed to persist sealer secret: %w", err)
	}
	return NewSealerFromSecret(master)
}

// NewSealerFromSecret creates a sealer from an explicit master secret.
// Intended for tests.
func NewSealerFromSecret(master []byte) (*Sealer, error) {
	commitKey, err := deriveKey(master, "cadence/commit/v1")
	if err != nil {
		return nil, err
	}
	sealKey, err := deriveKey(master, "cadence/seal/v1")
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(sealKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AEAD: %w", err)
	}

	return &Sealer{commitKey: commitKey, aead: aead}, nil
}

// deriveKey expands the master secret into a 32-byte subkey.
func deriveKey(master []byte, info string) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, master, nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// Commit produces the hex HMAC-SHA256 commitment over a payload.
func (s *Sealer) Commit(payload []byte) string {
	mac := hmac.New(sha256.New, s.commitKey)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCommit checks a commitment against a payload in constant time.
func (s *Sealer) VerifyCommit(payload []byte, proof string) bool {
	expected, err := hex.DecodeString(proof)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.commitKey)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expected)
}

// Seal encrypts a payload, returning ciphertext and nonce.
func (s *Sealer) Seal(payload []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nil, nonce, payload, nil), nonce, nil
}

// Open decrypts a sealed payload.
func (s *Sealer) Open(ciphertext, nonce []byte) ([]byte, error) {
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}
