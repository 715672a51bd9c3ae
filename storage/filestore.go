// Package storage provides the durable, browser-scoped session storage: a
// file-backed fiber.Storage with per-entry expiration and optional
// encryption at rest, so tokens survive a restart without sitting on disk
// in the clear.
package storage

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
)

type entry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"` // zero means no expiration
}

// FileStorage implements fiber.Storage on top of a directory of files, one
// per key. When constructed with a key, values are sealed with
// ChaCha20-Poly1305 before hitting disk.
type FileStorage struct {
	dir string
	key []byte // nil when encryption is off

	mu   sync.RWMutex
	done chan struct{}
}

// NewFileStorage creates the directory if needed. encryptionKey must be
// empty or exactly 32 bytes.
func NewFileStorage(dir, encryptionKey string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}
	if encryptionKey != "" && len(encryptionKey) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", chacha20poly1305.KeySize, len(encryptionKey))
	}

	s := &FileStorage{
		dir:  dir,
		done: make(chan struct{}),
	}
	if encryptionKey != "" {
		s.key = []byte(encryptionKey)
	}

	go s.cleanupLoop()
	return s, nil
}

// Get returns the value for key, or nil when missing or expired.
func (s *FileStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	if !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt) {
		return nil, nil
	}
	return s.open(e.Data)
}

// Set stores a value under key; exp of zero means no expiration.
func (s *FileStorage) Set(key string, val []byte, exp time.Duration) error {
	sealed, err := s.seal(val)
	if err != nil {
		return err
	}
	e := entry{Data: sealed}
	if exp > 0 {
		e.ExpiresAt = time.Now().Add(exp)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return os.WriteFile(s.path(key), raw, 0600)
}

// Delete removes a key. A missing key is not an error.
func (s *FileStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Reset removes all stored entries.
func (s *FileStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.session"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Close stops the cleanup loop.
func (s *FileStorage) Close() error {
	close(s.done)
	return nil
}

// path maps a key to a filename. Keys are hashed so session ids never
// become path components.
func (s *FileStorage) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:16])+".session")
}

func (s *FileStorage) seal(val []byte) ([]byte, error) {
	if s.key == nil {
		return val, nil
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, val, nil), nil
}

func (s *FileStorage) open(val []byte) ([]byte, error) {
	if s.key == nil {
		return val, nil
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	if len(val) < aead.NonceSize() {
		return nil, fmt.Errorf("sealed entry too short")
	}
	nonce, ciphertext := val[:aead.NonceSize()], val[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}

// cleanupLoop prunes expired entries every five minutes.
func (s *FileStorage) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.prune()
		}
	}
}

func (s *FileStorage) prune() {
	s.mu.Lock()
	defer s.mu.Unlock()
	matches, _ := filepath.Glob(filepath.Join(s.dir, "*.session"))
	now := time.Now()
	for _, m := range matches {
		raw, err := os.ReadFile(m)
		if err != nil {
			continue
		}
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			os.Remove(m)
			continue
		}
		if !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt) {
			os.Remove(m)
		}
	}
}
