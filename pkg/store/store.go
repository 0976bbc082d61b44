// Package store persists named blobs: the library registry and the access
// credential.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"sync"

	"github.com/gnana997/libswap/pkg/library"
)

// Keys of the blobs the plugin persists.
const (
	KeyLibraries   = "connected_libraries"
	KeyAccessToken = "access_token"
)

// ErrNotFound is returned by Get for keys that were never set.
var ErrNotFound = errors.New("store: not found")

// Store is a key-value blob store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateKey rejects keys that cannot be used as file names.
func ValidateKey(key string) error {
	if !validKey.MatchString(key) || key == "." || key == ".." {
		return fmt.Errorf("store: invalid key %q", key)
	}
	return nil
}

// MemoryStore keeps blobs in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, ErrNotFound)
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys returns a snapshot of the stored keys.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(maps.Keys(m.data))
}

// LoadRegistry restores the library registry. A missing blob is an empty
// registry.
func LoadRegistry(ctx context.Context, s Store) (*library.Registry, error) {
	data, err := s.Get(ctx, KeyLibraries)
	if errors.Is(err, ErrNotFound) {
		return library.NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load libraries: %w", err)
	}
	reg, err := library.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load libraries: %w", err)
	}
	return reg, nil
}

// SaveRegistry persists the full registry.
func SaveRegistry(ctx context.Context, s Store, reg *library.Registry) error {
	data, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("encode libraries: %w", err)
	}
	if err := s.Set(ctx, KeyLibraries, data); err != nil {
		return fmt.Errorf("save libraries: %w", err)
	}
	return nil
}

// LoadToken returns the stored access credential, or "" when none is set.
func LoadToken(ctx context.Context, s Store) (string, error) {
	data, err := s.Get(ctx, KeyAccessToken)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	var tok string
	if err := json.Unmarshal(data, &tok); err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return tok, nil
}

// SaveToken stores the access credential.
func SaveToken(ctx context.Context, s Store, token string) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	if err := s.Set(ctx, KeyAccessToken, data); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// ClearToken removes the access credential.
func ClearToken(ctx context.Context, s Store) error {
	if err := s.Delete(ctx, KeyAccessToken); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
