package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/libswap/pkg/library"
	"github.com/gnana997/libswap/pkg/util"
)

// --- Helpers ---

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	cache := util.NewFileCache(util.UnboundedFileCacheConfig())
	t.Cleanup(func() { cache.Close() })
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "store"), cache, util.Discard())
	require.NoError(t, err)
	return fs
}

// stores runs a test body against every Store implementation.
func stores(t *testing.T, body func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { body(t, NewMemoryStore()) })
	t.Run("file", func(t *testing.T) { body(t, newFileStore(t)) })
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{"connected_libraries", true},
		{"access_token", true},
		{"v1.backup-2", true},
		{"", false},
		{".", false},
		{"..", false},
		{"a/b", false},
		{"a b", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestStore_GetSetDelete(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, err := s.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.Set(ctx, "k", []byte("one")))
		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "one", string(got))

		require.NoError(t, s.Set(ctx, "k", []byte("two")))
		got, err = s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "two", string(got), "overwrite visible through the cache")

		require.NoError(t, s.Delete(ctx, "k"))
		_, err = s.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)

		assert.NoError(t, s.Delete(ctx, "k"), "deleting a missing key is not an error")
		assert.Error(t, s.Set(ctx, "../escape", []byte("x")))
	})
}

func TestStore_ValuesAreCopies(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		value := []byte("abc")
		require.NoError(t, s.Set(ctx, "k", value))
		value[0] = 'X'

		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(got))
		got[1] = 'Y'

		again, _ := s.Get(ctx, "k")
		assert.Equal(t, "abc", string(again))
	})
}

func TestRegistryPersistence(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		reg, err := LoadRegistry(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, 0, reg.Len(), "missing blob is an empty registry")

		reg.Upsert(library.Library{Name: "Shark", ID: "s1", Kind: library.KindLocal, Components: map[string]string{"Rectangle": "keyA"}})
		reg.Upsert(library.Library{Name: "Monkey", ID: "m1", Kind: library.KindRemote, Components: map[string]string{"Rectangle": "keyB"}})
		require.NoError(t, SaveRegistry(ctx, s, reg))

		restored, err := LoadRegistry(ctx, s)
		require.NoError(t, err)
		require.Equal(t, 2, restored.Len())
		monkey, ok := restored.Get("Monkey")
		require.True(t, ok)
		assert.Equal(t, "keyB", monkey.Components["Rectangle"])
		assert.Equal(t, library.KindRemote, monkey.Kind)
	})
}

func TestLoadRegistry_CorruptBlob(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Set(context.Background(), KeyLibraries, []byte(`{"not":"a list"}`)))

	_, err := LoadRegistry(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load libraries")
}

func TestTokenHelpers(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		tok, err := LoadToken(ctx, s)
		require.NoError(t, err)
		assert.Empty(t, tok)

		require.NoError(t, SaveToken(ctx, s, "figd_secret"))
		tok, err = LoadToken(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, "figd_secret", tok)

		require.NoError(t, ClearToken(ctx, s))
		tok, err = LoadToken(ctx, s)
		require.NoError(t, err)
		assert.Empty(t, tok)
	})
}

func TestFileStore_Layout(t *testing.T) {
	fs := newFileStore(t)
	ctx := context.Background()
	require.NoError(t, fs.Set(ctx, KeyLibraries, []byte("[]")))
	require.NoError(t, fs.Set(ctx, KeyAccessToken, []byte(`"t"`)))

	data, err := os.ReadFile(filepath.Join(fs.Dir(), "connected_libraries.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	// Stray files are not keys.
	require.NoError(t, os.WriteFile(filepath.Join(fs.Dir(), "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(fs.Dir(), ".access_token-123"), []byte("x"), 0o644))

	keys, err := fs.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{KeyAccessToken, KeyLibraries}, keys)
}

func TestFileStore_KeyForPath(t *testing.T) {
	fs := newFileStore(t)

	key, ok := fs.KeyForPath(fs.Path("access_token"))
	assert.True(t, ok)
	assert.Equal(t, "access_token", key)

	_, ok = fs.KeyForPath(filepath.Join(fs.Dir(), "nested", "x.json"))
	assert.False(t, ok)
	_, ok = fs.KeyForPath(filepath.Join(fs.Dir(), "x.tmp"))
	assert.False(t, ok)
}

func TestMemoryStore_Keys(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "b", nil))
	require.NoError(t, s.Set(ctx, "a", nil))
	assert.Equal(t, []string{"a", "b"}, s.Keys())
}

func TestWatcher_ReportsExternalWrites(t *testing.T) {
	fs := newFileStore(t)
	ctx := context.Background()
	require.NoError(t, fs.Set(ctx, KeyLibraries, []byte("[]")))

	// Prime the cache so the watcher has something to invalidate.
	_, err := fs.Get(ctx, KeyLibraries)
	require.NoError(t, err)

	var mu sync.Mutex
	var changed []string
	w, err := NewWatcher(fs, func(key string) {
		mu.Lock()
		changed = append(changed, key)
		mu.Unlock()
	}, WatchOptions{DebounceMs: 20, Keys: []string{KeyLibraries}}, util.Discard())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	// Another process rewrites the blob; the token write is filtered out.
	require.NoError(t, os.WriteFile(fs.Path(KeyLibraries), []byte(`[{"name":"Shark","id":"s1","type":"Local"}]`), 0o644))
	require.NoError(t, os.WriteFile(fs.Path(KeyAccessToken), []byte(`"t"`), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changed) > 0
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	for _, k := range changed {
		assert.Equal(t, KeyLibraries, k)
	}
	mu.Unlock()

	reg, err := LoadRegistry(ctx, fs)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len(), "cache invalidated before the callback")
}

func TestWatcher_Lifecycle(t *testing.T) {
	fs := newFileStore(t)
	w, err := NewWatcher(fs, func(string) {}, WatchOptions{}, nil)
	require.NoError(t, err)

	require.NoError(t, w.Start())
	assert.Error(t, w.Start())
	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
	assert.Error(t, w.Start())
	assert.Equal(t, 0, w.Pending())
}
