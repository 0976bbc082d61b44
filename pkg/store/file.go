package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gnana997/libswap/pkg/util"
)

const blobExt = ".json"

// FileStore keeps one file per key under a directory. Reads go through a
// memory-mapped file cache; writes replace the file atomically and
// invalidate the cached mapping.
type FileStore struct {
	dir   string
	cache util.FileCache
	log   *slog.Logger
}

// NewFileStore creates the directory if needed. A nil logger uses
// slog.Default().
func NewFileStore(dir string, cache util.FileCache, log *slog.Logger) (*FileStore, error) {
	if log == nil {
		log = slog.Default()
	}
	if cache == nil {
		cache = util.NewFileCache(nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir, cache: cache, log: log}, nil
}

// Dir is the directory holding the blobs.
func (f *FileStore) Dir() string { return f.dir }

// Path returns the file backing key.
func (f *FileStore) Path(key string) string {
	return filepath.Join(f.dir, key+blobExt)
}

// KeyForPath maps a file path back to its key.
func (f *FileStore) KeyForPath(path string) (string, bool) {
	if filepath.Dir(path) != filepath.Clean(f.dir) {
		return "", false
	}
	base := filepath.Base(path)
	if !strings.HasSuffix(base, blobExt) {
		return "", false
	}
	key := strings.TrimSuffix(base, blobExt)
	return key, ValidateKey(key) == nil
}

// Invalidate drops the cached mapping for key.
func (f *FileStore) Invalidate(key string) {
	f.cache.Invalidate(f.Path(key))
}

func (f *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	data, err := f.cache.Read(f.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("get %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

func (f *FileStore) Set(_ context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, "."+key+"-*")
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := os.Rename(tmpName, f.Path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("set %s: %w", key, err)
	}
	f.cache.Invalidate(f.Path(key))
	f.log.Debug("blob written", "key", key, "bytes", len(value))
	return nil
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	f.cache.Invalidate(f.Path(key))
	if err := os.Remove(f.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys lists the stored keys.
func (f *FileStore) Keys() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("list store: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if key, ok := f.KeyForPath(filepath.Join(f.dir, e.Name())); ok {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func sortedKeys(seq iter.Seq[string]) []string {
	return slices.Sorted(seq)
}
