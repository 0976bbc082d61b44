// FileCache reads small on-disk blobs (store entries, document fixtures,
// published-library manifests) through memory-mapped files.
//
// A blob stays mapped until Invalidate or Close, so a file replaced on disk
// keeps reading as its old contents until the writer invalidates it. Files
// that cannot be mapped are read with os.ReadFile instead.
package util

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
)

// FileCache is safe for concurrent use.
type FileCache interface {
	// Read returns a copy of the file contents, mapping the file on first
	// access. The copy stays valid after the mapping is released.
	Read(path string) ([]byte, error)

	// Invalidate releases path so the next Read sees the file on disk.
	Invalidate(path string)

	// Close releases every mapping.
	Close() error
}

// FileCacheConfig controls FileCache behavior.
type FileCacheConfig struct {
	// MaxFiles caps the number of blobs held at once. 0 is unlimited.
	MaxFiles int

	// Logger for mapping failures. If nil, uses slog.Default().
	Logger *slog.Logger
}

// DefaultFileCacheConfig returns the limits used by the CLI.
func DefaultFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{MaxFiles: 1024}
}

// UnboundedFileCacheConfig returns config with no limits. Used in tests.
func UnboundedFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{}
}

// NewFileCache creates a FileCache. A nil config means
// DefaultFileCacheConfig().
func NewFileCache(config *FileCacheConfig) FileCache {
	if config == nil {
		config = DefaultFileCacheConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &blobCache{maxFiles: config.MaxFiles, log: logger, blobs: map[string]*blob{}}
}

// blob is one cached file. file is nil when the contents were read rather
// than mapped, and for empty files.
type blob struct {
	data mmap.MMap
	file *os.File
}

func (b *blob) release() error {
	if b.file == nil {
		return nil
	}
	return errors.Join(b.data.Unmap(), b.file.Close())
}

type blobCache struct {
	maxFiles int
	log      *slog.Logger

	mu    sync.Mutex
	blobs map[string]*blob
}

func (c *blobCache) Read(path string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.blobs[path]
	if !ok {
		if c.maxFiles > 0 && len(c.blobs) >= c.maxFiles {
			return nil, fmt.Errorf("file cache limit reached: %d files", c.maxFiles)
		}
		var err error
		if b, err = c.load(path); err != nil {
			return nil, err
		}
		c.blobs[path] = b
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}

// load maps path, falling back to a plain read. Called with mu held.
func (c *blobCache) load(path string) (*blob, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}
	if info.Size() == 0 {
		f.Close()
		return &blob{}, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err == nil {
		return &blob{data: m, file: f}, nil
	}
	f.Close()
	c.log.Warn("mmap failed, reading file", "path", path, "error", err)
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("read %q: %w", path, readErr)
	}
	return &blob{data: data}, nil
}

func (c *blobCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.blobs[path]; ok {
		if err := b.release(); err != nil {
			c.log.Warn("release mapped file", "path", path, "error", err)
		}
		delete(c.blobs, path)
	}
}

func (c *blobCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for path, b := range c.blobs {
		if err := b.release(); err != nil {
			errs = append(errs, fmt.Errorf("release %q: %w", path, err))
		}
	}
	c.blobs = map[string]*blob{}
	return errors.Join(errs...)
}
