// Package embedding persists per-user speaker embeddings. Extraction is
// expensive, so each embedding is computed once per user and reused by every
// later request until re-enrollment overwrites it.
package embedding

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/gbarbosa9/retone/domain"
	"github.com/gbarbosa9/retone/domain/repositories"
)

// FileExt is the extension of cached speaker embedding files.
const FileExt = ".se"

// Cache stores at most one embedding file per user id under dir. Writes for
// a given user are mutually exclusive; reads are plain file reads and may
// proceed concurrently.
type Cache struct {
	dir    string
	logger *zap.Logger

	group singleflight.Group

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCache creates the cache directory if needed.
func NewCache(dir string, logger *zap.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.Filesystemf("create embedding cache dir %s: %v", dir, err)
	}
	return &Cache{
		dir:    dir,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// Path returns the cache entry path for userID, whether or not it exists.
func (c *Cache) Path(userID string) string {
	return filepath.Join(c.dir, SafeID(userID)+FileExt)
}

// Has reports whether userID currently has a usable cached embedding.
func (c *Cache) Has(userID string) bool {
	info, err := os.Stat(c.Path(userID))
	return err == nil && !info.IsDir()
}

// GetOrCreate returns the cached embedding path for userID, extracting one
// from refAudioPath when absent. Concurrent callers for the same user share
// a single extraction.
func (c *Cache) GetOrCreate(ctx context.Context, userID, refAudioPath string, ex repositories.EmbeddingExtractor) (string, error) {
	path := c.Path(userID)
	if c.Has(userID) {
		return path, nil
	}

	_, err, _ := c.group.Do(SafeID(userID), func() (any, error) {
		// Re-check under the flight: another caller may have finished
		// extraction while this one queued.
		if c.Has(userID) {
			return nil, nil
		}
		return nil, c.extract(ctx, refAudioPath, path, ex)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// Put extracts a fresh embedding from refAudioPath and installs it for
// userID, overwriting any prior entry. Re-enrollment is last-writer-wins;
// writes for the same user never interleave.
func (c *Cache) Put(ctx context.Context, userID, refAudioPath string, ex repositories.EmbeddingExtractor) (string, error) {
	lock := c.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	path := c.Path(userID)
	if err := c.extract(ctx, refAudioPath, path, ex); err != nil {
		return "", err
	}
	return path, nil
}

// extract runs the extractor into a temp file and renames it into place so a
// failed extraction never corrupts an existing entry.
func (c *Cache) extract(ctx context.Context, refAudioPath, path string, ex repositories.EmbeddingExtractor) error {
	tmp := path + ".tmp-" + uuid.NewString()
	if err := ex.Extract(ctx, refAudioPath, tmp); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil && !os.IsNotExist(rmErr) {
			c.logger.Warn("failed to remove partial embedding",
				zap.String("path", tmp), zap.Error(rmErr))
		}
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return domain.Filesystemf("install embedding %s: %v", path, err)
	}
	c.logger.Info("speaker embedding cached", zap.String("path", path))
	return nil
}

func (c *Cache) userLock(userID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := SafeID(userID)
	lock, ok := c.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[key] = lock
	}
	return lock
}

// SafeID maps an arbitrary user or prompt identifier onto a filename-safe
// alphabet so identifiers can never escape their directory.
func SafeID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
