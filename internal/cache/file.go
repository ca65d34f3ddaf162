package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/davidbz/quorum/internal/observability"
)

const (
	fileSweepInterval = time.Hour
	fileExtension     = ".cache.json"
)

// FileAdapter persists entries as one JSON file per key under a directory.
// Writes go through a temp file and an atomic rename so readers never see
// a partial entry. Filesystem errors are logged and degrade to cache-miss
// behavior.
type FileAdapter struct {
	dir    string
	maxAge time.Duration

	stopSweep chan struct{}
	closeOnce sync.Once
}

// NewFileAdapter creates a file-backed adapter rooted at dir and starts
// the background sweep.
func NewFileAdapter(dir string, maxAge time.Duration) (*FileAdapter, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	a := &FileAdapter{
		dir:       dir,
		maxAge:    maxAge,
		stopSweep: make(chan struct{}),
	}

	go a.sweepLoop()

	return a, nil
}

// Get reads the entry for key, deleting it on read when expired.
func (a *FileAdapter) Get(ctx context.Context, key string) ([]byte, bool) {
	path := a.pathFor(key)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			observability.FromContext(ctx).Warn("cache file read failed",
				observability.String("path", path),
				observability.Error(err))
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		observability.FromContext(ctx).Warn("corrupt cache file, deleting",
			observability.String("path", path),
			observability.Error(err))
		_ = os.Remove(path)
		return nil, false
	}

	if entry.Expired(time.Now()) {
		_ = os.Remove(path)
		return nil, false
	}

	return entry.Value, true
}

// Set writes the entry via temp-file-then-rename.
func (a *FileAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()

	entry := Entry{
		Value:   value,
		Expiry:  expiryFromTTL(now, ttl),
		Created: now.Unix(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		a.logFailure(ctx, "cache entry marshal failed", key, err)
		return nil
	}

	tmp, err := os.CreateTemp(a.dir, "entry-*.tmp")
	if err != nil {
		a.logFailure(ctx, "cache temp file create failed", key, err)
		return nil
	}

	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		a.logFailure(ctx, "cache temp file write failed", key, err)
		return nil
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		a.logFailure(ctx, "cache temp file close failed", key, err)
		return nil
	}

	if err := os.Rename(tmpName, a.pathFor(key)); err != nil {
		_ = os.Remove(tmpName)
		a.logFailure(ctx, "cache file rename failed", key, err)
	}

	return nil
}

// Delete removes the entry file for key. Idempotent.
func (a *FileAdapter) Delete(ctx context.Context, key string) error {
	if err := os.Remove(a.pathFor(key)); err != nil && !os.IsNotExist(err) {
		a.logFailure(ctx, "cache file delete failed", key, err)
	}
	return nil
}

// Clear removes every entry file in the cache directory.
func (a *FileAdapter) Clear(ctx context.Context) error {
	paths, err := filepath.Glob(filepath.Join(a.dir, "*"+fileExtension))
	if err != nil {
		observability.FromContext(ctx).Warn("cache clear glob failed",
			observability.Error(err))
		return nil
	}

	for _, path := range paths {
		_ = os.Remove(path)
	}
	return nil
}

// Close stops the background sweep.
func (a *FileAdapter) Close() error {
	a.closeOnce.Do(func() {
		close(a.stopSweep)
	})
	return nil
}

func (a *FileAdapter) pathFor(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(a.dir, hex.EncodeToString(hash[:])+fileExtension)
}

func (a *FileAdapter) logFailure(ctx context.Context, msg, key string, err error) {
	observability.FromContext(ctx).Warn(msg,
		observability.String("key", key),
		observability.Error(err))
}

func (a *FileAdapter) sweepLoop() {
	ticker := time.NewTicker(fileSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopSweep:
			return
		case now := <-ticker.C:
			a.sweep(now)
		}
	}
}

// sweep deletes entries whose expiry has passed and whose file age exceeds
// the configured max-age, plus any file that no longer parses.
func (a *FileAdapter) sweep(now time.Time) {
	paths, err := filepath.Glob(filepath.Join(a.dir, "*"+fileExtension))
	if err != nil {
		return
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			// Corrupt file.
			_ = os.Remove(path)
			continue
		}

		if !entry.Expired(now) {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if a.maxAge > 0 && now.Sub(info.ModTime()) <= a.maxAge {
			continue
		}

		_ = os.Remove(path)
	}
}
