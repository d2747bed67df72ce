package kvstore

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"keepsake/internal/keepsake"
)

const fileSuffix = ".json"

// FileSystemBackend stores one file per key in a directory:
//
//	<root>/
//	  photoAnalyses_v1.json
//	  userProfile_v1.json
//	  ...
//
// Keys are path-escaped to form file names. Writes go to a temp file that is
// renamed into place, so a crash never leaves a half-written value.
type FileSystemBackend struct {
	mu   sync.RWMutex
	root string
}

var _ keepsake.Backend = (*FileSystemBackend)(nil)

// NewFileSystemBackend creates a backend rooted at root, creating it if needed.
func NewFileSystemBackend(root string) (*FileSystemBackend, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileSystemBackend{root: root}, nil
}

func (b *FileSystemBackend) path(key string) string {
	return filepath.Join(b.root, url.PathEscape(key)+fileSuffix)
}

func (b *FileSystemBackend) Get(key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, keepsake.ErrKeyNotFound
		}
		return nil, fmt.Errorf("%w: reading %s: %v", keepsake.ErrStorageUnavailable, key, err)
	}
	return data, nil
}

func (b *FileSystemBackend) Set(key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := writeFileAtomic(b.path(key), value); err != nil {
		return fmt.Errorf("%w: writing %s: %v", keepsake.ErrStorageUnavailable, key, err)
	}
	return nil
}

func (b *FileSystemBackend) Remove(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.Remove(b.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

func (b *FileSystemBackend) Keys() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entries, err := os.ReadDir(b.root)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %v", keepsake.ErrStorageUnavailable, b.root, err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileSuffix) || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileSuffix))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, nil
}

// writeFileAtomic writes data to a temp file in the destination directory
// and renames it over destPath.
func writeFileAtomic(destPath string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
