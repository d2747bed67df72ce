package testutil

import (
	"fmt"
	"sync"

	"keepsake/internal/keepsake"
	"keepsake/internal/kvstore"
)

// FailingBackend wraps a MemoryBackend and can be switched to reject reads
// or writes, simulating a full or disabled persistent store.
type FailingBackend struct {
	*kvstore.MemoryBackend

	mu         sync.Mutex
	failWrites error
	failReads  error
	writes     int
}

var _ keepsake.Backend = (*FailingBackend)(nil)

// NewFailingBackend creates a working FailingBackend.
func NewFailingBackend() *FailingBackend {
	return &FailingBackend{MemoryBackend: kvstore.NewMemoryBackend(0)}
}

// FailWrites makes every Set return err; nil restores normal writes.
func (b *FailingBackend) FailWrites(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWrites = err
}

// FailReads makes every Get return err; nil restores normal reads.
func (b *FailingBackend) FailReads(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failReads = err
}

// Writes returns the number of Set calls, including rejected ones.
func (b *FailingBackend) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

func (b *FailingBackend) Get(key string) ([]byte, error) {
	b.mu.Lock()
	err := b.failReads
	b.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return b.MemoryBackend.Get(key)
}

func (b *FailingBackend) Set(key string, value []byte) error {
	b.mu.Lock()
	b.writes++
	err := b.failWrites
	b.mu.Unlock()
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return b.MemoryBackend.Set(key, value)
}
