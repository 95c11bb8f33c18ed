package collections

import (
	"fmt"
	"sync"
)

// requestRef locates a request inside an indexed collection.
type requestRef struct {
	Path     string
	Position int
}

// lockedIndex is a map guarded by its own RWMutex. A panic inside write
// poisons the index: the panic propagates, and later reads and writes
// fail with ErrIndexPoisoned.
type lockedIndex[K comparable, V any] struct {
	name     string
	mu       sync.RWMutex
	poisoned bool
	items    map[K]V
}

func newLockedIndex[K comparable, V any](name string) *lockedIndex[K, V] {
	return &lockedIndex[K, V]{
		name:  name,
		items: make(map[K]V),
	}
}

func (ix *lockedIndex[K, V]) read(fn func(items map[K]V)) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.poisoned {
		return fmt.Errorf("%s: %w", ix.name, ErrIndexPoisoned)
	}
	fn(ix.items)
	return nil
}

func (ix *lockedIndex[K, V]) write(fn func(items map[K]V)) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.poisoned {
		return fmt.Errorf("%s: %w", ix.name, ErrIndexPoisoned)
	}

	defer func() {
		if r := recover(); r != nil {
			ix.poisoned = true
			panic(r)
		}
	}()

	fn(ix.items)
	return nil
}

func (ix *lockedIndex[K, V]) len() (int, error) {
	var n int
	err := ix.read(func(items map[K]V) {
		n = len(items)
	})
	return n, err
}
