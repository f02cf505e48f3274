// Package memory provides an in-memory simplefeed.ImageStore for
// tests and development.
package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/tendant/simple-feed/pkg/simplefeed"
)

// Backend is an in-memory implementation of the simplefeed.ImageStore interface
type Backend struct {
	mu     sync.RWMutex
	images map[string][]byte
}

// New creates a new in-memory image store
func New() *Backend {
	return &Backend{
		images: make(map[string][]byte),
	}
}

// Save stores an image in memory
func (b *Backend) Save(ctx context.Context, key string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.images[key] = data
	return nil
}

// Open returns a reader for a stored image
func (b *Backend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.images[key]
	if !exists {
		return nil, simplefeed.ErrImageNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes a stored image
func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.images[key]; !exists {
		return simplefeed.ErrImageNotFound
	}
	delete(b.images, key)
	return nil
}

// Len reports the number of stored images.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.images)
}
