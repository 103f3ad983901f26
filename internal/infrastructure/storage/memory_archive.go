package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/siatbridge/backend/internal/domain/billing"
)

// MemoryArchive keeps documents in process memory. Use this for development
// and tests when no S3-compatible backend is configured.
type MemoryArchive struct {
	// BaseURL is the base URL for generated download URLs
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryArchive creates a new MemoryArchive
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{
		BaseURL: "https://archive.example.com",
		objects: make(map[string][]byte),
	}
}

// Ensure MemoryArchive implements DocumentArchive
var _ billing.DocumentArchive = (*MemoryArchive)(nil)

// Store keeps a copy of the document in memory
func (a *MemoryArchive) Store(_ context.Context, key string, data []byte, _ string) error {
	if key == "" {
		return errors.New("archive key is required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	a.objects[key] = buf
	return nil
}

// Exists reports whether a document was stored under key
func (a *MemoryArchive) Exists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("archive key is required")
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	_, ok := a.objects[key]
	return ok, nil
}

// DownloadURL builds a synthetic URL for the stored document
func (a *MemoryArchive) DownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("archive key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := a.BaseURL + "/download/" + key + "?expires=" + expiresAt.Format(time.RFC3339)
	return url, expiresAt, nil
}

// Delete removes a stored document
func (a *MemoryArchive) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.New("archive key is required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.objects, key)
	return nil
}

// Get returns the stored bytes for key (for tests)
func (a *MemoryArchive) Get(key string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	data, ok := a.objects[key]
	return data, ok
}
