package billing

import (
	"context"
	"time"
)

// DocumentArchive stores rendered fiscal documents so they survive daily code
// rotation on the tax service side. Keys are derived from the invoice unique
// code.
type DocumentArchive interface {
	Store(ctx context.Context, key string, data []byte, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
	Delete(ctx context.Context, key string) error
}
