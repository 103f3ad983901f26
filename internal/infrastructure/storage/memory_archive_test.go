package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryArchive(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and finds documents", func(t *testing.T) {
		archive := NewMemoryArchive()

		err := archive.Store(ctx, "invoices/CUF-1.pdf", []byte("%PDF-1.4"), "application/pdf")
		require.NoError(t, err)

		exists, err := archive.Exists(ctx, "invoices/CUF-1.pdf")
		require.NoError(t, err)
		assert.True(t, exists)

		data, ok := archive.Get("invoices/CUF-1.pdf")
		require.True(t, ok)
		assert.Equal(t, []byte("%PDF-1.4"), data)
	})

	t.Run("missing document does not exist", func(t *testing.T) {
		archive := NewMemoryArchive()

		exists, err := archive.Exists(ctx, "invoices/missing.pdf")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("empty key is rejected", func(t *testing.T) {
		archive := NewMemoryArchive()

		assert.Error(t, archive.Store(ctx, "", nil, "application/pdf"))
		_, err := archive.Exists(ctx, "")
		assert.Error(t, err)
		_, _, err = archive.DownloadURL(ctx, "", time.Minute)
		assert.Error(t, err)
		assert.Error(t, archive.Delete(ctx, ""))
	})

	t.Run("delete removes the document", func(t *testing.T) {
		archive := NewMemoryArchive()

		require.NoError(t, archive.Store(ctx, "invoices/CUF-2.pdf", []byte("data"), "application/pdf"))
		require.NoError(t, archive.Delete(ctx, "invoices/CUF-2.pdf"))

		exists, err := archive.Exists(ctx, "invoices/CUF-2.pdf")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("download URL embeds key and expiry", func(t *testing.T) {
		archive := NewMemoryArchive()

		url, expiresAt, err := archive.DownloadURL(ctx, "invoices/CUF-3.pdf", time.Hour)
		require.NoError(t, err)
		assert.Contains(t, url, "invoices/CUF-3.pdf")
		assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)
	})
}
