package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_Acquire(t *testing.T) {
	ctx := context.Background()

	t.Run("acquires a free lock", func(t *testing.T) {
		locker := NewMemoryLocker()

		ok, err := locker.Acquire(ctx, "pos-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejects a held lock", func(t *testing.T) {
		locker := NewMemoryLocker()

		ok, err := locker.Acquire(ctx, "pos-1", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = locker.Acquire(ctx, "pos-1", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("different keys do not contend", func(t *testing.T) {
		locker := NewMemoryLocker()

		ok, err := locker.Acquire(ctx, "pos-1", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = locker.Acquire(ctx, "pos-2", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expired lock can be reacquired", func(t *testing.T) {
		locker := NewMemoryLocker()

		ok, err := locker.Acquire(ctx, "pos-1", time.Millisecond)
		require.NoError(t, err)
		require.True(t, ok)

		time.Sleep(5 * time.Millisecond)

		ok, err = locker.Acquire(ctx, "pos-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestMemoryLocker_Release(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()

	ok, err := locker.Acquire(ctx, "pos-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, locker.Release(ctx, "pos-1"))

	ok, err = locker.Acquire(ctx, "pos-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// Releasing an unheld lock is harmless
	assert.NoError(t, locker.Release(ctx, "never-held"))
}
