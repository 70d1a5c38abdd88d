package shutdown_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fanout/core/shutdown"
)

func TestController_Lifecycle(t *testing.T) {
	t.Parallel()

	t.Run("close stops the loop and runs release hooks once", func(t *testing.T) {
		t.Parallel()

		ctrl := shutdown.New(context.Background())
		var released atomic.Int32
		ctrl.OnRelease(func() { released.Add(1) })

		require.NoError(t, ctrl.Go(func(ctx context.Context) {
			<-ctx.Done()
		}))
		assert.True(t, ctrl.Running())

		require.NoError(t, ctrl.Close())
		assert.False(t, ctrl.Running())
		assert.True(t, ctrl.Signaled())
		assert.Equal(t, int32(1), released.Load())

		// Second teardown is a no-op.
		require.NoError(t, ctrl.Close())
		ctrl.Signal()
		assert.Equal(t, int32(1), released.Load())
	})

	t.Run("loop exiting on its own releases resources", func(t *testing.T) {
		t.Parallel()

		ctrl := shutdown.New(context.Background())
		var released atomic.Bool
		ctrl.OnRelease(func() { released.Store(true) })

		require.NoError(t, ctrl.Go(func(ctx context.Context) {}))

		select {
		case <-ctrl.Done():
		case <-time.After(time.Second):
			t.Fatal("loop did not exit")
		}
		assert.True(t, released.Load())
		assert.True(t, ctrl.Signaled(), "exit must cancel the context")
	})

	t.Run("parent cancellation stops the loop", func(t *testing.T) {
		t.Parallel()

		parent, cancel := context.WithCancel(context.Background())
		ctrl := shutdown.New(parent)
		require.NoError(t, ctrl.Go(func(ctx context.Context) {
			<-ctx.Done()
		}))

		cancel()
		require.Eventually(t, func() bool { return !ctrl.Running() }, time.Second, time.Millisecond)
	})

	t.Run("close without start releases immediately", func(t *testing.T) {
		t.Parallel()

		ctrl := shutdown.New(context.Background())
		var released atomic.Bool
		ctrl.OnRelease(func() { released.Store(true) })

		require.NoError(t, ctrl.Close())
		assert.True(t, released.Load())
		assert.ErrorIs(t, ctrl.Go(func(context.Context) {}), shutdown.ErrClosed)
	})

	t.Run("hook registered after release runs immediately", func(t *testing.T) {
		t.Parallel()

		ctrl := shutdown.New(context.Background())
		require.NoError(t, ctrl.Close())

		var ran bool
		ctrl.OnRelease(func() { ran = true })
		assert.True(t, ran)
	})
}

func TestController_Go(t *testing.T) {
	t.Parallel()

	ctrl := shutdown.New(context.Background())
	require.NoError(t, ctrl.Go(func(ctx context.Context) { <-ctx.Done() }))
	assert.ErrorIs(t, ctrl.Go(func(ctx context.Context) {}), shutdown.ErrAlreadyStarted)
	require.NoError(t, ctrl.Close())
}

func TestController_CloseTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	ctrl := shutdown.New(context.Background(), shutdown.WithTimeout(20*time.Millisecond))
	require.NoError(t, ctrl.Go(func(ctx context.Context) {
		<-release // ignores cancellation
	}))

	err := ctrl.Close()
	require.ErrorIs(t, err, shutdown.ErrTimeout)
	assert.True(t, ctrl.Running())

	close(release)
	require.Eventually(t, func() bool { return !ctrl.Running() }, time.Second, time.Millisecond)
	assert.NoError(t, ctrl.Close())
}
