package redis_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fanout/integration/pubsub/redis"
)

// recorder collects published payloads in arrival order.
type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) Publish(text string) {
	r.mu.Lock()
	r.msgs = append(r.msgs, text)
	r.mu.Unlock()
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	m := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return m, client
}

func runSource(t *testing.T, src *redis.Source, rec *recorder) (context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, rec) }()
	return cancel, done
}

func waitStopped(t *testing.T, done <-chan error) error {
	t.Helper()

	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("source did not stop after cancellation")
		return nil
	}
}

func TestSource_Run(t *testing.T) {
	t.Parallel()

	t.Run("forwards channel payloads in order", func(t *testing.T) {
		t.Parallel()

		m, client := newMiniredisClient(t)
		src, err := redis.NewSource(client, []string{"news", "alerts"})
		require.NoError(t, err)

		rec := &recorder{}
		cancel, done := runSource(t, src, rec)

		require.Eventually(t, func() bool {
			subs := m.PubSubNumSub("news", "alerts")
			return subs["news"] == 1 && subs["alerts"] == 1
		}, 2*time.Second, 5*time.Millisecond)

		m.Publish("news", "one")
		m.Publish("alerts", "two")
		m.Publish("sports", "ignored")
		m.Publish("news", "three")

		require.Eventually(t, func() bool { return len(rec.messages()) == 3 }, 2*time.Second, 5*time.Millisecond)
		assert.Equal(t, []string{"one", "two", "three"}, rec.messages())

		cancel()
		assert.NoError(t, waitStopped(t, done))

		// The subscription is released with the source.
		require.Eventually(t, func() bool {
			return m.PubSubNumSub("news")["news"] == 0
		}, 2*time.Second, 5*time.Millisecond)
	})

	t.Run("pattern subscription", func(t *testing.T) {
		t.Parallel()

		m, client := newMiniredisClient(t)
		src, err := redis.NewSource(client, []string{"news.*"}, redis.WithPattern(true))
		require.NoError(t, err)

		rec := &recorder{}
		cancel, done := runSource(t, src, rec)

		require.Eventually(t, func() bool { return m.PubSubNumPat() == 1 }, 2*time.Second, 5*time.Millisecond)

		m.Publish("news.eu", "eu")
		m.Publish("weather.eu", "ignored")
		m.Publish("news.us", "us")

		require.Eventually(t, func() bool { return len(rec.messages()) == 2 }, 2*time.Second, 5*time.Millisecond)
		assert.Equal(t, []string{"eu", "us"}, rec.messages())

		cancel()
		assert.NoError(t, waitStopped(t, done))
	})

	t.Run("cancelled before confirmation returns nil", func(t *testing.T) {
		t.Parallel()

		_, client := newMiniredisClient(t)
		src, err := redis.NewSource(client, []string{"news"})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NoError(t, src.Run(ctx, &recorder{}))
	})

	t.Run("unreachable server fails subscription", func(t *testing.T) {
		t.Parallel()

		client := goredis.NewClient(&goredis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 100 * time.Millisecond,
			MaxRetries:  -1,
		})
		defer client.Close()

		src, err := redis.NewSource(client, []string{"news"})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		err = src.Run(ctx, &recorder{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to subscribe")
	})
}
