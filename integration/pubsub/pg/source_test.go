package pg_test

import (
	"context"
	"os"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fanout/integration/pubsub/pg"
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

// connectTestPool connects to the database named by PG_CONN_URL or skips.
func connectTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("PG_CONN_URL")
	if url == "" {
		t.Skip("PG_CONN_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.Connect(ctx, pg.Config{
		ConnectionString: url,
		MaxOpenConns:     4,
		RetryAttempts:    1,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestSource_Run_Integration(t *testing.T) {
	pool := connectTestPool(t)
	channel := "fanout_test_" + strconv.FormatInt(time.Now().UnixNano(), 10)

	src, err := pg.NewSource(pool, []string{channel})
	require.NoError(t, err)

	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, rec) }()

	// NOTIFY is not queued for listeners that have not subscribed yet.
	require.Eventually(t, func() bool {
		_ = pg.Notify(context.Background(), pool, channel, "warmup")
		return len(rec.messages()) > 0
	}, 5*time.Second, 20*time.Millisecond)

	// The listening connection is taken out of the pool.
	assert.Zero(t, pool.Stat().AcquiredConns())

	for _, payload := range []string{"a", "b", "c"} {
		require.NoError(t, pg.Notify(context.Background(), pool, channel, payload))
	}

	payloads := func() []string {
		return slices.DeleteFunc(rec.messages(), func(s string) bool { return s == "warmup" })
	}
	require.Eventually(t, func() bool { return len(payloads()) == 3 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, payloads())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("source did not stop after cancellation")
	}
}
