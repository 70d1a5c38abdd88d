package rabbitmq_test

import (
	"context"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fanout/integration/pubsub/rabbitmq"
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

// dialTestBroker connects to the broker named by RABBITMQ_URL or skips.
func dialTestBroker(t *testing.T) *amqp.Connection {
	t.Helper()

	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		t.Skip("RABBITMQ_URL is not set")
	}

	conn, err := rabbitmq.Dial(context.Background(), rabbitmq.Config{URL: url, RetryAttempts: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func testQueue(t *testing.T, conn *amqp.Connection) (*amqp.Channel, string) {
	t.Helper()

	ch, err := conn.Channel()
	require.NoError(t, err)

	name := "fanout-test-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	_, err = ch.QueueDeclare(name, false, false, false, false, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = ch.QueueDelete(name, false, false, false)
		_ = ch.Close()
	})
	return ch, name
}

func publish(t *testing.T, ch *amqp.Channel, queue, body string) {
	t.Helper()

	err := ch.PublishWithContext(context.Background(), "", queue, false, false, amqp.Publishing{
		ContentType: "text/plain",
		Body:        []byte(body),
	})
	require.NoError(t, err)
}

func TestSource_Run_Integration(t *testing.T) {
	t.Run("forwards queued bodies in order", func(t *testing.T) {
		conn := dialTestBroker(t)
		ch, queue := testQueue(t, conn)

		for _, body := range []string{"a", "b", "c"} {
			publish(t, ch, queue, body)
		}

		src, err := rabbitmq.NewSource(conn, queue, rabbitmq.WithDurable(false))
		require.NoError(t, err)

		rec := &recorder{}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- src.Run(ctx, rec) }()

		require.Eventually(t, func() bool { return len(rec.messages()) == 3 }, 5*time.Second, 10*time.Millisecond)
		publish(t, ch, queue, "d")
		require.Eventually(t, func() bool { return len(rec.messages()) == 4 }, 5*time.Second, 10*time.Millisecond)
		assert.Equal(t, []string{"a", "b", "c", "d"}, rec.messages())

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("source did not stop after cancellation")
		}
	})

	t.Run("closed connection ends the source", func(t *testing.T) {
		admin := dialTestBroker(t)
		ch, queue := testQueue(t, admin)

		conn := dialTestBroker(t)
		src, err := rabbitmq.NewSource(conn, queue, rabbitmq.WithDurable(false))
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() { done <- src.Run(context.Background(), &recorder{}) }()

		require.Eventually(t, func() bool {
			q, err := ch.QueueDeclarePassive(queue, false, false, false, false, nil)
			return err == nil && q.Consumers == 1
		}, 5*time.Second, 20*time.Millisecond)

		require.NoError(t, conn.Close())

		select {
		case err := <-done:
			assert.ErrorIs(t, err, rabbitmq.ErrDeliveriesClosed)
		case <-time.After(5 * time.Second):
			t.Fatal("source did not stop after the connection closed")
		}
	})
}
