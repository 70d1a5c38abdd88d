package websocket_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fanout/core/broadcast"
	"github.com/dmitrymomot/fanout/core/notify"
	"github.com/dmitrymomot/fanout/core/websocket"
	"github.com/dmitrymomot/fanout/pkg/clientip"
	"github.com/dmitrymomot/fanout/pkg/ratelimiter"
)

func newHub(t *testing.T, opts ...broadcast.HubOption) *broadcast.Hub {
	t.Helper()

	cfg := broadcast.DefaultConfig()
	cfg.PollInterval = 2 * time.Millisecond
	cfg.BacklogSuffix = false

	hub, err := broadcast.NewHubFromConfig(cfg, nil, opts...)
	require.NoError(t, err)
	require.NoError(t, hub.Start(context.Background()))
	t.Cleanup(func() { _ = hub.Close() })
	return hub
}

func serve(t *testing.T, h http.Handler) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *gorilla.Conn {
	t.Helper()
	c, resp, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func readText(t *testing.T, c *gorilla.Conn) string {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	mt, data, err := c.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, gorilla.TextMessage, mt)
	return string(data)
}

func TestNewAcceptor(t *testing.T) {
	t.Parallel()

	t.Run("requires handler", func(t *testing.T) {
		t.Parallel()
		acc, err := websocket.NewAcceptor(nil)
		assert.ErrorIs(t, err, websocket.ErrNilHandler)
		assert.Nil(t, acc)
	})

	t.Run("rejects ping period not below pong wait", func(t *testing.T) {
		t.Parallel()
		_, err := websocket.NewAcceptor(newHub(t),
			websocket.WithPingPeriod(time.Second),
			websocket.WithPongWait(time.Second),
		)
		assert.ErrorIs(t, err, websocket.ErrInvalidPingPeriod)
	})

	t.Run("from config", func(t *testing.T) {
		t.Parallel()
		cfg := websocket.DefaultConfig()
		cfg.AllowedOrigins = []string{"*"}
		cfg.Subprotocols = []string{"fanout.v1"}
		acc, err := websocket.NewAcceptorFromConfig(cfg, newHub(t))
		require.NoError(t, err)
		assert.NotNil(t, acc)
	})
}

func TestAcceptor_Broadcast(t *testing.T) {
	t.Parallel()

	events := make(chan notify.Notification, 16)
	hub := newHub(t, broadcast.WithNotifier(notify.Channel(events)))

	ids := make(chan string, 2)
	ids <- "first"
	ids <- "second"
	acc, err := websocket.NewAcceptor(hub, websocket.WithIDGenerator(func() string { return <-ids }))
	require.NoError(t, err)
	url := serve(t, acc)

	next := func() notify.Notification {
		t.Helper()
		select {
		case n := <-events:
			return n
		case <-time.After(2 * time.Second):
			t.Fatal("missing notification")
			return notify.Notification{}
		}
	}

	c1 := dial(t, url)
	assert.Equal(t, "first has connected.", next().Text)
	c2 := dial(t, url)
	assert.Equal(t, "second has connected.", next().Text)
	assert.Equal(t, 2, hub.Peers())
	require.Eventually(t, func() bool { return acc.Connections() == 2 }, time.Second, time.Millisecond)

	hub.Publish("hello")
	hub.Publish("world")
	for _, c := range []*gorilla.Conn{c1, c2} {
		assert.Equal(t, "hello", readText(t, c))
		assert.Equal(t, "world", readText(t, c))
	}

	require.NoError(t, c1.WriteMessage(gorilla.TextMessage, []byte("from client")))
	require.NoError(t, c1.WriteMessage(gorilla.CloseMessage,
		gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, "bye")))

	msg := next()
	assert.Equal(t, notify.KindMessage, msg.Kind)
	assert.Equal(t, "from client", msg.Text)
	assert.Equal(t, "first", msg.ConnID)

	gone := next()
	assert.Equal(t, notify.KindDisconnect, gone.Kind)
	assert.Equal(t, "first has disconnected.", gone.Text)
	require.Eventually(t, func() bool { return hub.Peers() == 1 }, time.Second, time.Millisecond)

	hub.Publish("only second")
	assert.Equal(t, "only second", readText(t, c2))
}

func TestAcceptor_RejectsOverCapacity(t *testing.T) {
	t.Parallel()

	hub := newHub(t, broadcast.WithRegistryOptions(broadcast.WithMaxPeers(1)))
	acc, err := websocket.NewAcceptor(hub)
	require.NoError(t, err)
	url := serve(t, acc)

	_ = dial(t, url)
	require.Eventually(t, func() bool { return hub.Peers() == 1 }, time.Second, time.Millisecond)

	rejected := dial(t, url)
	require.NoError(t, rejected.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = rejected.ReadMessage()

	var closeErr *gorilla.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, gorilla.CloseTryAgainLater, closeErr.Code)
	assert.Equal(t, 1, hub.Peers())
}

type mockHandler struct {
	mock.Mock
}

func (m *mockHandler) OnOpen(ctx context.Context, id string, t broadcast.Transport) error {
	return m.Called(id).Error(0)
}

func (m *mockHandler) OnMessage(ctx context.Context, id, text string) {
	m.Called(id, text)
}

func (m *mockHandler) OnClose(ctx context.Context, id string) {
	m.Called(id)
}

func TestAcceptor_OpenFailure(t *testing.T) {
	t.Parallel()

	h := new(mockHandler)
	h.On("OnOpen", "c1").Return(errors.New("registry unavailable"))

	acc, err := websocket.NewAcceptor(h, websocket.WithIDGenerator(func() string { return "c1" }))
	require.NoError(t, err)
	c := dial(t, serve(t, acc))

	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = c.ReadMessage()

	var closeErr *gorilla.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, gorilla.CloseInternalServerErr, closeErr.Code)
	assert.Equal(t, "registry unavailable", closeErr.Text)

	h.AssertExpectations(t)
	h.AssertNotCalled(t, "OnClose", "c1")
}

func TestAcceptor_OriginCheck(t *testing.T) {
	t.Parallel()

	acc, err := websocket.NewAcceptor(newHub(t), websocket.WithAllowedOrigins("https://good.example"))
	require.NoError(t, err)
	url := serve(t, acc)

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := gorilla.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header = http.Header{"Origin": []string{"https://GOOD.example"}}
	c, resp, err := gorilla.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	_ = c.Close()
}

func TestAcceptor_KeepAlive(t *testing.T) {
	t.Parallel()

	hub := newHub(t)
	acc, err := websocket.NewAcceptor(hub,
		websocket.WithPingPeriod(10*time.Millisecond),
		websocket.WithPongWait(50*time.Millisecond),
	)
	require.NoError(t, err)
	url := serve(t, acc)

	t.Run("responsive client stays connected", func(t *testing.T) {
		c := dial(t, url)
		msgs := make(chan string, 1)
		go func() {
			// Reading lets the client answer pings with pongs.
			for {
				_, data, err := c.ReadMessage()
				if err != nil {
					return
				}
				msgs <- string(data)
			}
		}()

		require.Eventually(t, func() bool { return hub.Peers() == 1 }, time.Second, time.Millisecond)
		time.Sleep(200 * time.Millisecond)
		assert.Equal(t, 1, hub.Peers())

		hub.Publish("still here")
		select {
		case m := <-msgs:
			assert.Equal(t, "still here", m)
		case <-time.After(2 * time.Second):
			t.Fatal("message not delivered")
		}
		_ = c.Close()
		require.Eventually(t, func() bool { return hub.Peers() == 0 }, time.Second, time.Millisecond)
	})

	t.Run("silent client is dropped", func(t *testing.T) {
		// Never reading means pings are never answered.
		_ = dial(t, url)
		require.Eventually(t, func() bool { return hub.Peers() == 1 }, time.Second, time.Millisecond)
		require.Eventually(t, func() bool { return hub.Peers() == 0 }, 2*time.Second, 5*time.Millisecond)
	})
}

func TestAcceptor_Shutdown(t *testing.T) {
	t.Parallel()

	hub := newHub(t)
	acc, err := websocket.NewAcceptor(hub)
	require.NoError(t, err)
	url := serve(t, acc)

	c := dial(t, url)
	require.Eventually(t, func() bool { return acc.Connections() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- acc.Shutdown(ctx) }()

	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = c.ReadMessage()
	var closeErr *gorilla.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, gorilla.CloseGoingAway, closeErr.Code)

	require.NoError(t, <-errCh)
	assert.Equal(t, 0, acc.Connections())
	assert.Equal(t, 0, hub.Peers())

	_, resp, err := gorilla.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAcceptor_HandshakeLimiter(t *testing.T) {
	t.Parallel()

	limiter, err := ratelimiter.New(ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Minute})
	require.NoError(t, err)

	acc, err := websocket.NewAcceptor(newHub(t),
		websocket.WithHandshakeLimiter(limiter),
		websocket.WithClientKey(clientip.RemoteIP),
	)
	require.NoError(t, err)
	url := serve(t, acc)

	_ = dial(t, url)

	_, resp, err := gorilla.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
}
