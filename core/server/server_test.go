package server_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fanout/core/server"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
}

func startServer(t *testing.T, srv *server.Server) (context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, okHandler())() }()

	select {
	case <-srv.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("server exited before binding: %v", err)
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("server did not bind in time")
	}
	return cancel, done
}

func TestServer_Listening(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0", server.WithShutdownTimeout(time.Second))
	assert.False(t, srv.Listening())

	cancel, done := startServer(t, srv)
	assert.True(t, srv.Listening())

	resp, err := http.Get("http://" + srv.Addr())
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.False(t, srv.Listening())
}

func TestServer_StartTwice(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0")
	cancel, _ := startServer(t, srv)
	defer cancel()

	err := srv.Start(context.Background(), okHandler())
	assert.ErrorIs(t, err, server.ErrServerAlreadyRunning)
}

func TestServer_BindFailure(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := server.New(ln.Addr().String())
	err = srv.Run(context.Background(), okHandler())()
	assert.ErrorIs(t, err, server.ErrListen)
	assert.False(t, srv.Listening())
}

func TestServer_StopWhenNotRunning(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0")
	assert.NoError(t, srv.Stop())
	assert.Equal(t, "127.0.0.1:0", srv.Addr())
}

func TestOptions_IgnoreZeroValues(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0",
		server.WithLogger(nil),
		server.WithShutdownTimeout(0),
		server.WithHeaderTimeout(-1),
		server.WithTLS(nil),
	)

	cancel, done := startServer(t, srv)
	cancel()
	assert.NoError(t, <-done)
}
