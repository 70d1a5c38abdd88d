package health_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/fanout/core/health"
)

type listenFlag bool

func (l listenFlag) Listening() bool { return bool(l) }

func serve(h http.Handler) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	return rec
}

func TestLiveness(t *testing.T) {
	t.Parallel()

	rec := serve(health.Liveness())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALIVE", rec.Body.String())
}

func TestNoContent(t *testing.T) {
	t.Parallel()

	rec := serve(health.NoContent())
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Parallel()

	t.Run("ready without checks", func(t *testing.T) {
		t.Parallel()
		rec := serve(health.Readiness(nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "READY", rec.Body.String())
	})

	t.Run("ready when all checks pass", func(t *testing.T) {
		t.Parallel()
		rec := serve(health.Readiness(nil,
			health.Listening(listenFlag(true)),
			func(context.Context) error { return nil },
		))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unavailable when not listening", func(t *testing.T) {
		t.Parallel()
		rec := serve(health.Readiness(nil, health.Listening(listenFlag(false))))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("stops at first failing check", func(t *testing.T) {
		t.Parallel()
		called := false
		rec := serve(health.Readiness(nil,
			func(context.Context) error { return errors.New("redis down") },
			func(context.Context) error { called = true; return nil },
		))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.False(t, called)
	})
}

func TestListening(t *testing.T) {
	t.Parallel()

	assert.NoError(t, health.Listening(listenFlag(true))(context.Background()))
	assert.ErrorIs(t, health.Listening(listenFlag(false))(context.Background()), health.ErrNotListening)
}
