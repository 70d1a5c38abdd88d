package fanout

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrymomot/fanout/core/health"
)

// Handler returns the HTTP routes: the WebSocket endpoint, health probes
// and a stats snapshot.
func (app *App) Handler() http.Handler {
	checks := append([]health.Check{health.Listening(app.server)}, app.checks...)

	mux := http.NewServeMux()
	mux.Handle("GET /health/live", health.Liveness())
	mux.Handle("GET /health/ready", health.Readiness(app.logger, checks...))
	mux.HandleFunc("GET /stats", app.stats)
	mux.Handle(app.path(), app.acceptor)
	return mux
}

type statsResponse struct {
	Peers       int   `json:"peers"`
	Running     bool  `json:"running"`
	Enqueued    int64 `json:"enqueued"`
	Dispatched  int64 `json:"dispatched"`
	Dropped     int64 `json:"dropped"`
	Deliveries  int64 `json:"deliveries"`
	Backlog     int   `json:"backlog"`
	Connections int   `json:"connections"`
}

func (app *App) stats(w http.ResponseWriter, r *http.Request) {
	s := app.hub.Stats()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(statsResponse{
		Peers:       s.Peers,
		Running:     s.Dispatcher.IsRunning,
		Enqueued:    s.Dispatcher.Enqueued,
		Dispatched:  s.Dispatcher.Dispatched,
		Dropped:     s.Dispatcher.Dropped,
		Deliveries:  s.Dispatcher.Deliveries,
		Backlog:     s.Dispatcher.Backlog,
		Connections: app.acceptor.Connections(),
	})
}
