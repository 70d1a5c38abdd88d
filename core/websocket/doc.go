// Package websocket adapts gorilla/websocket connections to the broadcast
// hub.
//
// Acceptor is an http.Handler that upgrades requests, assigns each
// connection a UUID and reports its lifecycle to a Handler (typically a
// *broadcast.Hub):
//
//	acc, err := websocket.NewAcceptor(hub,
//		websocket.WithAllowedOrigins("https://example.com"),
//		websocket.WithPingPeriod(30*time.Second),
//		websocket.WithLogger(log),
//	)
//	mux.Handle("/", acc)
//
// Each accepted connection is wrapped in a Conn, which implements
// broadcast.Transport. The connection's read pump forwards inbound text
// frames to Handler.OnMessage, answers pongs by extending the read deadline
// and reports Handler.OnClose once the peer goes away. A separate pinger
// keeps idle connections alive.
//
// Writes to a Conn are serialized and bounded by a write deadline, so the
// broadcast writer and the pinger never interleave frames.
package websocket
