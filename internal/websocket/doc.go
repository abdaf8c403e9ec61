// Package websocket serves live dashboard sessions over gorilla/websocket.
//
// Each session keeps its own filter. A "filter" message recomputes the view
// for that session only and the result is pushed back as "dashboard:view".
// A rejected filter is answered with an "error" message and the previous
// filter stays in effect.
//
// The Hub tracks sessions for metrics and shutdown notices. Each Client runs
// a read pump that owns the session state and a write pump that owns the
// connection writes.
package websocket
