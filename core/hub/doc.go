// Package hub pushes "view changed" signals to browsers over websockets.
//
// The engine's OnViewChanged callback calls Notify, Run turns pending signals
// into one {"type":"view_changed"} frame per client, and browsers re-query the
// /live endpoints. Frames carry no race data. Clients whose send buffer is
// full are dropped rather than slowing the broadcast.
//
// The hub listens on its own port because Fiber's fasthttp connections
// cannot be upgraded by gorilla/websocket.
package hub
