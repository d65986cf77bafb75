// Package monitor exposes the dashboard client over HTTP.
//
// Endpoints:
//   - /healthz  JSON snapshot of connection state
//   - /ws       WebSocket stream of state transitions and replies
package monitor
