// Package portal serves the provisioning portal: a small JSON API for
// requesting scans and joins, and a WebSocket endpoint that pushes results.
//
// # Endpoints
//
//	GET  /api/networks            latest scan results and current mode
//	POST /api/scan?duration=N     start a scan (202, or 409 when busy)
//	POST /api/connect             start a join from form or JSON ssid/password
//	POST /api/reset               return the radio to access point mode
//	GET  /api/status              mode, last join outcome, daemon states
//	GET  /ws                      event stream
//
// Scans and joins are asynchronous. The HTTP reply only acknowledges the
// request; the result arrives on /ws as a JSON text frame such as
//
//	{"event":"scanComplete","candidates":[{"ssid":"Cafe","signalPercent":80}]}
//
// While a scan or join runs the access point is down, so browsers lose the
// portal briefly and must reconnect to /ws to receive the result.
//
// # Hub
//
// Hub implements the orchestrator's Publisher. Publish never blocks: events
// go through a buffered broadcast channel and clients that fall behind are
// disconnected.
package portal
