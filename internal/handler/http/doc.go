// Package http implements the daemon's local status API.
//
// It exposes the device tracking state, our outgoing key requests and the
// gossiping audit trail as JSON, lets an operator flag devices and toggle
// key gossiping, and serves the Prometheus metrics. Request tracing and
// access logging are handled here before requests reach the service layer.
package http
