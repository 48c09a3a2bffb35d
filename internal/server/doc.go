// Package server runs the daemon's HTTP endpoint (status API and
// Prometheus metrics) for the lifetime of a context.
package server
