// Package server implements the read-only admin HTTP API
//
// It exposes health, registered flows, per-conversation state inspection
// and reset, turn counters and Prometheus metrics. It never accepts user
// messages
package server
