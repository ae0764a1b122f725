// Package sinks implements concrete progress consumers: Prometheus collectors,
// structured logging and a terminal spinner. Each sink satisfies the
// progress.Sink interface.
package sinks
