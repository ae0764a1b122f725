// Package progress reports how far a harvest run has come. Workers and the
// pipeline emit Events into a non-blocking Hub that batches them on a
// background goroutine and fans them out to sinks (logs, Prometheus, the
// terminal spinner). Counter keeps the exact completed/total tally that the
// dispatcher relies on; events are best effort and may be dropped.
package progress
