package progress

import "sync/atomic"

// Snapshot is a point-in-time view of a run's listing tally.
type Snapshot struct {
	Total       int64 `json:"total"`
	Completed   int64 `json:"completed"`
	Unavailable int64 `json:"unavailable"`
}

// Remaining returns the number of listings not yet resolved.
func (s Snapshot) Remaining() int64 {
	return s.Total - s.Completed
}

// Counter tracks completed listings. It is safe for concurrent use.
type Counter struct {
	total       atomic.Int64
	completed   atomic.Int64
	unavailable atomic.Int64
}

// Reset starts a new tally of total listings.
func (c *Counter) Reset(total int) {
	c.total.Store(int64(total))
	c.completed.Store(0)
	c.unavailable.Store(0)
}

// Done records one resolved listing.
func (c *Counter) Done(unavailable bool) {
	if unavailable {
		c.unavailable.Add(1)
	}
	c.completed.Add(1)
}

// Snapshot returns the current tally.
func (c *Counter) Snapshot() Snapshot {
	return Snapshot{
		Total:       c.total.Load(),
		Completed:   c.completed.Load(),
		Unavailable: c.unavailable.Load(),
	}
}
