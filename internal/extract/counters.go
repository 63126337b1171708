// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import "sync"

// Counters are the run-level audit tallies of dropped and rejected
// records, keyed by reason code. Safe for concurrent use: candidates run
// in parallel.
type Counters struct {
	mu sync.Mutex
	m  map[string]int
}

// NewCounters returns an empty counter set.
func NewCounters() *Counters {
	return &Counters{m: make(map[string]int)}
}

// Inc adds one to the tally for reason.
func (c *Counters) Inc(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[reason]++
}

// Snapshot returns a copy of the tallies.
func (c *Counters) Snapshot() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.m))
	for k, v := range c.m {
		out[k] = v
	}
	return out
}
