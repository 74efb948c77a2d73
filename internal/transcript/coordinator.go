// Package transcript maintains the authoritative transcript for a recording
// session, merging interim and final fragments from the speech service.
package transcript

import (
	"strings"
	"sync"
)

// Coordinator merges transcript fragments into one authoritative transcript.
// Committed text only grows; at most one provisional interim suffix exists at
// a time. Clear is the only operation that shrinks the committed text.
type Coordinator struct {
	mu        sync.RWMutex
	committed string
	pending   string
}

// NewCoordinator creates an empty coordinator
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Apply merges one fragment. A final fragment is appended to the committed
// transcript with a single space and clears the pending interim; an interim
// fragment replaces the pending value wholesale, never concatenates.
func (c *Coordinator) Apply(text string, final bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !final {
		c.pending = text
		return
	}

	if c.committed == "" {
		c.committed = text
	} else {
		c.committed = c.committed + " " + text
	}
	c.pending = ""
}

// Transcript returns the committed text. Pending interim text is excluded:
// it is provisional and may be revised by a later fragment for the same turn.
func (c *Coordinator) Transcript() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.committed
}

// Pending returns the current provisional interim suffix, for display only
func (c *Coordinator) Pending() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pending
}

// Display returns committed and pending joined for live rendering
func (c *Coordinator) Display() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.pending == "" {
		return c.committed
	}
	if c.committed == "" {
		return c.pending
	}
	return strings.Join([]string{c.committed, c.pending}, " ")
}

// Clear resets both committed and pending text
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.committed = ""
	c.pending = ""
}
