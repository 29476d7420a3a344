package ffmpeg

import "sync/atomic"

// Cancel is a cooperative stop flag shared by everything involved in one
// long-running operation. It is only ever checked, never forced: once set,
// the next check (per output line, or between phases) terminates the child
// process and unwinds.
type Cancel struct {
	flag atomic.Bool
}

// NewCancel returns a fresh, unset cancellation flag.
func NewCancel() *Cancel {
	return &Cancel{}
}

// Stop requests cancellation. Safe to call from any goroutine, repeatedly.
func (c *Cancel) Stop() {
	c.flag.Store(true)
}

// Stopped reports whether cancellation has been requested. A nil *Cancel
// never cancels, so callers that don't care can pass nil.
func (c *Cancel) Stopped() bool {
	return c != nil && c.flag.Load()
}
