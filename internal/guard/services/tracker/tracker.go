// Package tracker records genuine user input so the engine can tell
// user-initiated navigation from script-initiated navigation.
package tracker

import (
	"sync/atomic"
	"time"

	"github.com/haukened/popguard/internal/guard/common/clock"
	"github.com/haukened/popguard/internal/guard/domain"
)

// DefaultWindow is how long an interaction keeps later actions plausibly user-initiated.
const DefaultWindow = 3 * time.Second

// Tracker holds the last genuine interaction time for one page.
// The zero state is "never interacted".
type Tracker struct {
	clock  clock.Clock
	window time.Duration
	last   atomic.Pointer[time.Time]
}

// New returns a Tracker using window as the recency bound. A non-positive
// window falls back to DefaultWindow.
func New(c clock.Clock, window time.Duration) *Tracker {
	if c == nil {
		c = clock.RealClock{}
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{clock: c, window: window}
}

// Record stamps the current time when ev is a trusted interaction event.
// Synthetic events and other event types leave the state unchanged.
func (t *Tracker) Record(ev *domain.InputEvent) bool {
	if ev == nil || !ev.Trusted || !ev.Type.IsInteraction() {
		return false
	}
	now := t.clock.Now()
	t.last.Store(&now)
	return true
}

// IsRecent reports whether the last genuine interaction happened less than
// the window ago. Exactly at the window edge it is false.
func (t *Tracker) IsRecent() bool {
	last := t.last.Load()
	if last == nil {
		return false
	}
	return t.clock.Now().Sub(*last) < t.window
}

// Last returns the last recorded interaction, if any.
func (t *Tracker) Last() (time.Time, bool) {
	last := t.last.Load()
	if last == nil {
		return time.Time{}, false
	}
	return *last, true
}

// Reset forgets any recorded interaction, as on navigation to a new document.
func (t *Tracker) Reset() { t.last.Store(nil) }

// Window returns the configured recency window.
func (t *Tracker) Window() time.Duration { return t.window }
