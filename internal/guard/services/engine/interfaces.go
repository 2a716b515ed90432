package engine

import "github.com/haukened/popguard/internal/guard/domain"

type Classifier interface {
	Classify(url string) domain.Verdict
}

type Tracker interface {
	Record(ev *domain.InputEvent) bool
	IsRecent() bool
}

type Gate interface {
	Enabled() bool
}

type Reporter interface {
	Report(category, detail string)
}

// Window is the handle a host returns for a newly opened browsing context.
// Denied opens return nil, the same value a browser gives when it refuses
// a popup.
type Window any

// OpenFunc opens a new browsing context.
type OpenFunc func(url, target, features string) Window

// StateFunc pushes or replaces a history entry.
type StateFunc func(state any, title, url string)

// TimerFunc schedules handler after delay milliseconds and returns a handle.
// handler is either source text (string) or a callable.
type TimerFunc func(handler any, delay int, args ...any) int
