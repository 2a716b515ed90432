package engine

import "github.com/haukened/popguard/internal/guard/domain"

// HandleInput is the capture-phase listener for every input event. It feeds
// the tracker first and then runs the link guard on clicks. It reports
// whether the event was canceled.
func (e *Engine) HandleInput(ev *domain.InputEvent) bool {
	if ev == nil {
		return false
	}
	if e.tracker != nil {
		e.tracker.Record(ev)
	}
	if ev.Type != domain.EventClick {
		return false
	}
	return e.HandleClick(ev)
}

// HandleClick cancels trusted clicks on links to blocked or suspicious
// destinations. Synthetic clicks are ignored.
func (e *Engine) HandleClick(ev *domain.InputEvent) bool {
	if ev == nil || !ev.Trusted || !e.Active() {
		return false
	}
	link := ev.Target.Closest("A")
	if link == nil {
		return false
	}
	href := link.Attr("href")
	if href == "" {
		return false
	}

	abs, v := e.classify(href)
	var category string
	switch v {
	case domain.VerdictBlocked:
		category = domain.CategoryLinkAdDomain
	case domain.VerdictSuspicious:
		category = domain.CategoryLinkSuspicious
	default:
		return false
	}
	ev.PreventDefault()
	ev.StopPropagation()
	e.deny(category, abs)
	return true
}
