package engine

import "github.com/haukened/popguard/internal/guard/domain"

// WrapPushState guards history.pushState.
func (e *Engine) WrapPushState(push StateFunc) StateFunc {
	return e.wrapState(domain.CategoryPushState, push)
}

// WrapReplaceState guards history.replaceState.
func (e *Engine) WrapReplaceState(replace StateFunc) StateFunc {
	return e.wrapState(domain.CategoryReplaceState, replace)
}

// A denied state change is a silent no-op: neither the URL nor the history
// stack changes.
func (e *Engine) wrapState(category string, next StateFunc) StateFunc {
	return func(state any, title, url string) {
		if url == "" || !e.Active() {
			next(state, title, url)
			return
		}
		abs, v := e.classify(url)
		if v.Denies() {
			e.deny(category, abs)
			return
		}
		next(state, title, url)
		e.SetPageURL(abs)
	}
}
