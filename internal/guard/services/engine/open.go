package engine

import "github.com/haukened/popguard/internal/guard/domain"

// DecideOpen applies the new-window policy to url and reports a denial.
// It returns true when the open must not happen.
//
//	placeholder, no recent input -> deny
//	trusted                      -> allow
//	recent input                 -> deny only blocked
//	no recent input              -> deny blocked and suspicious
func (e *Engine) DecideOpen(url string) bool {
	if !e.Active() {
		return false
	}
	recent := e.recent()
	if isPlaceholder(url) {
		if recent {
			return false
		}
		detail := url
		if detail == "" {
			detail = domain.PlaceholderDetail
		}
		e.deny(domain.CategoryOpenNoUser, detail)
		return true
	}

	abs, v := e.classify(url)
	switch {
	case v == domain.VerdictTrusted:
		return false
	case recent && v == domain.VerdictBlocked:
		e.deny(domain.CategoryOpenAdDomain, abs)
		return true
	case recent:
		return false
	case v.Denies():
		e.deny(domain.CategoryOpenSuspicious, abs)
		return true
	}
	return false
}

// WrapOpen guards a window-opening function. Denied calls return nil
// without invoking open.
func (e *Engine) WrapOpen(open OpenFunc) OpenFunc {
	return func(url, target, features string) Window {
		if e.DecideOpen(url) {
			return nil
		}
		return open(url, target, features)
	}
}
