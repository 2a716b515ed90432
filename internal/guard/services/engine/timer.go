package engine

import (
	"github.com/haukened/popguard/internal/guard/common/utils"
	"github.com/haukened/popguard/internal/guard/domain"
)

// inertHandle is returned for suppressed timers. Clearing it is a no-op.
const inertHandle = 0

// WrapTimer guards setTimeout or setInterval. Only the string-code form is
// inspected; callables always pass through.
func (e *Engine) WrapTimer(schedule TimerFunc) TimerFunc {
	return func(handler any, delay int, args ...any) int {
		if code, ok := handler.(string); ok && e.DecideTimerCode(code) {
			return inertHandle
		}
		return schedule(handler, delay, args...)
	}
}

// DecideTimerCode reports whether scheduling code must be suppressed.
func (e *Engine) DecideTimerCode(code string) bool {
	if !e.scanStringTimers || !e.Active() {
		return false
	}
	if !utils.HasNavigationCall(code) {
		return false
	}
	e.deny(domain.CategoryTimerString, utils.Truncate(code, codeDetailLimit))
	return true
}
