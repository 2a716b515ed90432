package engine

import (
	"github.com/haukened/popguard/internal/guard/common/utils"
	"github.com/haukened/popguard/internal/guard/domain"
)

// InspectUnload looks at the source of the page's installed unload handler.
// It returns true when the handler opens windows and must be cleared before
// unload proceeds.
func (e *Engine) InspectUnload(handlerSource string) bool {
	if handlerSource == "" || !e.Active() {
		return false
	}
	if !utils.HasOpenCall(handlerSource) {
		return false
	}
	e.deny(domain.CategoryUnloadHandler, utils.Truncate(handlerSource, codeDetailLimit))
	return true
}
