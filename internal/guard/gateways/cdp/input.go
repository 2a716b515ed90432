package cdp

import (
	"crypto/rand"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/haukened/popguard/internal/guard/domain"
)

//go:embed shim.js
var shimJS string

const bindingPlaceholder = "__POPGUARD_BINDING__"

// bindingName returns a per-session binding name. The shim deletes the
// binding from the page global, so page scripts cannot forge input.
func bindingName() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return "__pg_" + hex.EncodeToString(b[:])
}

// renderShim returns the input shim bound to name.
func renderShim(name string) string {
	return strings.ReplaceAll(shimJS, bindingPlaceholder, name)
}

type inputPayload struct {
	Type    string         `json:"type"`
	Trusted bool           `json:"trusted"`
	Path    []inputElement `json:"path"`
}

// inputElement is one element on the path from the event target outwards.
type inputElement struct {
	Tag  string `json:"tag"`
	Href string `json:"href,omitempty"`
}

// parseInput rebuilds an InputEvent from a shim payload. The target's
// ancestors are linked so the link guard can walk up to an anchor.
func parseInput(payload string) (*domain.InputEvent, error) {
	var p inputPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, fmt.Errorf("decode input payload: %w", err)
	}
	ev := &domain.InputEvent{Type: domain.EventType(p.Type), Trusted: p.Trusted}

	var child *domain.Element
	for i, pe := range p.Path {
		var el *domain.Element
		if pe.Href != "" {
			el = domain.NewElement(pe.Tag, "href", pe.Href)
		} else {
			el = domain.NewElement(pe.Tag)
		}
		if i == 0 {
			ev.Target = el
		} else {
			el.Append(child)
		}
		child = el
	}
	return ev, nil
}
