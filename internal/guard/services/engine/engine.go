// Package engine decides, per attempted navigation, whether to let the page
// proceed. Each guarded entry point is exposed as a decorator that takes the
// wrapped function and returns a replacement with the same signature;
// adapters install the replacements at the page boundary.
//
// Every denial prevents the action, emits exactly one record through the
// Reporter, and returns the value a browser returns for a refused action.
// Nothing here panics or returns an error to page code.
package engine

import (
	"strings"
	"sync/atomic"

	"github.com/haukened/popguard/internal/guard/common/log"
	"github.com/haukened/popguard/internal/guard/common/utils"
	"github.com/haukened/popguard/internal/guard/domain"
)

// codeDetailLimit bounds how much of a code string goes into a report.
const codeDetailLimit = 100

// Engine is the per-page interception state. Construct one per document.
type Engine struct {
	classifier Classifier
	tracker    Tracker
	gate       Gate
	reporter   Reporter
	logger     log.Logger

	pageURL          atomic.Pointer[string]
	scanStringTimers bool
}

type Options struct {
	// PageURL is the document URL; relative targets resolve against it.
	PageURL    string
	Classifier Classifier
	Tracker    Tracker
	Gate       Gate
	Reporter   Reporter
	Logger     log.Logger
	// ScanStringTimers enables the string-code timer guard.
	ScanStringTimers bool
}

func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	e := &Engine{
		classifier:       opts.Classifier,
		tracker:          opts.Tracker,
		gate:             opts.Gate,
		reporter:         opts.Reporter,
		logger:           logger,
		scanStringTimers: opts.ScanStringTimers,
	}
	e.SetPageURL(opts.PageURL)
	return e
}

// PageURL returns the current document URL.
func (e *Engine) PageURL() string { return *e.pageURL.Load() }

// SetPageURL records a new document URL, as after an allowed history change.
func (e *Engine) SetPageURL(u string) { e.pageURL.Store(&u) }

// Active reports whether protection is on.
func (e *Engine) Active() bool { return e.gate == nil || e.gate.Enabled() }

// Resolve makes ref absolute against the page URL.
func (e *Engine) Resolve(ref string) string { return utils.ResolveURL(e.PageURL(), ref) }

func (e *Engine) classify(ref string) (string, domain.Verdict) {
	abs := e.Resolve(ref)
	return abs, e.classifier.Classify(abs)
}

func (e *Engine) deny(category, detail string) {
	e.logger.Debug(map[string]any{"category": category, "detail": detail, "page": e.PageURL()}, "action_denied")
	if e.reporter != nil {
		e.reporter.Report(category, detail)
	}
}

func isPlaceholder(u string) bool {
	u = strings.ToLower(utils.NormalizeURL(u))
	return u == "" || strings.HasPrefix(u, domain.PlaceholderDetail)
}

func (e *Engine) recent() bool { return e.tracker != nil && e.tracker.IsRecent() }
