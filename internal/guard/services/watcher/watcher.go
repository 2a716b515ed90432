// Package watcher inspects inserted DOM subtrees and removes ad scripts, ad
// iframes, hidden tracking iframes and redirecting meta refresh tags.
package watcher

import (
	"strings"
	"sync/atomic"

	"github.com/haukened/popguard/internal/guard/common/log"
	"github.com/haukened/popguard/internal/guard/common/utils"
	"github.com/haukened/popguard/internal/guard/domain"
)

type Classifier interface {
	Classify(url string) domain.Verdict
}

type Gate interface {
	Enabled() bool
}

type Reporter interface {
	Report(category, detail string)
}

// Resolver makes element URLs absolute against the document URL.
type Resolver interface {
	Resolve(ref string) string
}

// Remover detaches a node from the live document.
type Remover interface {
	Remove(el *domain.Element) error
}

// RemoverFunc adapts a function to Remover.
type RemoverFunc func(el *domain.Element) error

func (f RemoverFunc) Remove(el *domain.Element) error { return f(el) }

type Options struct {
	Classifier Classifier
	Gate       Gate
	Reporter   Reporter
	Resolver   Resolver
	Remover    Remover
	Logger     log.Logger
	// ScanInlineScripts removes inline scripts whose text navigates.
	ScanInlineScripts bool
}

// Watcher processes insertion batches for one document.
type Watcher struct {
	opts     Options
	logger   log.Logger
	tried    atomic.Bool
	attached atomic.Bool
	removed  atomic.Int64
}

func New(opts Options) *Watcher {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Watcher{opts: opts, logger: logger}
}

// Attach subscribes the watcher to root. Only the first call counts: when the
// document root is missing then, the watcher stays detached for good.
func (w *Watcher) Attach(root *domain.Element) bool {
	if !w.tried.CompareAndSwap(false, true) {
		return w.attached.Load()
	}
	if root == nil {
		w.logger.Debug(nil, "watcher_root_missing")
		return false
	}
	w.attached.Store(true)
	return true
}

// Attached reports whether Attach found a document root.
func (w *Watcher) Attached() bool { return w.attached.Load() }

// Removed returns the number of nodes removed so far.
func (w *Watcher) Removed() int { return int(w.removed.Load()) }

// HandleBatch inspects one batch of inserted nodes and all their descendants.
// It returns the number of nodes removed.
func (w *Watcher) HandleBatch(added []*domain.Element) int {
	if !w.attached.Load() || !w.active() {
		return 0
	}
	n := 0
	for _, node := range added {
		node.Walk(func(el *domain.Element) bool {
			category, detail, deny := w.inspect(el)
			if !deny {
				return true
			}
			if w.remove(el, category, detail) {
				n++
			}
			return false
		})
	}
	return n
}

// SweepMetaRefresh checks every meta refresh tag under root, as done once
// the document has loaded.
func (w *Watcher) SweepMetaRefresh(root *domain.Element) int {
	if root == nil || !w.active() {
		return 0
	}
	n := 0
	root.Walk(func(el *domain.Element) bool {
		if !el.Is("META") {
			return true
		}
		if category, detail, deny := w.inspectMeta(el); deny && w.remove(el, category, detail) {
			n++
		}
		return false
	})
	return n
}

func (w *Watcher) active() bool { return w.opts.Gate == nil || w.opts.Gate.Enabled() }

func (w *Watcher) inspect(el *domain.Element) (category, detail string, deny bool) {
	switch el.Tag {
	case "SCRIPT":
		return w.inspectScript(el)
	case "IFRAME":
		return w.inspectIframe(el)
	case "META":
		return w.inspectMeta(el)
	}
	return "", "", false
}

func (w *Watcher) inspectScript(el *domain.Element) (string, string, bool) {
	if src := el.Attr("src"); src != "" {
		abs, v := w.classify(src)
		return domain.CategoryScriptAd, abs, v.Denies()
	}
	if w.opts.ScanInlineScripts && utils.HasNavigationCall(el.Text) {
		return domain.CategoryScriptInline, domain.InlineScriptDetail, true
	}
	return "", "", false
}

func (w *Watcher) inspectIframe(el *domain.Element) (string, string, bool) {
	src := el.Attr("src")
	if src == "" {
		return "", "", false
	}
	abs, v := w.classify(src)
	if v.Denies() {
		return domain.CategoryIframeAd, abs, true
	}
	if hidden(el) {
		return domain.CategoryIframeHidden, abs, true
	}
	return "", "", false
}

func (w *Watcher) inspectMeta(el *domain.Element) (string, string, bool) {
	if !strings.EqualFold(el.Attr("http-equiv"), "refresh") {
		return "", "", false
	}
	target := utils.RefreshURL(el.Attr("content"))
	if target == "" {
		return "", "", false
	}
	abs, v := w.classify(target)
	return domain.CategoryMetaRefresh, abs, v.Denies()
}

func (w *Watcher) classify(ref string) (string, domain.Verdict) {
	abs := ref
	if w.opts.Resolver != nil {
		abs = w.opts.Resolver.Resolve(ref)
	}
	return abs, w.opts.Classifier.Classify(abs)
}

// remove detaches el and reports it. A node the document refused to drop is
// not reported.
func (w *Watcher) remove(el *domain.Element, category, detail string) bool {
	if w.opts.Remover != nil {
		if err := w.opts.Remover.Remove(el); err != nil {
			w.logger.Debug(map[string]any{"error": err, "tag": el.Tag, "detail": detail}, "node_remove_failed")
			return false
		}
	}
	el.Detach()
	w.removed.Add(1)
	w.logger.Debug(map[string]any{"tag": el.Tag, "category": category, "detail": detail}, "node_removed")
	if w.opts.Reporter != nil {
		w.opts.Reporter.Report(category, detail)
	}
	return true
}

// hidden reports whether an iframe is zero-sized or explicitly hidden.
func hidden(el *domain.Element) bool {
	if el.Attr("width") == "0" || el.Attr("height") == "0" {
		return true
	}
	st := el.Style
	if zeroLength(st.Width) || zeroLength(st.Height) {
		return true
	}
	if st.Display == "none" || st.Visibility == "hidden" {
		return true
	}
	return el.Box != nil && el.Box.Width == 0 && el.Box.Height == 0
}

func zeroLength(v string) bool { return v == "0" || v == "0px" }
