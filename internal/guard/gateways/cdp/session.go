package cdp

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/haukened/popguard/internal/guard/common/log"
	"github.com/haukened/popguard/internal/guard/domain"
	"github.com/haukened/popguard/internal/guard/services/engine"
	"github.com/haukened/popguard/internal/guard/services/page"
	"github.com/haukened/popguard/internal/guard/services/watcher"
)

// Session guards one browser page. Each document loaded into the page gets
// a fresh page.Guard.
type Session struct {
	page    *rod.Page
	factory *page.Factory
	logger  log.Logger
	tab     string
	binding string

	guard atomic.Pointer[page.Guard]
}

func newSession(p *rod.Page, factory *page.Factory, logger log.Logger) *Session {
	tab := string(p.TargetID)
	s := &Session{
		page:    p,
		factory: factory,
		logger:  log.With(logger, map[string]any{"tab": tab}),
		tab:     tab,
		binding: bindingName(),
	}
	s.guard.Store(factory.New("", tab, s.remover()))
	return s
}

// Tab is the page's target id.
func (s *Session) Tab() string { return s.tab }

// Guard returns the current document's state.
func (s *Session) Guard() *page.Guard { return s.guard.Load() }

// install wires the input shim and DOM events before the first navigation.
func (s *Session) install() error {
	if err := (proto.RuntimeAddBinding{Name: s.binding}).Call(s.page); err != nil {
		return fmt.Errorf("add input binding: %w", err)
	}
	if _, err := s.page.EvalOnNewDocument(renderShim(s.binding)); err != nil {
		return fmt.Errorf("install input shim: %w", err)
	}
	if err := (proto.PageEnable{}).Call(s.page); err != nil {
		return fmt.Errorf("enable page domain: %w", err)
	}
	if err := (proto.DOMEnable{}).Call(s.page); err != nil {
		return fmt.Errorf("enable dom domain: %w", err)
	}
	return nil
}

// listen dispatches page events until ctx is done.
func (s *Session) listen(ctx context.Context) {
	wait := s.page.Context(ctx).EachEvent(
		func(e *proto.DOMDocumentUpdated) {
			s.resetDocument()
		},
		func(e *proto.DOMChildNodeInserted) {
			s.onInserted(e.Node)
		},
		func(e *proto.RuntimeBindingCalled) {
			if e.Name == s.binding {
				s.onInput(e.Payload)
			}
		},
		func(e *proto.PageDomContentEventFired) {
			s.sweep()
		},
	)
	wait()
	s.logger.Debug(nil, "session_stopped")
}

// Navigate loads url in the page and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

// resetDocument replaces the guard and attaches its watcher to the new
// document root.
func (s *Session) resetDocument() {
	pageURL := ""
	if info, err := s.page.Info(); err == nil {
		pageURL = info.URL
	}
	g := s.factory.New(pageURL, s.tab, s.remover())
	s.guard.Store(g)

	root := s.document()
	if !g.Watcher.Attach(root) {
		s.logger.Warn(map[string]any{"url": pageURL}, "Document root unavailable, watcher not attached")
		return
	}
	s.logger.Debug(map[string]any{"url": pageURL}, "document_attached")
}

func (s *Session) document() *domain.Element {
	depth := -1
	doc, err := proto.DOMGetDocument{Depth: &depth, Pierce: true}.Call(s.page)
	if err != nil || doc.Root == nil {
		s.logger.Debug(map[string]any{"error": err}, "get_document_failed")
		return nil
	}
	return s.convert(doc.Root)
}

func (s *Session) sweep() {
	root := s.document()
	if root == nil {
		return
	}
	if n := s.Guard().Watcher.SweepMetaRefresh(root); n > 0 {
		s.logger.Debug(map[string]any{"removed": n}, "meta_refresh_swept")
	}
}

func (s *Session) onInserted(node *proto.DOMNode) {
	g := s.Guard()
	if !g.Watcher.Attached() {
		return
	}
	if el := s.convert(node); el != nil {
		g.Watcher.HandleBatch([]*domain.Element{el})
	}
}

// onInput feeds a shim payload to the engine. A canceled click cannot be
// undone after the fact, so the navigation it started is stopped instead.
func (s *Session) onInput(payload string) {
	ev, err := parseInput(payload)
	if err != nil {
		s.logger.Debug(map[string]any{"error": err}, "bad_input_payload")
		return
	}
	if !s.Guard().Engine.HandleInput(ev) {
		return
	}
	if err := (proto.PageStopLoading{}).Call(s.page); err != nil {
		s.logger.Warn(map[string]any{"error": err}, "Failed to stop canceled navigation")
	}
}

// decidePopup runs a new target opened by this page through the engine's
// window-open interceptor. It reports whether the target may stay open.
func (s *Session) decidePopup(url string) bool {
	opened := false
	open := s.Guard().Engine.WrapOpen(func(string, string, string) engine.Window {
		opened = true
		return url
	})
	open(url, "", "")
	return opened
}

// convert builds an element tree and fills in iframe layout.
func (s *Session) convert(node *proto.DOMNode) *domain.Element {
	el := fromNode(node)
	el.Walk(func(n *domain.Element) bool {
		if n.Is("IFRAME") && n.Attr("src") != "" {
			n.Box = s.box(n.Ref)
		}
		return true
	})
	return el
}

func (s *Session) box(ref int64) *domain.Box {
	res, err := proto.DOMGetBoxModel{NodeID: proto.DOMNodeID(ref)}.Call(s.page)
	if err != nil || res.Model == nil {
		return nil
	}
	return &domain.Box{Width: float64(res.Model.Width), Height: float64(res.Model.Height)}
}

func (s *Session) remover() watcher.Remover {
	return watcher.RemoverFunc(func(el *domain.Element) error {
		return proto.DOMRemoveNode{NodeID: proto.DOMNodeID(el.Ref)}.Call(s.page)
	})
}
