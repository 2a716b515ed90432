// Package cdp drives Chrome over the DevTools protocol and runs every page
// it opens through the interception engine.
package cdp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/haukened/popguard/internal/guard/common/log"
	"github.com/haukened/popguard/internal/guard/services/background"
	"github.com/haukened/popguard/internal/guard/services/page"
)

var ErrManagerClosed = errors.New("browser manager is closed")

type Options struct {
	// Remote is the DevTools WebSocket URL of a running Chrome. Empty
	// launches a local one.
	Remote   string
	Headless bool
	Stealth  bool
	Logger   log.Logger
}

// Manager owns the browser connection and the guarded pages.
type Manager struct {
	opts    Options
	factory *page.Factory

	mu       sync.Mutex
	browser  *rod.Browser
	lnch     *launcher.Launcher
	sessions map[proto.TargetTargetID]*Session
	ctx      context.Context
	cancel   context.CancelFunc
	closed   bool
}

var _ background.Tabs = (*Manager)(nil)

func NewManager(opts Options, factory *page.Factory) *Manager {
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return &Manager{
		opts:     opts,
		factory:  factory,
		sessions: make(map[proto.TargetTargetID]*Session),
	}
}

// Start connects to the browser and begins watching for popup targets.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrManagerClosed
	}
	if m.browser != nil {
		return errors.New("browser manager already started")
	}

	b, err := m.connect()
	if err != nil {
		return err
	}
	if err := (proto.TargetSetDiscoverTargets{Discover: true}).Call(b); err != nil {
		_ = b.Close()
		if m.lnch != nil {
			m.lnch.Cleanup()
			m.lnch = nil
		}
		return fmt.Errorf("discover targets: %w", err)
	}
	m.browser = b
	m.ctx, m.cancel = context.WithCancel(ctx)
	go m.watchTargets(m.ctx, b)
	return nil
}

func (m *Manager) connect() (*rod.Browser, error) {
	var l *launcher.Launcher
	wsURL := m.opts.Remote
	if wsURL != "" {
		m.opts.Logger.Info(map[string]any{"url": wsURL}, "Connecting to remote browser")
	} else {
		l = launcher.New().Headless(m.opts.Headless)
		if m.opts.Stealth {
			l = l.Set("disable-blink-features", "AutomationControlled")
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		wsURL = u
		m.opts.Logger.Info(map[string]any{"url": wsURL, "headless": m.opts.Headless}, "Launched local browser")
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if l != nil {
			l.Cleanup()
		}
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	m.lnch = l
	return b, nil
}

// Guard opens a new guarded page and navigates it to url.
func (m *Manager) Guard(ctx context.Context, url string) (*Session, error) {
	m.mu.Lock()
	b, sctx := m.browser, m.ctx
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return nil, ErrManagerClosed
	}
	if b == nil {
		return nil, errors.New("browser manager not started")
	}

	var p *rod.Page
	var err error
	if m.opts.Stealth {
		p, err = stealth.Page(b)
	} else {
		p, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	s, err := m.attach(sctx, p)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	if url != "" {
		if err := s.Navigate(ctx, url); err != nil {
			return s, err
		}
	}
	m.opts.Logger.Info(map[string]any{"tab": s.Tab(), "url": url}, "Page guarded")
	return s, nil
}

// Open implements background.Tabs.
func (m *Manager) Open(ctx context.Context, url string) error {
	_, err := m.Guard(ctx, url)
	return err
}

func (m *Manager) attach(ctx context.Context, p *rod.Page) (*Session, error) {
	s := newSession(p, m.factory, m.opts.Logger)
	if err := s.install(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[p.TargetID] = s
	m.mu.Unlock()
	go func() {
		s.listen(ctx)
		m.mu.Lock()
		delete(m.sessions, p.TargetID)
		m.mu.Unlock()
	}()
	return s, nil
}

func (m *Manager) session(id proto.TargetTargetID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Sessions returns the number of pages currently guarded.
func (m *Manager) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// watchTargets decides every page target opened by a guarded page. Denied
// popups are closed; allowed ones are guarded too.
func (m *Manager) watchTargets(ctx context.Context, b *rod.Browser) {
	wait := b.Context(ctx).EachEvent(
		func(e *proto.TargetTargetCreated) {
			m.onTarget(ctx, b, e.TargetInfo)
		},
		func(e *proto.TargetTargetDestroyed) {
			m.mu.Lock()
			delete(m.sessions, e.TargetID)
			m.mu.Unlock()
		},
	)
	wait()
}

func (m *Manager) onTarget(ctx context.Context, b *rod.Browser, info *proto.TargetTargetInfo) {
	if info == nil || string(info.Type) != "page" || info.OpenerID == "" {
		return
	}
	opener := m.session(info.OpenerID)
	if opener == nil {
		return
	}

	fields := map[string]any{"tab": opener.Tab(), "url": info.URL}
	p, err := b.PageFromTarget(info.TargetID)
	if err != nil {
		m.opts.Logger.Debug(map[string]any{"error": err, "target": info.TargetID}, "popup_target_unavailable")
		return
	}
	if !opener.decidePopup(info.URL) {
		if err := p.Close(); err != nil {
			m.opts.Logger.Warn(map[string]any{"error": err, "url": info.URL}, "Failed to close denied popup")
			return
		}
		m.opts.Logger.Debug(fields, "popup_closed")
		return
	}
	if _, err := m.attach(ctx, p); err != nil {
		m.opts.Logger.Warn(map[string]any{"error": err, "url": info.URL}, "Failed to guard popup")
	}
}

// Close stops every session and shuts the browser down. A launched browser
// is killed; on a remote one only the guarded pages are closed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if m.cancel != nil {
		m.cancel()
	}
	var err error
	switch {
	case m.lnch != nil:
		err = m.browser.Close()
		m.lnch.Cleanup()
		m.lnch = nil
	case m.browser != nil:
		for _, s := range m.sessions {
			err = errors.Join(err, s.page.Close())
		}
	}
	m.browser = nil
	m.sessions = make(map[proto.TargetTargetID]*Session)
	return err
}
