// Package page assembles the per-document interception state: a fresh
// tracker, reporter, engine and watcher over the process-wide classifier
// and gate.
package page

import (
	"time"

	"github.com/haukened/popguard/internal/guard/common/clock"
	"github.com/haukened/popguard/internal/guard/common/log"
	"github.com/haukened/popguard/internal/guard/services/engine"
	"github.com/haukened/popguard/internal/guard/services/reporter"
	"github.com/haukened/popguard/internal/guard/services/tracker"
	"github.com/haukened/popguard/internal/guard/services/watcher"
)

// Classifier is shared by every document.
type Classifier interface {
	engine.Classifier
}

// Gate is shared by every document.
type Gate interface {
	engine.Gate
}

// Senders hands out a message sender bound to one tab.
type Senders interface {
	SenderFor(tab string) reporter.Sender
}

type Options struct {
	Classifier        Classifier
	Gate              Gate
	Senders           Senders
	Clock             clock.Clock
	InteractionWindow time.Duration
	ScanInlineScripts bool
	ScanStringTimers  bool
	Logger            log.Logger
}

// Factory builds Guards.
type Factory struct {
	opts Options
}

func NewFactory(opts Options) *Factory {
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	return &Factory{opts: opts}
}

// Guard is the interception state of one document.
type Guard struct {
	Tab      string
	Tracker  *tracker.Tracker
	Reporter *reporter.Reporter
	Engine   *engine.Engine
	Watcher  *watcher.Watcher
}

// New builds the state for a document at pageURL in tab. remover detaches
// nodes the watcher denies.
func (f *Factory) New(pageURL, tab string, remover watcher.Remover) *Guard {
	logger := log.With(f.opts.Logger, map[string]any{"tab": tab})

	var sender reporter.Sender
	if f.opts.Senders != nil {
		sender = f.opts.Senders.SenderFor(tab)
	}
	g := &Guard{
		Tab:      tab,
		Tracker:  tracker.New(f.opts.Clock, f.opts.InteractionWindow),
		Reporter: reporter.New(sender, logger),
	}
	g.Engine = engine.New(engine.Options{
		PageURL:          pageURL,
		Classifier:       f.opts.Classifier,
		Tracker:          g.Tracker,
		Gate:             f.opts.Gate,
		Reporter:         g.Reporter,
		Logger:           logger,
		ScanStringTimers: f.opts.ScanStringTimers,
	})
	g.Watcher = watcher.New(watcher.Options{
		Classifier:        f.opts.Classifier,
		Gate:              f.opts.Gate,
		Reporter:          g.Reporter,
		Resolver:          g.Engine,
		Remover:           remover,
		Logger:            logger,
		ScanInlineScripts: f.opts.ScanInlineScripts,
	})
	return g
}
