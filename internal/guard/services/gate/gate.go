// Package gate holds the cached enablement flag consulted before every
// interception decision.
package gate

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/haukened/popguard/internal/guard/common/log"
	"github.com/haukened/popguard/internal/guard/domain"
	"github.com/haukened/popguard/internal/guard/repos/kvstore"
)

// Store is the part of the settings store the gate reads and watches.
type Store interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Subscribe(l kvstore.Listener) (cancel func())
}

// Gate caches the isEnabled setting. It starts enabled so protection is on
// before the first read completes.
type Gate struct {
	enabled atomic.Bool

	// mu serialises writers. gen counts Set calls so a slow initial read
	// cannot overwrite a newer value.
	mu     sync.Mutex
	gen    uint64
	logger log.Logger
}

func New(logger log.Logger) *Gate {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	g := &Gate{logger: logger}
	g.enabled.Store(domain.DefaultIsEnabled)
	return g
}

// Enabled returns the cached flag.
func (g *Gate) Enabled() bool { return g.enabled.Load() }

// Set overwrites the cached flag.
func (g *Gate) Set(enabled bool) {
	g.mu.Lock()
	g.gen++
	g.enabled.Store(enabled)
	g.mu.Unlock()
}

// generation returns the number of Set calls so far.
func (g *Gate) generation() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen
}

// storeIfCurrent writes enabled unless Set ran after generation gen.
func (g *Gate) storeIfCurrent(gen uint64, enabled bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen != gen {
		return false
	}
	g.enabled.Store(enabled)
	return true
}

// Sync subscribes to isEnabled changes and then loads the stored value.
// A failed or missing read keeps the current flag. The returned function
// stops watching.
func (g *Gate) Sync(ctx context.Context, store Store) (cancel func()) {
	cancel = store.Subscribe(g.onChange)

	gen := g.generation()
	var enabled bool
	found, err := store.Get(ctx, domain.KeyIsEnabled, &enabled)
	switch {
	case err != nil:
		g.logger.Debug(map[string]any{"error": err}, "gate_read_failed")
	case !found:
		g.logger.Debug(nil, "gate_setting_absent")
	case !g.storeIfCurrent(gen, enabled):
		g.logger.Debug(nil, "gate_read_superseded")
	}
	return cancel
}

func (g *Gate) onChange(changes []kvstore.Change) {
	for _, c := range changes {
		if c.Key != domain.KeyIsEnabled || c.New == nil {
			continue
		}
		var enabled bool
		if err := json.Unmarshal(c.New, &enabled); err != nil {
			g.logger.Debug(map[string]any{"error": err}, "gate_change_undecodable")
			continue
		}
		g.Set(enabled)
		g.logger.Debug(map[string]any{"enabled": enabled}, "gate_updated")
	}
}
