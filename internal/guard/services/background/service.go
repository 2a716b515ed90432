// Package background keeps the blocked counters and settings, renders the
// badge, and answers UI requests. It consumes the updateBadge messages the
// page engines emit.
package background

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haukened/popguard/internal/guard/common/clock"
	"github.com/haukened/popguard/internal/guard/common/log"
	"github.com/haukened/popguard/internal/guard/domain"
	"github.com/haukened/popguard/internal/guard/repos/kvstore"
)

// dateLayout matches the day granularity of the daily counter reset.
const dateLayout = "Mon Jan 02 2006"

// DefaultFlashDuration is how long the flash badge stays up.
const DefaultFlashDuration = 800 * time.Millisecond

var (
	ErrUnknownAction  = errors.New("unknown action")
	ErrUnknownSetting = errors.New("unknown setting")
	ErrInvalidValue   = errors.New("setting value must be a boolean")
	ErrUnknownPrompt  = errors.New("unknown prompt")
)

// Prompt is a pending Allow/Block decision for a blocked navigation.
type Prompt struct {
	ID      string
	Title   string
	Message string
	URL     string
	Source  string
	Tab     string
}

type Options struct {
	Store    Store
	Badge    Badge
	Tabs     Tabs
	Notifier Notifier
	Clock    clock.Clock
	Logger   log.Logger
	// FlashDuration defaults to DefaultFlashDuration.
	FlashDuration time.Duration
}

type Service struct {
	store    Store
	badge    Badge
	tabs     Tabs
	notifier Notifier
	clock    clock.Clock
	logger   log.Logger
	flash    time.Duration

	mu      sync.Mutex
	pending map[string]Prompt
	nextID  atomic.Uint64
}

func New(opts Options) *Service {
	s := &Service{
		store:    opts.Store,
		badge:    opts.Badge,
		tabs:     opts.Tabs,
		notifier: opts.Notifier,
		clock:    opts.Clock,
		logger:   opts.Logger,
		flash:    opts.FlashDuration,
		pending:  make(map[string]Prompt),
	}
	if s.logger == nil {
		s.logger = log.NewNoopLogger()
	}
	if s.badge == nil {
		s.badge = NewLogBadge(s.logger)
	}
	if s.notifier == nil {
		s.notifier = NewLogNotifier(s.logger)
	}
	if s.clock == nil {
		s.clock = clock.RealClock{}
	}
	if s.flash <= 0 {
		s.flash = DefaultFlashDuration
	}
	return s
}

func (s *Service) today() string { return s.clock.Now().Format(dateLayout) }

// Install writes the default settings and zeroed counters.
func (s *Service) Install(ctx context.Context) error {
	err := s.store.Set(ctx, map[string]any{
		domain.KeyIsEnabled:           domain.DefaultIsEnabled,
		domain.KeyTotalBlocked:        0,
		domain.KeyBlockedToday:        0,
		domain.KeyLastResetDate:       s.today(),
		domain.KeyPromptNotifications: domain.DefaultPromptNotifications,
		domain.KeySilentMode:          domain.DefaultSilentMode,
	})
	if err != nil {
		return fmt.Errorf("install defaults: %w", err)
	}
	s.showCount(0)
	return nil
}

// Start renders the badge for the stored state.
func (s *Service) Start(ctx context.Context) error {
	enabled, err := s.boolSetting(ctx, domain.KeyIsEnabled, domain.DefaultIsEnabled)
	if err != nil {
		return err
	}
	return s.showState(ctx, enabled)
}

// HandleMessage answers one message from a page or the UI.
func (s *Service) HandleMessage(ctx context.Context, msg domain.Message) domain.Response {
	switch msg.Action {
	case domain.ActionUpdateBadge:
		if err := s.Blocked(ctx, msg); err != nil {
			return domain.Response{Error: err.Error()}
		}
		return domain.Response{Success: true}

	case domain.ActionGetStats:
		st, err := s.Stats(ctx)
		if err != nil {
			return domain.Response{Error: err.Error()}
		}
		return domain.Response{Stats: &st}

	case domain.ActionToggleEnabled:
		enabled, err := s.Toggle(ctx)
		if err != nil {
			return domain.Response{Error: err.Error()}
		}
		return domain.Response{IsEnabled: &enabled}

	case domain.ActionUpdateSetting:
		v, ok := msg.Value.(bool)
		if !ok {
			return domain.Response{Error: ErrInvalidValue.Error()}
		}
		if err := s.UpdateSetting(ctx, msg.Setting, v); err != nil {
			return domain.Response{Error: err.Error()}
		}
		return domain.Response{Success: true}

	case domain.ActionResetStats:
		if err := s.ResetStats(ctx); err != nil {
			return domain.Response{Error: err.Error()}
		}
		return domain.Response{Success: true}
	}
	return domain.Response{Error: fmt.Sprintf("%s: %q", ErrUnknownAction, msg.Action)}
}

// Blocked handles an updateBadge message. With prompts on and a URL present
// it asks the user; otherwise it counts the block.
func (s *Service) Blocked(ctx context.Context, msg domain.Message) error {
	prompt, err := s.boolSetting(ctx, domain.KeyPromptNotifications, domain.DefaultPromptNotifications)
	if err != nil {
		return err
	}
	if prompt && msg.URL != "" {
		return s.ask(msg)
	}
	silent, err := s.boolSetting(ctx, domain.KeySilentMode, domain.DefaultSilentMode)
	if err != nil {
		return err
	}
	if _, err := s.IncrementBlocked(ctx); err != nil {
		return err
	}
	if !silent {
		s.flashBadge()
	}
	return nil
}

// IncrementBlocked bumps both counters, restarting the daily one when the
// date changed, and returns the new daily count.
func (s *Service) IncrementBlocked(ctx context.Context) (int, error) {
	today := s.today()
	var blockedToday int
	err := s.store.Update(ctx, func(tx *kvstore.Tx) error {
		var total int
		var last string
		if _, err := tx.Get(domain.KeyBlockedToday, &blockedToday); err != nil {
			return err
		}
		if _, err := tx.Get(domain.KeyTotalBlocked, &total); err != nil {
			return err
		}
		if _, err := tx.Get(domain.KeyLastResetDate, &last); err != nil {
			return err
		}
		if last != today {
			blockedToday = 0
		}
		blockedToday++
		total++
		for k, v := range map[string]any{
			domain.KeyBlockedToday:  blockedToday,
			domain.KeyTotalBlocked:  total,
			domain.KeyLastResetDate: today,
		} {
			if err := tx.Set(k, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("increment blocked: %w", err)
	}
	s.showCount(blockedToday)
	return blockedToday, nil
}

// Stats reads the counters and settings with their defaults applied.
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	var st domain.Stats
	var err error
	if st.BlockedToday, err = s.intValue(ctx, domain.KeyBlockedToday); err != nil {
		return st, err
	}
	if st.TotalBlocked, err = s.intValue(ctx, domain.KeyTotalBlocked); err != nil {
		return st, err
	}
	if st.IsEnabled, err = s.boolSetting(ctx, domain.KeyIsEnabled, domain.DefaultIsEnabled); err != nil {
		return st, err
	}
	if st.Settings.PromptNotifications, err = s.boolSetting(ctx, domain.KeyPromptNotifications, domain.DefaultPromptNotifications); err != nil {
		return st, err
	}
	if st.Settings.SilentMode, err = s.boolSetting(ctx, domain.KeySilentMode, domain.DefaultSilentMode); err != nil {
		return st, err
	}
	return st, nil
}

// Toggle flips isEnabled and returns the new value.
func (s *Service) Toggle(ctx context.Context) (bool, error) {
	var enabled bool
	err := s.store.Update(ctx, func(tx *kvstore.Tx) error {
		enabled = domain.DefaultIsEnabled
		if _, err := tx.Get(domain.KeyIsEnabled, &enabled); err != nil {
			return err
		}
		enabled = !enabled
		return tx.Set(domain.KeyIsEnabled, enabled)
	})
	if err != nil {
		return false, fmt.Errorf("toggle enabled: %w", err)
	}
	s.logger.Info(map[string]any{"enabled": enabled}, "Protection toggled")
	return enabled, s.showState(ctx, enabled)
}

// UpdateSetting stores one boolean setting.
func (s *Service) UpdateSetting(ctx context.Context, key string, value bool) error {
	if !domain.IsSettingKey(key) {
		return fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	if err := s.store.Set(ctx, map[string]any{key: value}); err != nil {
		return fmt.Errorf("update %s: %w", key, err)
	}
	return nil
}

// ResetStats zeroes both counters.
func (s *Service) ResetStats(ctx context.Context) error {
	err := s.store.Set(ctx, map[string]any{
		domain.KeyBlockedToday:  0,
		domain.KeyTotalBlocked:  0,
		domain.KeyLastResetDate: s.today(),
	})
	if err != nil {
		return fmt.Errorf("reset stats: %w", err)
	}
	s.showCount(0)
	return nil
}

// Pending lists unanswered prompts ordered by ID.
func (s *Service) Pending() []Prompt {
	s.mu.Lock()
	out := make([]Prompt, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, p)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ResolvePrompt applies the user's answer. Allow opens the URL; Block counts
// the action as blocked.
func (s *Service) ResolvePrompt(ctx context.Context, id string, allow bool) error {
	p, ok := s.take(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPrompt, id)
	}
	s.notifier.Clear(id)
	if !allow {
		_, err := s.IncrementBlocked(ctx)
		return err
	}
	if s.tabs == nil {
		return fmt.Errorf("open %s: no tab opener", p.URL)
	}
	return s.tabs.Open(ctx, p.URL)
}

// DismissPrompt handles a prompt closed without an answer, which counts as
// blocked. Unknown IDs are ignored.
func (s *Service) DismissPrompt(ctx context.Context, id string) error {
	if _, ok := s.take(id); !ok {
		return nil
	}
	_, err := s.IncrementBlocked(ctx)
	return err
}

func (s *Service) take(id string) (Prompt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	return p, ok
}

func (s *Service) ask(msg domain.Message) error {
	source := msg.Source
	if source == "" {
		source = "Popup/Redirect"
	}
	shortURL := msg.URL
	if len(shortURL) > 50 {
		shortURL = shortURL[:50] + "..."
	}
	p := Prompt{
		ID:      "popup-blocker-" + strconv.FormatUint(s.nextID.Add(1), 10),
		Title:   "Popup/Redirect Detected",
		Message: fmt.Sprintf("%s: %s\n\nClick to allow or block this action.", source, shortURL),
		URL:     msg.URL,
		Source:  source,
		Tab:     msg.Tab,
	}
	s.mu.Lock()
	s.pending[p.ID] = p
	s.mu.Unlock()
	if err := s.notifier.Show(p); err != nil {
		s.take(p.ID)
		return fmt.Errorf("show prompt: %w", err)
	}
	return nil
}

func (s *Service) showCount(count int) {
	s.badge.SetText(BadgeText(count, true))
	s.badge.SetColor(ColorCount)
}

func (s *Service) showState(ctx context.Context, enabled bool) error {
	if !enabled {
		s.badge.SetText(BadgeText(0, false))
		s.badge.SetColor(ColorDisabled)
		return nil
	}
	n, err := s.intValue(ctx, domain.KeyBlockedToday)
	if err != nil {
		return err
	}
	s.showCount(n)
	return nil
}

// flashBadge shows FlashText, then puts the daily count back.
func (s *Service) flashBadge() {
	s.badge.SetText(FlashText)
	s.badge.SetColor(ColorFlash)
	time.AfterFunc(s.flash, func() {
		n, err := s.intValue(context.Background(), domain.KeyBlockedToday)
		if err != nil {
			s.logger.Debug(map[string]any{"error": err}, "flash_restore_failed")
		}
		s.showCount(n)
	})
}

func (s *Service) boolSetting(ctx context.Context, key string, def bool) (bool, error) {
	v := def
	if _, err := s.store.Get(ctx, key, &v); err != nil {
		return def, fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

func (s *Service) intValue(ctx context.Context, key string) (int, error) {
	var v int
	if _, err := s.store.Get(ctx, key, &v); err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}
