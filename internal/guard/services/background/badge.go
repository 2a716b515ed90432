package background

import (
	"strconv"

	"github.com/haukened/popguard/internal/guard/common/log"
)

// Badge colours.
const (
	ColorCount    = "#e74c3c"
	ColorDisabled = "#95a5a6"
	ColorFlash    = "#27ae60"
)

// FlashText is shown briefly after a silent-mode-off block.
const FlashText = "!"

// BadgeText renders the badge label: empty for zero, the count up to 99,
// "99+" beyond, and "OFF" when protection is disabled.
func BadgeText(count int, enabled bool) string {
	switch {
	case !enabled:
		return "OFF"
	case count <= 0:
		return ""
	case count > 99:
		return "99+"
	}
	return strconv.Itoa(count)
}

// logBadge writes badge changes to the log. It stands in for a toolbar when
// the agent runs headless.
type logBadge struct {
	logger log.Logger
}

func NewLogBadge(logger log.Logger) Badge {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &logBadge{logger: logger}
}

func (b *logBadge) SetText(text string) {
	b.logger.Debug(map[string]any{"text": text}, "badge_text")
}

func (b *logBadge) SetColor(color string) {
	b.logger.Debug(map[string]any{"color": color}, "badge_color")
}

// logNotifier logs prompts instead of displaying them.
type logNotifier struct {
	logger log.Logger
}

func NewLogNotifier(logger log.Logger) Notifier {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Show(p Prompt) error {
	n.logger.Info(map[string]any{"id": p.ID, "url": p.URL, "source": p.Source, "tab": p.Tab}, p.Title)
	return nil
}

func (n *logNotifier) Clear(id string) {
	n.logger.Debug(map[string]any{"id": id}, "prompt_cleared")
}

var (
	_ Badge    = (*logBadge)(nil)
	_ Notifier = (*logNotifier)(nil)
)
