package background

import (
	"context"

	"github.com/haukened/popguard/internal/guard/repos/kvstore"
)

// Store is the settings and counter store.
type Store interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, values map[string]any) error
	Update(ctx context.Context, fn func(tx *kvstore.Tx) error) error
}

// Badge renders the toolbar badge.
type Badge interface {
	SetText(text string)
	SetColor(color string)
}

// Tabs opens URLs the user allowed from a prompt.
type Tabs interface {
	Open(ctx context.Context, url string) error
}

// Notifier shows and clears Allow/Block prompts. The user's answer comes
// back through Service.ResolvePrompt or Service.DismissPrompt.
type Notifier interface {
	Show(p Prompt) error
	Clear(id string)
}
