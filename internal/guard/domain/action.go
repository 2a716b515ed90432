package domain

// Categories attached to BlockedAction records. They double as the "source"
// field of the badge message.
const (
	CategoryOpenAdDomain   = "window.open (ad domain)"
	CategoryOpenNoUser     = "window.open (no user action)"
	CategoryOpenSuspicious = "window.open (suspicious)"
	CategoryLinkAdDomain   = "link (ad domain)"
	CategoryLinkSuspicious = "link (suspicious pattern)"
	CategoryPushState      = "history.pushState"
	CategoryReplaceState   = "history.replaceState"
	CategoryTimerString    = "timer (string code)"
	CategoryUnloadHandler  = "unload handler"
	CategoryScriptAd       = "script (ad)"
	CategoryScriptInline   = "script (inline)"
	CategoryIframeAd       = "iframe (ad)"
	CategoryIframeHidden   = "iframe (hidden)"
	CategoryMetaRefresh    = "meta refresh"
)

// Details used when the blocked action has no URL of its own.
const (
	PlaceholderDetail  = "about:blank"
	InlineScriptDetail = "inline"
)

// BlockedAction describes one suppressed action. It is fire-and-forget: the
// engine hands it to the reporter and keeps no reference.
type BlockedAction struct {
	Category string
	Detail   string
}
