package domain

// Message actions understood by the background collaborator.
const (
	ActionUpdateBadge   = "updateBadge"
	ActionGetStats      = "getStats"
	ActionToggleEnabled = "toggleEnabled"
	ActionUpdateSetting = "updateSetting"
	ActionResetStats    = "resetStats"
)

// Message is the one-way notification sent for every BlockedAction, and the
// envelope for UI requests. Unused fields are omitted on the wire.
type Message struct {
	Action  string `json:"action"`
	Count   int    `json:"count,omitempty"`
	URL     string `json:"url,omitempty"`
	Source  string `json:"source,omitempty"`
	Setting string `json:"setting,omitempty"`
	Value   any    `json:"value,omitempty"`
	// Tab is the sender's tab/page identifier, filled by the transport.
	Tab string `json:"-"`
}

// BadgeMessage builds the updateBadge notification for a blocked action.
func BadgeMessage(count int, a BlockedAction) Message {
	return Message{Action: ActionUpdateBadge, Count: count, URL: a.Detail, Source: a.Category}
}

// Stats is the getStats response.
type Stats struct {
	BlockedToday int           `json:"blockedToday"`
	TotalBlocked int           `json:"totalBlocked"`
	IsEnabled    bool          `json:"isEnabled"`
	Settings     StatsSettings `json:"settings"`
}

// StatsSettings is the settings block of a getStats response.
type StatsSettings struct {
	PromptNotifications bool `json:"promptNotifications"`
	SilentMode          bool `json:"silentMode"`
}

// Response is the generic reply to UI requests.
type Response struct {
	Success   bool   `json:"success,omitempty"`
	IsEnabled *bool  `json:"isEnabled,omitempty"`
	Stats     *Stats `json:"stats,omitempty"`
	Error     string `json:"error,omitempty"`
}
