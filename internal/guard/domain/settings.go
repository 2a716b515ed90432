package domain

// Storage keys shared by the engine and the background collaborator.
const (
	KeyIsEnabled           = "isEnabled"
	KeyTotalBlocked        = "totalBlocked"
	KeyBlockedToday        = "blockedToday"
	KeyLastResetDate       = "lastResetDate"
	KeyPromptNotifications = "promptNotifications"
	KeySilentMode          = "silentMode"
)

// Defaults written on install.
const (
	DefaultIsEnabled           = true
	DefaultPromptNotifications = false
	DefaultSilentMode          = true
)

// SettingKeys lists the boolean keys a UI may change through updateSetting.
var SettingKeys = []string{KeyIsEnabled, KeyPromptNotifications, KeySilentMode}

// IsSettingKey reports whether key may be changed through updateSetting.
func IsSettingKey(key string) bool {
	for _, k := range SettingKeys {
		if k == key {
			return true
		}
	}
	return false
}
