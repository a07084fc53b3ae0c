package models

// Settings holds free-form site settings edited from the admin panel
type Settings map[string]string

// Default settings keys
const (
	SettingSiteTitle         = "siteTitle"
	SettingWelcomeMessage    = "welcomeMessage"
	SettingModerationEnabled = "moderationEnabled"
)

// WipeCategory names a collection group the admin can clear
type WipeCategory string

const (
	WipeEvents    WipeCategory = "events"
	WipePhotos    WipeCategory = "photos"
	WipeVideos    WipeCategory = "videos"
	WipeSchedules WipeCategory = "schedules"
	WipeMessages  WipeCategory = "messages"
	WipeContacts  WipeCategory = "contacts"
	WipeAll       WipeCategory = "all"
)

// ValidWipeCategory reports whether c is a known category
func ValidWipeCategory(c WipeCategory) bool {
	switch c {
	case WipeEvents, WipePhotos, WipeVideos, WipeSchedules, WipeMessages, WipeContacts, WipeAll:
		return true
	}
	return false
}
