package service

import "strings"

var (
	mobileMarkers    = []string{"iphone", "ipad", "ipod", "android", "mobile"}
	nonSafariMarkers = []string{"chrome", "chromium", "crios", "fxios", "edgios", "edg/", "opr/"}
)

// NeedsMinimalRedirect guesses from the User-Agent whether the browser may
// drop a long redirect query (Safari and mobile browsers). Best effort only.
func NeedsMinimalRedirect(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	if ua == "" {
		return false
	}

	for _, marker := range mobileMarkers {
		if strings.Contains(ua, marker) {
			return true
		}
	}

	if !strings.Contains(ua, "safari") {
		return false
	}
	for _, marker := range nonSafariMarkers {
		if strings.Contains(ua, marker) {
			return false
		}
	}
	return true
}
