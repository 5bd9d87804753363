package widget

import (
	"strings"

	"github.com/consently/consent-management-api/pkg/consent"
)

// Device types accepted by the consent API
const (
	DeviceDesktop = consent.DeviceDesktop
	DeviceMobile  = consent.DeviceMobile
	DeviceTablet  = consent.DeviceTablet
	DeviceUnknown = consent.DeviceUnknown
)

// DetectMetadata derives device, browser and OS names from a user agent string
func DetectMetadata(userAgent, language string) Metadata {
	ua := strings.ToLower(userAgent)
	return Metadata{
		DeviceType: detectDevice(ua),
		Browser:    detectBrowser(ua),
		OS:         detectOS(ua),
		Language:   language,
		UserAgent:  userAgent,
	}
}

func detectDevice(ua string) string {
	switch {
	case ua == "":
		return DeviceUnknown
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet") ||
		(strings.Contains(ua, "android") && !strings.Contains(ua, "mobile")):
		return DeviceTablet
	case strings.Contains(ua, "mobi") || strings.Contains(ua, "iphone"):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

// Order matters: Edge and Opera also advertise Chrome, and Chrome advertises Safari.
func detectBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "edg/"):
		return "Edge"
	case strings.Contains(ua, "opr/") || strings.Contains(ua, "opera"):
		return "Opera"
	case strings.Contains(ua, "firefox/"):
		return "Firefox"
	case strings.Contains(ua, "chrome/") || strings.Contains(ua, "crios/"):
		return "Chrome"
	case strings.Contains(ua, "safari/"):
		return "Safari"
	default:
		return "Unknown"
	}
}

func detectOS(ua string) string {
	switch {
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		return "iOS"
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "mac os"):
		return "macOS"
	case strings.Contains(ua, "linux"):
		return "Linux"
	default:
		return "Unknown"
	}
}
