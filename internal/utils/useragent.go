package utils

import (
	"strings"

	ua "github.com/mssola/user_agent"
)

// DeviceInfo holds parsed information from a User-Agent string, recorded
// with login events.
type DeviceInfo struct {
	DeviceType string `json:"device_type"` // mobile, tablet, desktop
	OS         string `json:"os"`
	Browser    string `json:"browser"`
	IsBot      bool   `json:"is_bot"`
	Raw        string `json:"raw"`
}

// ParseUserAgent parses a User-Agent string and extracts device information
func ParseUserAgent(userAgent string) DeviceInfo {
	if userAgent == "" {
		return DeviceInfo{
			DeviceType: "unknown",
			OS:         "Unknown",
			Browser:    "Unknown",
		}
	}

	parser := ua.New(userAgent)

	info := DeviceInfo{
		Raw:     userAgent,
		IsBot:   parser.Bot(),
		OS:      osString(parser),
		Browser: browserString(parser),
	}

	if parser.Mobile() {
		if isTablet(userAgent) {
			info.DeviceType = "tablet"
		} else {
			info.DeviceType = "mobile"
		}
	} else {
		info.DeviceType = "desktop"
	}

	return info
}

func isTablet(userAgent string) bool {
	lower := strings.ToLower(userAgent)
	for _, indicator := range []string{"ipad", "tablet", "kindle", "sm-t"} {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

func osString(parser *ua.UserAgent) string {
	info := parser.OSInfo()
	if info.Name == "" {
		return "Unknown"
	}
	if info.Version != "" {
		return info.Name + " " + info.Version
	}
	return info.Name
}

func browserString(parser *ua.UserAgent) string {
	name, version := parser.Browser()
	if name == "" {
		return "Unknown"
	}
	if version != "" {
		return name + " " + version
	}
	return name
}
