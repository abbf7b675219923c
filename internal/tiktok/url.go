// internal/tiktok/url.go
package tiktok

import (
	"net/url"
	"strings"
)

// ValidateURL reports whether raw looks like a shareable TikTok video
// link. Accepts full web links and the shortened vm.tiktok.com form.
func ValidateURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	switch host {
	case "tiktok.com", "www.tiktok.com", "m.tiktok.com", "vm.tiktok.com", "vt.tiktok.com":
	default:
		return false
	}
	return u.Path != "" && u.Path != "/"
}
