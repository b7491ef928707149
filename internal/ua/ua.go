// internal/ua/ua.go
//
// User-Agent classification.
//
// This wrapper isolates the third-party `github.com/avct/uasurfer` API so
// the rest of the codebase never sees its enums or structs.  The front
// controller only needs a coarse class per request, for its metrics and
// rewrite logs: crawlers following stale links are the main consumers of
// URL history, and they are worth telling apart from people.
package ua

import (
	surfer "github.com/avct/uasurfer"
)

// Class labels.
const (
	Bot     = "bot"
	Browser = "browser"
	Other   = "other"
)

// Class returns Bot, Browser, or Other for a raw User-Agent header.  An
// empty header is Other.
func Class(raw string) string {
	if raw == "" {
		return Other
	}
	u := surfer.Parse(raw)
	switch {
	case u.IsBot():
		return Bot
	case u.Browser.Name != surfer.BrowserUnknown:
		return Browser
	default:
		return Other
	}
}
