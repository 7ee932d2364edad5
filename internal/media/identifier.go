package media

import (
	"net/url"
	"strings"
)

// MaxIdentifierLength caps identifiers accepted as keys and URL segments.
const MaxIdentifierLength = 256

// ValidIdentifier reports whether id is safe as a lookup key and a URL path
// segment. Telegram file ids only use the URL-safe base64 alphabet.
func ValidIdentifier(id string) bool {
	if id == "" || len(id) > MaxIdentifierLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// StreamPath returns the delivery path for id.
func StreamPath(id string) string {
	return "/stream/" + url.PathEscape(id)
}

// StreamURL returns the public stream link {baseURL}/stream/{id}.
func StreamURL(baseURL, id string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + StreamPath(id)
}
