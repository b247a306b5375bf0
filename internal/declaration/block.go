package declaration

import "strings"

// ExtractBlock returns the body of the first /* ... */ comment in src.
// Later blocks are ignored.
func ExtractBlock(src string) (string, bool) {
	start := strings.Index(src, "/*")
	if start < 0 {
		return "", false
	}
	body := src[start+2:]
	end := strings.Index(body, "*/")
	if end < 0 {
		return "", false
	}
	return body[:end], true
}
