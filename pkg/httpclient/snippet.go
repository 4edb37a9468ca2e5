package httpclient

import (
	"strings"
	"unicode/utf8"
)

// Snippet trims body and cuts it to at most limit bytes for log and error
// messages. The cut never splits a UTF-8 sequence; "..." marks truncation.
func Snippet(body []byte, limit int) string {
	s := strings.TrimSpace(string(body))
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
