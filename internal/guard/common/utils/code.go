package utils

import (
	"regexp"
	"unicode/utf8"
)

// These are textual heuristics over script source. They are not a security
// boundary: obfuscated code passes straight through.
var (
	openCall       = regexp.MustCompile(`\bopen\s*\(`)
	locationAssign = regexp.MustCompile(`\blocation(?:\.href)?\s*=(?:[^=]|$)|\blocation\.(?:assign|replace)\s*\(`)
	refreshURL     = regexp.MustCompile(`(?i)url\s*=\s*['"]?([^'";\s]+)`)
)

// HasOpenCall reports whether src textually calls a window-opening function.
func HasOpenCall(src string) bool {
	return openCall.MatchString(src)
}

// HasNavigationCall reports whether src opens a window or assigns the
// document location.
func HasNavigationCall(src string) bool {
	return openCall.MatchString(src) || locationAssign.MatchString(src)
}

// RefreshURL extracts the target of a meta refresh content value such as
// "5; url=https://example.com/". It returns "" when there is none.
func RefreshURL(content string) string {
	m := refreshURL.FindStringSubmatch(content)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// Truncate shortens s to at most n bytes, appending "..." when cut. The cut
// never splits a UTF-8 sequence.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
