package utils

import (
	"net/url"
	"strings"
)

// CanonicalHost returns a host name in canonical form:
// - Lowercased
// - Trimmed of surrounding whitespace
// - No trailing dot
func CanonicalHost(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	return name
}

// NormalizeURL drops what a browser ignores when parsing a URL: leading and
// trailing C0 controls and spaces, and every ASCII tab, CR and LF.
func NormalizeURL(raw string) string {
	raw = strings.TrimFunc(raw, func(r rune) bool { return r <= ' ' })
	if !strings.ContainsAny(raw, "\t\r\n") {
		return raw
	}
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\r' || r == '\n' {
			return -1
		}
		return r
	}, raw)
}

// specialSchemes are the schemes whose URLs always carry a host and accept
// backslashes as path separators.
var specialSchemes = map[string]bool{
	"http": true, "https": true, "ws": true, "wss": true, "ftp": true,
}

// splitScheme returns the lower-cased scheme of raw and the text after the
// colon. ok is false when raw has no valid scheme.
func splitScheme(raw string) (scheme, rest string, ok bool) {
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9', c == '+', c == '-', c == '.':
			if i == 0 {
				return "", "", false
			}
		case c == ':' && i > 0:
			return strings.ToLower(raw[:i]), raw[i+1:], true
		default:
			return "", "", false
		}
	}
	return "", "", false
}

// HostFromURL extracts the canonical host name from raw the way a browser
// would. It returns "" only when raw carries no authority (relative paths,
// about:, javascript:, data:).
func HostFromURL(raw string) string {
	raw = NormalizeURL(raw)
	if raw == "" {
		return ""
	}
	if isSlash(raw[0]) {
		if len(raw) > 1 && isSlash(raw[1]) {
			return authorityHost(raw[2:])
		}
		return ""
	}
	scheme, rest, ok := splitScheme(raw)
	if ok && specialSchemes[scheme] {
		return authorityHost(strings.TrimLeft(rest, "/\\"))
	}
	if u, err := url.Parse(raw); err == nil {
		return CanonicalHost(u.Hostname())
	}
	if ok && strings.HasPrefix(rest, "//") {
		return authorityHost(rest[2:])
	}
	return ""
}

func isSlash(c byte) bool { return c == '/' || c == '\\' }

// authorityHost returns the host of the authority at the start of s, without
// userinfo or port, percent-decoded when the escapes are valid.
func authorityHost(s string) string {
	if i := strings.IndexAny(s, "/?#\\"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		s = s[i+1:]
	}
	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return ""
		}
		return strings.ToLower(s[1:end])
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	if dec, err := url.PathUnescape(s); err == nil {
		s = dec
	}
	return CanonicalHost(s)
}

// ResolveURL resolves ref against base the way a document resolves href/src
// attributes. Stray '%' signs and spaces are escaped before parsing, and
// backslashes act as slashes under a special-scheme base. When either side
// still fails to parse, ref is returned normalized but unresolved.
func ResolveURL(base, ref string) string {
	ref = NormalizeURL(ref)
	base = NormalizeURL(base)
	if ref == "" || base == "" {
		return ref
	}
	b, err := parseLenient(base)
	if err != nil || !b.IsAbs() {
		return ref
	}
	if specialSchemes[strings.ToLower(b.Scheme)] {
		ref = slashPath(ref)
	}
	r, err := parseLenient(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func parseLenient(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err == nil {
		return u, nil
	}
	return url.Parse(repairEscapes(s))
}

// repairEscapes encodes '%' signs that do not start a valid escape, and spaces.
func repairEscapes(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '%' && !(i+2 < len(s) && ishex(s[i+1]) && ishex(s[i+2])):
			b.WriteString("%25")
		case c == ' ':
			b.WriteString("%20")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func ishex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// slashPath turns backslashes before the query or fragment into slashes.
func slashPath(s string) string {
	end := len(s)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		end = i
	}
	if !strings.Contains(s[:end], "\\") {
		return s
	}
	return strings.ReplaceAll(s[:end], "\\", "/") + s[end:]
}

// Anchors lists host and each of its parent domains, most specific first.
// "a.b.example.com" yields a.b.example.com, b.example.com, example.com, com.
func Anchors(host string) []string {
	host = CanonicalHost(host)
	if host == "" {
		return nil
	}
	out := make([]string, 0, strings.Count(host, ".")+1)
	for {
		out = append(out, host)
		i := strings.IndexByte(host, '.')
		if i < 0 || i == len(host)-1 {
			break
		}
		host = host[i+1:]
	}
	return out
}
