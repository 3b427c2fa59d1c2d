// Package urlnorm turns URLs into identity keys and decides whether typed
// text looks like a URL.
package urlnorm

import (
	"net"
	"net/url"
	"strings"
)

// queryPlaceholder marks where a search template takes the query.
const queryPlaceholder = "%s"

// Normalize canonicalizes a URL into a deduplication key.
// Query strings are kept: URLs that differ only in query are distinct.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ToLower(raw)
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}

	// Repeat until stable so Normalize(Normalize(x)) == Normalize(x) even for
	// inputs like "https://http://www.www.x/".
	for {
		prev := s
		s = strings.TrimRight(s, "/")
		s = strings.TrimPrefix(s, "http://")
		s = strings.TrimPrefix(s, "https://")
		s = strings.TrimPrefix(s, "www.")
		if s == prev {
			return s
		}
	}
}

// Domain returns the hostname of raw, or "" if it has none.
func Domain(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// LooksLikeURL reports whether typed text should be treated as a URL rather
// than a search.
func LooksLikeURL(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || strings.ContainsAny(text, " \t\n") {
		return false
	}

	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return Domain(text) != ""
	}

	host := lower
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil && ip.To4() != nil {
		return true
	}

	dot := strings.LastIndexByte(host, '.')
	if dot <= 0 {
		return false
	}
	tld := host[dot+1:]
	if len(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// EnsureScheme prepends https:// to text that has no scheme.
func EnsureScheme(text string) string {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return text
	}
	return "https://" + text
}

// SearchURL fills the query into a search-engine template such as
// "https://duckduckgo.com/?q=%s". Templates without a placeholder get the
// query appended.
func SearchURL(template, query string) string {
	q := url.QueryEscape(strings.TrimSpace(query))
	if strings.Contains(template, queryPlaceholder) {
		return strings.Replace(template, queryPlaceholder, q, 1)
	}
	return template + q
}
