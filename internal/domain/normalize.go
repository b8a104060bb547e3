package domain

import "strings"

// NormalizeURL repairs original URLs whose "http://" prefix was collapsed by
// upstream path cleaning ("http:/" or "http:///").
//
// Both substitutions are applied unconditionally and in this order, which
// makes the function idempotent. It is a plain string replacement, so a
// literal "http:/" elsewhere in the URL is rewritten too.
func NormalizeURL(u string) string {
	u = strings.ReplaceAll(u, "http:/", "http://")
	u = strings.ReplaceAll(u, "http:///", "http://")
	return u
}
