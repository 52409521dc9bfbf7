package models

import "strings"

const keyPrefix = "udyam:rl:"

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// so that a client-controlled value containing ':' cannot address another bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// ClientKey is the bucket key for one client on one route.
func ClientKey(route, clientIP string) string {
	return keyPrefix + SanitizeKeySegment(route) + ":" + SanitizeKeySegment(clientIP)
}
