// Package redact masks credential values in text that may reach logs or users.
package redact

import "strings"

// Mask replaces redacted values.
const Mask = "***"

// Secrets replaces every non-empty secret in s with Mask.
func Secrets(s string, secrets ...string) string {
	for _, sec := range secrets {
		sec = strings.TrimSpace(sec)
		if sec == "" {
			continue
		}
		s = strings.ReplaceAll(s, sec, Mask)
	}
	return s
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
