// Package common holds small helpers shared by the commands and stores.
package common

import (
	"path/filepath"
	"strings"
)

// AccountIdentifier is an account id and where it came from.
type AccountIdentifier struct {
	ID     string
	Source string // "flag", "config" or "filename"
}

// ResolveAccount picks the account for an import: the explicit value, then
// the configured default, then the sanitized input file name.
func ResolveAccount(explicit, configured, inputFile string) AccountIdentifier {
	if id := strings.TrimSpace(explicit); id != "" {
		return AccountIdentifier{ID: SanitizeAccountID(id), Source: "flag"}
	}
	if id := strings.TrimSpace(configured); id != "" {
		return AccountIdentifier{ID: SanitizeAccountID(id), Source: "config"}
	}
	base := filepath.Base(inputFile)
	return AccountIdentifier{
		ID:     SanitizeAccountID(strings.TrimSuffix(base, filepath.Ext(base))),
		Source: "filename",
	}
}

// SanitizeAccountID keeps letters, digits, '_', '-' and '.', replacing
// everything else with '_'. Path traversal sequences are removed.
func SanitizeAccountID(accountID string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(accountID) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	sanitized := b.String()

	for strings.Contains(sanitized, "..") {
		sanitized = strings.ReplaceAll(sanitized, "..", "_")
	}
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_.")

	if sanitized == "" || sanitized == "-" {
		return "UNKNOWN"
	}
	return sanitized
}
