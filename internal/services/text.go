package services

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeText trims s, converts CRLF to LF and applies NFC so equal text
// from different clients is stored identically.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return norm.NFC.String(strings.TrimSpace(s))
}

// normalizeNotes is normalizeText for optional notes; blank becomes nil.
func normalizeNotes(s *string) *string {
	if s == nil {
		return nil
	}
	n := normalizeText(*s)
	if n == "" {
		return nil
	}
	return &n
}
