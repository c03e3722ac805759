package parser

import "strings"

// IsBoundary reports whether tok looks like a clock time ("10:05 AM",
// "1:20 PM+1"), which is where a new observation block starts.
// An overnight "+N" suffix is ignored. Tokens shorter than two bytes are
// never boundaries.
func IsBoundary(tok string) bool {
	if len(tok) < 2 {
		return false
	}
	if tok[len(tok)-2] == '+' {
		tok = tok[:len(tok)-2]
	}
	return strings.HasSuffix(tok, "AM") || strings.HasSuffix(tok, "PM")
}
