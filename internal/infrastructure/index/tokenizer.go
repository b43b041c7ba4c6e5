package index

import (
	"strings"
	"unicode"
)

// Tokenize lower-cases and splits on anything that is not a letter or digit.
// Both the keyword index build and query scoring must run through this exact
// function, otherwise term statistics stop lining up.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}

	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
