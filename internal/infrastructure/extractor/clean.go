package extractor

import (
	"regexp"
	"strings"
)

var (
	pageMarkerPattern = regexp.MustCompile(`\bPage\s+\d+\b`)
	pageOfPattern     = regexp.MustCompile(`\b\d+\s+of\s+\d+\b`)
	urlPattern        = regexp.MustCompile(`http\S+`)
	emailPattern      = regexp.MustCompile(`\S+@\S+`)
	repeatedDots      = regexp.MustCompile(`\.{2,}`)
	repeatedHyphens   = regexp.MustCompile(`-{2,}`)
	whitespaceRuns    = regexp.MustCompile(`\s+`)
)

// CleanText strips the usual PDF artifacts: page markers, URLs, email
// addresses, leader dots and hyphen rules, then collapses whitespace.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = pageMarkerPattern.ReplaceAllString(text, "")
	text = pageOfPattern.ReplaceAllString(text, "")
	text = urlPattern.ReplaceAllString(text, "")
	text = emailPattern.ReplaceAllString(text, "")

	text = repeatedDots.ReplaceAllString(text, ".")
	text = repeatedHyphens.ReplaceAllString(text, "-")

	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(text, " "))
}
