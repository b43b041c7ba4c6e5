package extractor

import "testing"

func TestCleanTextRemovesArtifacts(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"page markers",
			"Safety rules Page 12 continue here",
			"Safety rules continue here",
		},
		{
			"page of page",
			"Wear a helmet 3 of 17 at all times",
			"Wear a helmet at all times",
		},
		{
			"urls and emails",
			"See https://example.com/rules or write safety@example.com today",
			"See or write today",
		},
		{
			"leader dots and rules",
			"Section 4 .......... 12 ----- end",
			"Section 4 . 12 - end",
		},
		{
			"whitespace collapse",
			"  line one\n\n\tline   two  ",
			"line one line two",
		},
		{
			"empty input",
			"",
			"",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanText(tc.in); got != tc.want {
				t.Fatalf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
