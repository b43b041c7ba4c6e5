package extractor

import (
	"fmt"
	"unicode/utf8"
)

func fromPlainText(raw []byte, filename string) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("not valid utf-8 text: %s", filename)
	}
	return string(raw), nil
}
