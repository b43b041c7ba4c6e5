package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// fromXLSX flattens every sheet to lines of space-joined cells. Safety
// checklists and incident registers usually arrive as spreadsheets.
func fromXLSX(raw []byte) (string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer file.Close()

	var lines []string
	for _, sheet := range file.GetSheetList() {
		rows, err := file.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
