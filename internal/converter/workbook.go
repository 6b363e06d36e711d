package converter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/nconklindev/sheetdrop/internal/types"

	"github.com/xuri/excelize/v2"
)

const RowDetectionLimit = 10

// Summarize reads a converted workbook from memory and reports its sheets,
// row counts and detected header rows.
func Summarize(data []byte) (*types.WorkbookSummary, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	summary := &types.WorkbookSummary{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", name, err)
		}

		sheet := types.SheetSummary{
			Name:      name,
			Rows:      len(rows),
			HeaderRow: findHeaderRow(rows),
		}
		if sheet.HeaderRow >= 0 {
			sheet.Headers = rows[sheet.HeaderRow]
		}
		summary.Sheets = append(summary.Sheets, sheet)
	}

	return summary, nil
}

// findHeaderRow locates the first row that appears to be a header
// by finding the row with the most non-empty text cells
func findHeaderRow(rows [][]string) int {
	maxNonEmpty := 0
	headerIdx := -1

	// Look at first 20 rows max
	searchLimit := len(rows)
	if searchLimit > RowDetectionLimit*2 {
		searchLimit = RowDetectionLimit * 2
	}

	for i := 0; i < searchLimit; i++ {
		nonEmptyCount := 0
		hasText := false

		for _, cell := range rows[i] {
			trimmed := strings.TrimSpace(cell)
			if trimmed != "" {
				nonEmptyCount++
				if containsLetters(trimmed) {
					hasText = true
				}
			}
		}

		// Header should have multiple columns AND contain text
		if nonEmptyCount >= 2 && hasText && nonEmptyCount > maxNonEmpty {
			maxNonEmpty = nonEmptyCount
			headerIdx = i
		}
	}

	return headerIdx
}

// containsLetters checks if a string contains any alphabetic characters
func containsLetters(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
