// Package roster turns uploaded workbooks into canonical student
// records ready for bulk insertion.
package roster

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"sliptrack/internal/models"
)

// ErrBadWorkbook is returned when the uploaded file cannot be opened
// as a spreadsheet. Nothing has been written when it is returned.
var ErrBadWorkbook = errors.New("workbook could not be parsed")

// UnknownName is stamped on rows that carry no recognized name column
const UnknownName = "未知"

// Recognized header aliases, in lookup precedence order. Unrecognized
// columns are ignored.
var (
	nameHeaders  = []string{"姓名", "學生姓名"}
	seatHeaders  = []string{"座號"}
	classHeaders = []string{"班級"}
	clubHeaders  = []string{"社團", "社團名稱", "類別"}
)

// StudentID derives the stable document id for the entry at the given
// position in the flattened import sequence
func StudentID(receiptID string, index int) string {
	return fmt.Sprintf("s_%s_%d", receiptID, index)
}

// NormalizeWorkbook parses an uploaded .xlsx stream and returns one
// Student per data row, flattened across sheets in (sheet order, row
// order). The first row of each sheet is treated as the header row.
// A workbook with no usable rows yields an empty slice and no error.
func NormalizeWorkbook(r io.Reader, ownerID int64, receiptID string) ([]models.Student, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadWorkbook, err)
	}
	defer f.Close()

	var entries []models.Student
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
		}
		if len(rows) < 2 {
			continue
		}

		headers := headerIndex(rows[0])
		position := 0
		for _, row := range rows[1:] {
			if blankRow(row) {
				continue
			}
			// Position counts usable rows only, so interior blank rows
			// do not shift the seat fallback.
			position++
			entry := normalizeRow(headers, row, sheetName, position)
			entry.OwnerID = ownerID
			entry.ReceiptID = receiptID
			entry.ID = StudentID(receiptID, len(entries))
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// normalizeRow applies the per-row rules. position is the 1-based data
// row position within its sheet, used as the seat fallback.
func normalizeRow(headers map[string]int, row []string, sheetName string, position int) models.Student {
	name := strings.TrimSpace(lookup(headers, row, nameHeaders))
	if name == "" {
		name = UnknownName
	}

	seat := strings.TrimSpace(lookup(headers, row, seatHeaders))
	if seat == "" {
		seat = strconv.Itoa(position)
	}
	seat = padSeat(seat)

	rawClass := strings.TrimSpace(lookup(headers, row, classHeaders))

	finalNo := seat
	groupLabel := rawClass
	if club := strings.TrimSpace(lookup(headers, row, clubHeaders)); club != "" {
		// Club mode: the club becomes the group and the class is
		// folded into the sequence label so it stays visible.
		groupLabel = club
		if rawClass != "" {
			finalNo = rawClass + "-" + seat
		}
	} else if groupLabel == "" {
		groupLabel = strings.TrimSpace(sheetName)
	}

	return models.Student{
		Class:  groupLabel,
		No:     finalNo,
		Name:   name,
		IsDone: false,
		Note:   "",
	}
}

// headerIndex maps trimmed header names to their column index
func headerIndex(headerRow []string) map[string]int {
	idx := make(map[string]int, len(headerRow))
	for i, h := range headerRow {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

// lookup returns the first non-empty cell among the candidate headers
func lookup(headers map[string]int, row []string, candidates []string) string {
	for _, key := range candidates {
		col, ok := headers[key]
		if !ok || col >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[col]); v != "" {
			return v
		}
	}
	return ""
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// padSeat left-pads a seat value with '0' to width 2
func padSeat(seat string) string {
	if len(seat) < 2 {
		return strings.Repeat("0", 2-len(seat)) + seat
	}
	return seat
}
