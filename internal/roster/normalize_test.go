package roster

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

type sheetDef struct {
	name string
	rows [][]interface{}
}

// buildWorkbook writes an in-memory .xlsx with the given sheets
func buildWorkbook(t *testing.T, sheets []sheetDef) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				t.Fatalf("failed to rename sheet: %v", err)
			}
		} else {
			if _, err := f.NewSheet(sheet.name); err != nil {
				t.Fatalf("failed to add sheet: %v", err)
			}
		}
		for r, row := range sheet.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("failed to build cell name: %v", err)
			}
			if err := f.SetSheetRow(sheet.name, cell, &row); err != nil {
				t.Fatalf("failed to write row: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("failed to serialize workbook: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestNormalizeWorkbookClassMode(t *testing.T) {
	wb := buildWorkbook(t, []sheetDef{
		{
			name: "101",
			rows: [][]interface{}{
				{"姓名"},
				{"陳大文"},
				{"林小美"},
				{"張志明"},
			},
		},
	})

	entries, err := NormalizeWorkbook(wb, 7, "r_1")
	if err != nil {
		t.Fatalf("NormalizeWorkbook() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	wantNos := []string{"01", "02", "03"}
	for i, e := range entries {
		if e.Class != "101" {
			t.Errorf("entry %d: class = %q, want %q", i, e.Class, "101")
		}
		if e.No != wantNos[i] {
			t.Errorf("entry %d: no = %q, want %q", i, e.No, wantNos[i])
		}
		if e.IsDone {
			t.Errorf("entry %d: isDone should default to false", i)
		}
		if e.Note != "" {
			t.Errorf("entry %d: note should default to empty", i)
		}
		if e.ReceiptID != "r_1" || e.OwnerID != 7 {
			t.Errorf("entry %d: not stamped with owner/receipt: %+v", i, e)
		}
	}
	if entries[0].ID != "s_r_1_0" || entries[2].ID != "s_r_1_2" {
		t.Errorf("ids not derived from receipt and index: %q, %q", entries[0].ID, entries[2].ID)
	}
}

func TestNormalizeWorkbookClubMode(t *testing.T) {
	wb := buildWorkbook(t, []sheetDef{
		{
			name: "社團名單",
			rows: [][]interface{}{
				{"班級", "座號", "姓名", "社團"},
				{"203", "7", "王小明", "合唱團"},
				{"", "12", "李小華", "合唱團"},
			},
		},
	})

	entries, err := NormalizeWorkbook(wb, 1, "r_2")
	if err != nil {
		t.Fatalf("NormalizeWorkbook() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	if entries[0].Class != "合唱團" {
		t.Errorf("class = %q, want club name", entries[0].Class)
	}
	if entries[0].No != "203-07" {
		t.Errorf("no = %q, want %q", entries[0].No, "203-07")
	}
	// no class column value: sequence label stays a bare seat
	if entries[1].No != "12" {
		t.Errorf("no = %q, want %q", entries[1].No, "12")
	}
}

func TestNormalizeWorkbookSheetNameFallback(t *testing.T) {
	wb := buildWorkbook(t, []sheetDef{
		{
			name: "資訊研究社",
			rows: [][]interface{}{
				{"姓名", "座號"},
				{"黃小強", "3"},
			},
		},
	})

	entries, err := NormalizeWorkbook(wb, 1, "r_3")
	if err != nil {
		t.Fatalf("NormalizeWorkbook() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Class != "資訊研究社" {
		t.Errorf("class = %q, want sheet name fallback", entries[0].Class)
	}
	if entries[0].No != "03" {
		t.Errorf("no = %q, want padded explicit seat %q", entries[0].No, "03")
	}
}

func TestNormalizeWorkbookDefaults(t *testing.T) {
	wb := buildWorkbook(t, []sheetDef{
		{
			name: "102",
			rows: [][]interface{}{
				{"班級", "備註欄"},
				{"102", "ignored"},
			},
		},
	})

	entries, err := NormalizeWorkbook(wb, 1, "r_4")
	if err != nil {
		t.Fatalf("NormalizeWorkbook() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Name != UnknownName {
		t.Errorf("name = %q, want %q", entries[0].Name, UnknownName)
	}
}

func TestNormalizeWorkbookFlattensSheets(t *testing.T) {
	wb := buildWorkbook(t, []sheetDef{
		{
			name: "101",
			rows: [][]interface{}{
				{"姓名"},
				{"甲"},
				{"乙"},
			},
		},
		{
			name: "102",
			rows: [][]interface{}{
				{"姓名"},
				{"丙"},
			},
		},
	})

	entries, err := NormalizeWorkbook(wb, 1, "r_5")
	if err != nil {
		t.Fatalf("NormalizeWorkbook() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[2].Class != "102" || entries[2].ID != "s_r_5_2" {
		t.Errorf("flattened order broken: %+v", entries[2])
	}
	// row position resets per sheet
	if entries[2].No != "01" {
		t.Errorf("no = %q, want %q", entries[2].No, "01")
	}
}

func TestNormalizeWorkbookSkipsBlankRowsWithoutShiftingSeats(t *testing.T) {
	wb := buildWorkbook(t, []sheetDef{
		{
			name: "101",
			rows: [][]interface{}{
				{"姓名"},
				{"甲"},
				{""},
				{"乙"},
			},
		},
	})

	entries, err := NormalizeWorkbook(wb, 1, "r_8")
	if err != nil {
		t.Fatalf("NormalizeWorkbook() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	// The row after an interior blank is the second usable row
	if entries[1].No != "02" {
		t.Errorf("no = %q, want %q", entries[1].No, "02")
	}
}

func TestNormalizeWorkbookEmpty(t *testing.T) {
	wb := buildWorkbook(t, []sheetDef{
		{name: "空白", rows: [][]interface{}{{"姓名"}}},
	})

	entries, err := NormalizeWorkbook(wb, 1, "r_6")
	if err != nil {
		t.Fatalf("NormalizeWorkbook() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestNormalizeWorkbookBadFile(t *testing.T) {
	_, err := NormalizeWorkbook(strings.NewReader("not a spreadsheet"), 1, "r_7")
	if !errors.Is(err, ErrBadWorkbook) {
		t.Errorf("error = %v, want ErrBadWorkbook", err)
	}
}

func TestPadSeat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "01"},
		{"9", "09"},
		{"10", "10"},
		{"123", "123"},
	}
	for _, tt := range tests {
		if got := padSeat(tt.in); got != tt.want {
			t.Errorf("padSeat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
