// Package workbook reads and writes the Excel workbooks used for data entry.
//
// A loaded workbook is a set of named sheets. The first row of each sheet is
// its header; every following non-blank row becomes a Row keyed by header
// name. Cells are passed through as loosely typed Values: the loader never
// converts text to numbers or dates, that is left to the caller.
package workbook

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"
)

// Kind is the loose type of a cell value.
type Kind int

const (
	KindEmpty Kind = iota
	KindString
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

// Value is a raw cell value as stored in the sheet.
type Value string

// Text returns the value with surrounding whitespace removed.
func (v Value) Text() string { return strings.TrimSpace(string(v)) }

// IsEmpty reports whether the cell is blank after trimming.
func (v Value) IsEmpty() bool { return v.Text() == "" }

// Kind guesses the cell type from its content.
func (v Value) Kind() Kind {
	s := v.Text()
	switch {
	case s == "":
		return KindEmpty
	case isNumber(s):
		return KindNumber
	case isISODate(s):
		return KindDate
	default:
		return KindString
	}
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isISODate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// Row is one data row of a sheet.
type Row struct {
	// Number is the 1-based row number in the sheet, as shown by Excel.
	Number int
	cells  map[string]Value
}

// NewRow builds a row from column/value pairs.
func NewRow(number int, cells map[string]Value) Row {
	return Row{Number: number, cells: cells}
}

// Get returns the cell under column, or an empty value.
func (r Row) Get(column string) Value { return r.cells[column] }

// Sheet is a header-driven table.
type Sheet struct {
	Name    string
	Columns []string
	Rows    []Row
}

// HasColumn reports whether the header row contains column.
func (s *Sheet) HasColumn(column string) bool {
	for _, c := range s.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// MissingColumns returns the columns of want absent from the header row.
func (s *Sheet) MissingColumns(want ...string) []string {
	var missing []string
	for _, c := range want {
		if !s.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Workbook maps sheet names to sheets.
type Workbook struct {
	Name   string
	Sheets map[string]*Sheet
}

// Sheet returns the named sheet.
func (wb *Workbook) Sheet(name string) (*Sheet, bool) {
	s, ok := wb.Sheets[name]
	return s, ok
}

// ErrUnreadable means the stream is not an xlsx workbook excelize can open.
var ErrUnreadable = errors.New("unreadable workbook")

// MissingSheetError reports sheets a caller required that the workbook lacks.
type MissingSheetError struct {
	Workbook string
	Sheets   []string
}

func (e *MissingSheetError) Error() string {
	return fmt.Sprintf("%s: missing sheets: %s", e.Workbook, strings.Join(e.Sheets, ", "))
}

// LoadFile opens path on fs and loads it. See Load.
func LoadFile(fs afero.Fs, path string, required ...string) (*Workbook, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return Load(f, path, required...)
}

// Load reads every sheet of the xlsx stream. If any sheet in required is
// absent it returns a *MissingSheetError.
func Load(r io.Reader, name string, required ...string) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", name, ErrUnreadable, err)
	}
	defer f.Close()

	wb := &Workbook{Name: name, Sheets: make(map[string]*Sheet)}
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%s: read sheet %q: %w", name, sheetName, err)
		}
		wb.Sheets[sheetName] = toSheet(sheetName, rows)
	}

	var missing []string
	for _, s := range required {
		if _, ok := wb.Sheets[s]; !ok {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingSheetError{Workbook: name, Sheets: missing}
	}
	return wb, nil
}

func toSheet(name string, rows [][]string) *Sheet {
	s := &Sheet{Name: name}
	if len(rows) == 0 {
		return s
	}

	s.Columns = make([]string, len(rows[0]))
	for i, h := range rows[0] {
		s.Columns[i] = strings.TrimSpace(h)
	}

	for i, raw := range rows[1:] {
		cells := make(map[string]Value, len(s.Columns))
		blank := true
		for j, col := range s.Columns {
			if col == "" || j >= len(raw) {
				continue
			}
			if _, seen := cells[col]; seen {
				continue
			}
			v := Value(raw[j])
			if !v.IsEmpty() {
				blank = false
			}
			cells[col] = v
		}
		if blank {
			continue
		}
		// +2: header is row 1 and i is zero based
		s.Rows = append(s.Rows, NewRow(i+2, cells))
	}
	return s
}
