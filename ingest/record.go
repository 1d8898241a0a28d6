package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/padraicbc/golfstats/workbook"
)

// dateLayouts are the text forms accepted for date cells, besides Excel
// serial numbers.
var dateLayouts = []string{
	time.DateOnly,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// rowReader coerces the cells of one row into typed values. The first
// failure is kept in err and later reads become no-ops, so a record can be
// read field by field and checked once.
type rowReader struct {
	sheet string
	row   workbook.Row
	err   error
}

func newRowReader(sheet string, row workbook.Row) *rowReader {
	return &rowReader{sheet: sheet, row: row}
}

func (r *rowReader) fail(col, value, reason string) {
	if r.err == nil {
		r.err = &ValidationError{Sheet: r.sheet, Row: r.row.Number, Field: col, Value: value, Reason: reason}
	}
}

// text returns the trimmed cell text, empty if blank.
func (r *rowReader) text(col string) string {
	return r.row.Get(col).Text()
}

// optText returns nil for blank cells.
func (r *rowReader) optText(col string) *string {
	s := r.text(col)
	if s == "" {
		return nil
	}
	return &s
}

func (r *rowReader) requiredInt(col string) int {
	if r.err != nil {
		return 0
	}
	v := r.row.Get(col)
	if v.IsEmpty() {
		r.fail(col, "", "is required")
		return 0
	}
	n, ok := parseWhole(v.Text())
	if !ok {
		r.fail(col, v.Text(), "must be a whole number")
	}
	return n
}

// optInt returns nil for blank cells.
func (r *rowReader) optInt(col string) *int {
	if r.err != nil || r.row.Get(col).IsEmpty() {
		return nil
	}
	n := r.requiredInt(col)
	if r.err != nil {
		return nil
	}
	return &n
}

func (r *rowReader) intOr(col string, def int) int {
	if n := r.optInt(col); n != nil {
		return *n
	}
	return def
}

func (r *rowReader) optDecimal(col string) decimal.NullDecimal {
	v := r.row.Get(col)
	if r.err != nil || v.IsEmpty() {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(v.Text())
	if err != nil {
		r.fail(col, v.Text(), "must be a number")
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func (r *rowReader) requiredDate(col string) time.Time {
	if r.err != nil {
		return time.Time{}
	}
	v := r.row.Get(col)
	if v.IsEmpty() {
		r.fail(col, "", "is required")
		return time.Time{}
	}
	t, ok := parseDate(v)
	if !ok {
		r.fail(col, v.Text(), "must be a date (YYYY-MM-DD)")
	}
	return t
}

func (r *rowReader) flag(col string) bool {
	if r.err != nil {
		return false
	}
	v := r.row.Get(col)
	if v.IsEmpty() {
		return false
	}
	switch strings.ToLower(v.Text()) {
	case "1", "1.0", "true", "yes", "y", "x":
		return true
	case "0", "0.0", "false", "no", "n":
		return false
	}
	r.fail(col, v.Text(), "must be 0/1, true/false or yes/no")
	return false
}

// parseWhole accepts integers and integral floats ("4", "4.0"), which is how
// Excel hands back numbers typed into a cell.
func parseWhole(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		if n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func parseDate(v workbook.Value) (time.Time, bool) {
	s := v.Text()
	if v.Kind() == workbook.KindNumber {
		serial, _ := strconv.ParseFloat(s, 64)
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return truncateDay(t), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), true
		}
	}
	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
