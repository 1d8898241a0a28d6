package ingest

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/padraicbc/golfstats/workbook"
)

// Records carry a `col` tag naming their spreadsheet column so validator
// errors can point at the offending cell.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("col"); name != "" {
			return name
		}
		return f.Name
	})
	// enum=<column> checks the value against that column's fixed enumeration
	_ = v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		for _, allowed := range enumerations[fl.Param()] {
			if fl.Field().String() == allowed {
				return true
			}
		}
		return false
	})
	return v
}

// checkRecord runs struct validation on rec and converts the first failure
// into a *ValidationError for the given sheet row.
func checkRecord(sheet string, row int, rec interface{}) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	fe := verrs[0]
	return &ValidationError{
		Sheet:  sheet,
		Row:    row,
		Field:  fe.Field(),
		Value:  valueString(fe.Value()),
		Reason: reason(fe),
	}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "enum":
		return "must be one of: " + strings.Join(enumerations[fe.Param()], ", ")
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

func valueString(v interface{}) string {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return ""
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	return fmt.Sprint(rv.Interface())
}

// sheetFor fetches the contract's sheet and checks its header carries every
// required column.
func sheetFor(wb *workbook.Workbook, c sheetContract) (*workbook.Sheet, error) {
	s, ok := wb.Sheet(c.name)
	if !ok {
		return nil, &MissingSheetError{Workbook: wb.Name, Sheets: []string{c.name}}
	}
	if missing := s.MissingColumns(c.required...); len(missing) > 0 {
		return nil, &ValidationError{
			Sheet:  c.name,
			Field:  strings.Join(missing, ", "),
			Reason: "missing required columns",
		}
	}
	return s, nil
}

func exactlyOneRow(s *workbook.Sheet) (workbook.Row, error) {
	if len(s.Rows) != 1 {
		return workbook.Row{}, &ValidationError{
			Sheet:  s.Name,
			Reason: fmt.Sprintf("must contain exactly 1 row, found %d", len(s.Rows)),
		}
	}
	return s.Rows[0], nil
}
