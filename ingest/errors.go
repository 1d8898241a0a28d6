package ingest

import (
	"errors"
	"fmt"

	"github.com/padraicbc/golfstats/workbook"
)

// ErrAlreadyExists means the aggregate's natural key is already stored.
// The pipeline treats it as a skip, not a failure.
var ErrAlreadyExists = errors.New("already exists")

// ErrNoInput is returned by Run when no file matches the input pattern.
var ErrNoInput = errors.New("no input files")

// MissingSheetError is returned when a required sheet is absent.
type MissingSheetError = workbook.MissingSheetError

// ValidationError describes the first structural or value problem found in
// a workbook. Row is the spreadsheet row number, zero when the problem is
// with the sheet as a whole.
type ValidationError struct {
	Sheet  string
	Row    int
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	msg := e.Sheet
	if e.Row > 0 {
		msg += fmt.Sprintf(" row %d", e.Row)
	}
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Value != "" {
		msg += fmt.Sprintf(" %q", e.Value)
	}
	return msg + ": " + e.Reason
}

// ReferenceNotFoundError reports a course or tee named by the input that
// does not exist.
type ReferenceNotFoundError struct {
	Kind string
	Name string
	// Scope names the enclosing course for tee lookups.
	Scope string
}

func (e *ReferenceNotFoundError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("%s not found: %s for course %s", e.Kind, e.Name, e.Scope)
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}
