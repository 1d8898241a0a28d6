package ingest

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/padraicbc/golfstats/models"
	"github.com/padraicbc/golfstats/workbook"
)

// TeeYardage is a tee_holes row. The tee is referenced by name because its
// id only exists once the tee has been inserted.
type TeeYardage struct {
	TeeName    string
	HoleNumber int
	Yardage    int
}

// CourseImport is a validated course workbook.
type CourseImport struct {
	Course   models.Course
	Tees     []models.Tee
	Holes    []models.Hole
	TeeHoles []TeeYardage
}

// CourseStore persists course aggregates.
type CourseStore interface {
	CourseExists(ctx context.Context, name string) (bool, error)
	// CreateCourse inserts the course with its tees, holes and yardages in
	// one transaction, setting the generated ids on imp.
	CreateCourse(ctx context.Context, imp *CourseImport) error
}

type courseRecord struct {
	Name     string  `col:"course_name" validate:"required"`
	Location *string `col:"location"`
	Notes    *string `col:"notes"`
}

type teeRecord struct {
	Name         string              `col:"tee_name" validate:"required"`
	CourseRating decimal.NullDecimal `col:"course_rating" validate:"-"`
	SlopeRating  *int                `col:"slope_rating" validate:"omitempty,min=55,max=155"`
	Yardage      *int                `col:"yardage_total" validate:"omitempty,min=1"`
}

type holeRecord struct {
	HoleNumber int `col:"hole_number" validate:"min=1,max=18"`
	Par        int `col:"par" validate:"min=1,max=7"`
}

type teeHoleRecord struct {
	TeeName    string `col:"tee_name" validate:"required"`
	HoleNumber int    `col:"hole_number" validate:"min=1,max=18"`
	Yardage    int    `col:"yardage" validate:"min=1"`
}

// ValidateCourse checks a course workbook and returns the course it
// describes. It stops at the first problem.
func ValidateCourse(wb *workbook.Workbook) (*CourseImport, error) {
	sheets := make(map[string]*workbook.Sheet, len(courseContract))
	for _, c := range courseContract {
		s, err := sheetFor(wb, c)
		if err != nil {
			return nil, err
		}
		sheets[c.name] = s
	}

	row, err := exactlyOneRow(sheets[SheetCourse])
	if err != nil {
		return nil, err
	}
	r := newRowReader(SheetCourse, row)
	course := courseRecord{
		Name:     r.text("course_name"),
		Location: r.optText("location"),
		Notes:    r.optText("notes"),
	}
	if err := checkRecord(SheetCourse, row.Number, &course); err != nil {
		return nil, err
	}

	imp := &CourseImport{
		Course: models.Course{CourseName: course.Name, Location: course.Location, Notes: course.Notes},
	}

	teeRows := make(map[string]int)
	for _, row := range sheets[SheetTees].Rows {
		r := newRowReader(SheetTees, row)
		tee := teeRecord{
			Name:         r.text("tee_name"),
			CourseRating: r.optDecimal("course_rating"),
			SlopeRating:  r.optInt("slope_rating"),
			Yardage:      r.optInt("yardage_total"),
		}
		if err := firstErr(r.err, checkRecord(SheetTees, row.Number, &tee)); err != nil {
			return nil, err
		}
		if first, dup := teeRows[tee.Name]; dup {
			return nil, duplicate(SheetTees, row.Number, "tee_name", tee.Name, first)
		}
		teeRows[tee.Name] = row.Number
		imp.Tees = append(imp.Tees, models.Tee{
			TeeName:      tee.Name,
			CourseRating: tee.CourseRating,
			SlopeRating:  tee.SlopeRating,
			Yardage:      tee.Yardage,
		})
	}

	holeRows := make(map[int]int)
	for _, row := range sheets[SheetHoles].Rows {
		r := newRowReader(SheetHoles, row)
		hole := holeRecord{
			HoleNumber: r.requiredInt("hole_number"),
			Par:        r.requiredInt("par"),
		}
		if err := firstErr(r.err, checkRecord(SheetHoles, row.Number, &hole)); err != nil {
			return nil, err
		}
		if first, dup := holeRows[hole.HoleNumber]; dup {
			return nil, duplicate(SheetHoles, row.Number, "hole_number", fmt.Sprint(hole.HoleNumber), first)
		}
		holeRows[hole.HoleNumber] = row.Number
		imp.Holes = append(imp.Holes, models.Hole{HoleNumber: hole.HoleNumber, Par: hole.Par})
	}

	type teeHoleKey struct {
		tee  string
		hole int
	}
	teeHoleRows := make(map[teeHoleKey]int)
	for _, row := range sheets[SheetTeeHoles].Rows {
		r := newRowReader(SheetTeeHoles, row)
		th := teeHoleRecord{
			TeeName:    r.text("tee_name"),
			HoleNumber: r.requiredInt("hole_number"),
			Yardage:    r.requiredInt("yardage"),
		}
		if err := firstErr(r.err, checkRecord(SheetTeeHoles, row.Number, &th)); err != nil {
			return nil, err
		}
		if _, ok := teeRows[th.TeeName]; !ok {
			return nil, &ValidationError{Sheet: SheetTeeHoles, Row: row.Number, Field: "tee_name", Value: th.TeeName, Reason: "not listed in the tees sheet"}
		}
		if _, ok := holeRows[th.HoleNumber]; !ok {
			return nil, &ValidationError{Sheet: SheetTeeHoles, Row: row.Number, Field: "hole_number", Value: fmt.Sprint(th.HoleNumber), Reason: "not listed in the holes sheet"}
		}
		key := teeHoleKey{th.TeeName, th.HoleNumber}
		if first, dup := teeHoleRows[key]; dup {
			return nil, duplicate(SheetTeeHoles, row.Number, "tee_name/hole_number", fmt.Sprintf("%s/%d", th.TeeName, th.HoleNumber), first)
		}
		teeHoleRows[key] = row.Number
		imp.TeeHoles = append(imp.TeeHoles, TeeYardage(th))
	}

	return imp, nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func duplicate(sheet string, row int, field, value string, firstRow int) error {
	return &ValidationError{
		Sheet:  sheet,
		Row:    row,
		Field:  field,
		Value:  value,
		Reason: fmt.Sprintf("duplicate of row %d", firstRow),
	}
}

// CourseImporter imports course workbooks.
type CourseImporter struct {
	store CourseStore
}

// NewCourseImporter returns an importer writing to store.
func NewCourseImporter(store CourseStore) *CourseImporter {
	return &CourseImporter{store: store}
}

func (c *CourseImporter) Kind() string     { return "course" }
func (c *CourseImporter) Sheets() []string { return CourseSheets() }

func (c *CourseImporter) Parse(wb *workbook.Workbook) (*CourseImport, error) {
	return ValidateCourse(wb)
}

func (c *CourseImporter) Key(imp *CourseImport) string { return imp.Course.CourseName }

// Resolve is a no-op: a course import references nothing outside itself.
func (c *CourseImporter) Resolve(context.Context, *CourseImport) error { return nil }

func (c *CourseImporter) Exists(ctx context.Context, imp *CourseImport) (bool, error) {
	return c.store.CourseExists(ctx, imp.Course.CourseName)
}

func (c *CourseImporter) Write(ctx context.Context, imp *CourseImport) error {
	return c.store.CreateCourse(ctx, imp)
}

func (c *CourseImporter) Rows(imp *CourseImport) int {
	return 1 + len(imp.Tees) + len(imp.Holes) + len(imp.TeeHoles)
}
