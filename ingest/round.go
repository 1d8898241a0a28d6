package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/padraicbc/golfstats/models"
	"github.com/padraicbc/golfstats/workbook"
)

// RoundImport is a validated round workbook. Round.CourseID and Round.TeeID
// are zero until the names are resolved.
type RoundImport struct {
	Round      models.Round
	CourseName string
	TeeName    string
	HoleStats  []models.HoleStat
}

// RoundStore resolves round references and persists round aggregates.
type RoundStore interface {
	ResolveCourse(ctx context.Context, name string) (int, error)
	ResolveTee(ctx context.Context, courseID int, name string) (int, error)
	RoundExists(ctx context.Context, externalID string) (bool, error)
	// CreateRound inserts the round and its hole stats in one transaction,
	// setting the generated ids on imp.
	CreateRound(ctx context.Context, imp *RoundImport) error
}

type roundRecord struct {
	ExternalID  string    `col:"round_external_id" validate:"required"`
	DatePlayed  time.Time `col:"date_played" validate:"-"`
	CourseName  string    `col:"course_name" validate:"required"`
	TeeName     string    `col:"tee_name" validate:"required"`
	HolesPlayed string    `col:"holes_played" validate:"required,enum=holes_played"`
	Conditions  *string   `col:"conditions"`
	RoundType   string    `col:"round_type" validate:"required,enum=round_type"`
	RoundFormat string    `col:"round_format" validate:"required,enum=round_format"`
	Notes       *string   `col:"notes"`
}

type holeStatRecord struct {
	ExternalID       string  `col:"round_external_id"`
	HoleNumber       int     `col:"hole_number" validate:"min=1,max=18"`
	Strokes          int     `col:"strokes" validate:"min=1"`
	Putts            int     `col:"putts" validate:"min=0"`
	TeeShot          *string `col:"tee_shot" validate:"omitempty,enum=tee_shot"`
	Approach         *string `col:"approach" validate:"omitempty,enum=approach"`
	TeeClub          *string `col:"tee_club"`
	ApproachClub     *string `col:"approach_club"`
	BunkerFound      bool    `col:"bunker_found"`
	OutOfBoundsCount int     `col:"out_of_bounds_count" validate:"min=0"`
}

// ValidateRound checks a round workbook and returns the round it describes.
// It stops at the first problem.
func ValidateRound(wb *workbook.Workbook) (*RoundImport, error) {
	rounds, err := sheetFor(wb, roundContract[0])
	if err != nil {
		return nil, err
	}
	holes, err := sheetFor(wb, roundContract[1])
	if err != nil {
		return nil, err
	}

	row, err := exactlyOneRow(rounds)
	if err != nil {
		return nil, err
	}
	r := newRowReader(SheetRounds, row)
	rec := roundRecord{
		ExternalID:  r.text("round_external_id"),
		CourseName:  r.text("course_name"),
		TeeName:     r.text("tee_name"),
		HolesPlayed: r.text("holes_played"),
		Conditions:  r.optText("conditions"),
		RoundType:   r.text("round_type"),
		RoundFormat: r.text("round_format"),
		Notes:       r.optText("notes"),
	}
	// required text fields are reported before a bad date
	if err := checkRecord(SheetRounds, row.Number, &rec); err != nil {
		return nil, err
	}
	rec.DatePlayed = r.requiredDate("date_played")
	if r.err != nil {
		return nil, r.err
	}

	imp := &RoundImport{
		Round: models.Round{
			RoundExternalID: rec.ExternalID,
			DatePlayed:      rec.DatePlayed,
			HolesPlayed:     rec.HolesPlayed,
			Conditions:      rec.Conditions,
			RoundType:       rec.RoundType,
			RoundFormat:     rec.RoundFormat,
			Notes:           rec.Notes,
		},
		CourseName: rec.CourseName,
		TeeName:    rec.TeeName,
	}

	seen := make(map[int]int)
	for _, row := range holes.Rows {
		r := newRowReader(SheetHoleStats, row)
		hs := holeStatRecord{
			ExternalID:       r.text("round_external_id"),
			HoleNumber:       r.requiredInt("hole_number"),
			Strokes:          r.requiredInt("strokes"),
			Putts:            r.requiredInt("putts"),
			TeeShot:          r.optText("tee_shot"),
			Approach:         r.optText("approach"),
			TeeClub:          r.optText("tee_club"),
			ApproachClub:     r.optText("approach_club"),
			BunkerFound:      r.flag("bunker_found"),
			OutOfBoundsCount: r.intOr("out_of_bounds_count", 0),
		}
		if err := firstErr(r.err, checkRecord(SheetHoleStats, row.Number, &hs)); err != nil {
			return nil, err
		}
		if hs.ExternalID != "" && hs.ExternalID != rec.ExternalID {
			return nil, &ValidationError{
				Sheet:  SheetHoleStats,
				Row:    row.Number,
				Field:  "round_external_id",
				Value:  hs.ExternalID,
				Reason: fmt.Sprintf("does not match round %q", rec.ExternalID),
			}
		}
		if lo, hi := holeRange(rec.HolesPlayed); hs.HoleNumber < lo || hs.HoleNumber > hi {
			return nil, &ValidationError{
				Sheet:  SheetHoleStats,
				Row:    row.Number,
				Field:  "hole_number",
				Value:  fmt.Sprint(hs.HoleNumber),
				Reason: fmt.Sprintf("outside the holes played (%s)", rec.HolesPlayed),
			}
		}
		if first, dup := seen[hs.HoleNumber]; dup {
			return nil, duplicate(SheetHoleStats, row.Number, "hole_number", fmt.Sprint(hs.HoleNumber), first)
		}
		seen[hs.HoleNumber] = row.Number

		imp.HoleStats = append(imp.HoleStats, models.HoleStat{
			HoleNumber:       hs.HoleNumber,
			Strokes:          hs.Strokes,
			Putts:            hs.Putts,
			TeeShot:          hs.TeeShot,
			Approach:         hs.Approach,
			TeeClub:          hs.TeeClub,
			ApproachClub:     hs.ApproachClub,
			BunkerFound:      hs.BunkerFound,
			OutOfBoundsCount: hs.OutOfBoundsCount,
		})
	}

	return imp, nil
}

func holeRange(holesPlayed string) (int, int) {
	switch holesPlayed {
	case "Front 9":
		return 1, 9
	case "Back 9":
		return 10, 18
	default:
		return 1, 18
	}
}

// RoundImporter imports round workbooks.
type RoundImporter struct {
	store RoundStore
}

// NewRoundImporter returns an importer resolving against and writing to store.
func NewRoundImporter(store RoundStore) *RoundImporter {
	return &RoundImporter{store: store}
}

func (ri *RoundImporter) Kind() string     { return "round" }
func (ri *RoundImporter) Sheets() []string { return RoundSheets() }

func (ri *RoundImporter) Parse(wb *workbook.Workbook) (*RoundImport, error) {
	return ValidateRound(wb)
}

func (ri *RoundImporter) Key(imp *RoundImport) string { return imp.Round.RoundExternalID }

// Resolve looks up the course and tee by name.
func (ri *RoundImporter) Resolve(ctx context.Context, imp *RoundImport) error {
	courseID, err := ri.store.ResolveCourse(ctx, imp.CourseName)
	if err != nil {
		return err
	}
	teeID, err := ri.store.ResolveTee(ctx, courseID, imp.TeeName)
	var ref *ReferenceNotFoundError
	if errors.As(err, &ref) && ref.Scope == "" {
		ref.Scope = imp.CourseName
	}
	if err != nil {
		return err
	}
	imp.Round.CourseID = courseID
	imp.Round.TeeID = teeID
	return nil
}

func (ri *RoundImporter) Exists(ctx context.Context, imp *RoundImport) (bool, error) {
	return ri.store.RoundExists(ctx, imp.Round.RoundExternalID)
}

func (ri *RoundImporter) Write(ctx context.Context, imp *RoundImport) error {
	return ri.store.CreateRound(ctx, imp)
}

func (ri *RoundImporter) Rows(imp *RoundImport) int {
	return 1 + len(imp.HoleStats)
}
