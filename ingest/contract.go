package ingest

import (
	"strconv"

	"github.com/padraicbc/golfstats/workbook"
)

// Sheet names.
const (
	SheetCourse    = "course"
	SheetTees      = "tees"
	SheetHoles     = "holes"
	SheetTeeHoles  = "tee_holes"
	SheetRounds    = "rounds"
	SheetHoleStats = "hole_stats"
)

// Fixed enumerations, keyed by the column they constrain.
var enumerations = map[string][]string{
	"holes_played": {"Front 9", "Back 9", "18"},
	"round_type":   {"Practice", "Tournament", "Casual"},
	"round_format": {"Stroke", "Match", "Scramble", "Other"},
	"tee_shot": {
		"Fairway", "Left", "Right", "Short", "Long",
		"Out Left", "Out Right", "Out Short", "Out Long",
		"Bunker Left", "Bunker Right", "Bunker Short", "Bunker Long",
		"Green",
	},
	"approach": {
		"Green", "Left", "Right", "Short", "Long",
		"Out Left", "Out Right", "Out Short", "Out Long",
		"Bunker Left", "Bunker Right", "Bunker Short", "Bunker Long",
		"N/A",
	},
}

// Allowed returns the permitted values of an enumerated column.
func Allowed(column string) []string {
	return enumerations[column]
}

type sheetContract struct {
	name     string
	columns  []string
	required []string
}

var courseContract = []sheetContract{
	{SheetCourse, []string{"course_name", "location", "notes"}, []string{"course_name"}},
	{SheetTees, []string{"tee_name", "course_rating", "slope_rating", "yardage_total"}, []string{"tee_name"}},
	{SheetHoles, []string{"hole_number", "par"}, []string{"hole_number", "par"}},
	{SheetTeeHoles, []string{"tee_name", "hole_number", "yardage"}, []string{"tee_name", "hole_number", "yardage"}},
}

var roundContract = []sheetContract{
	{
		SheetRounds,
		[]string{"round_external_id", "date_played", "course_name", "tee_name", "holes_played", "conditions", "round_type", "round_format", "notes"},
		[]string{"round_external_id", "date_played", "course_name", "tee_name", "holes_played", "round_type", "round_format"},
	},
	{
		SheetHoleStats,
		[]string{"round_external_id", "hole_number", "strokes", "putts", "tee_shot", "approach", "tee_club", "approach_club", "bunker_found", "out_of_bounds_count"},
		[]string{"round_external_id", "hole_number", "strokes", "putts"},
	},
}

func sheetNames(contract []sheetContract) []string {
	names := make([]string, len(contract))
	for i, c := range contract {
		names[i] = c.name
	}
	return names
}

// CourseSheets lists the sheets a course workbook must contain.
func CourseSheets() []string { return sheetNames(courseContract) }

// RoundSheets lists the sheets a round workbook must contain.
func RoundSheets() []string { return sheetNames(roundContract) }

func templateSheets(contract []sheetContract, examples map[string][][]interface{}) []workbook.SheetSpec {
	specs := make([]workbook.SheetSpec, len(contract))
	for i, c := range contract {
		cols := make([]workbook.Column, len(c.columns))
		for j, name := range c.columns {
			cols[j] = workbook.Column{Name: name, Choices: enumerations[name]}
		}
		specs[i] = workbook.SheetSpec{Name: c.name, Columns: cols, Rows: examples[c.name]}
	}
	return specs
}

// CourseTemplate describes the course import workbook with one example course.
func CourseTemplate() []workbook.SheetSpec {
	holes := make([][]interface{}, 0, 18)
	for n := 1; n <= 18; n++ {
		holes = append(holes, []interface{}{n, 4})
	}
	return templateSheets(courseContract, map[string][][]interface{}{
		SheetCourse: {{"Pine Valley Golf Club", "Pine Valley, NJ", "Private, very tough"}},
		SheetTees: {
			{"Blue", 71.2, 128, 6900},
			{"White", 69.5, 122, 6400},
			{"Red", 67.8, 115, 5900},
		},
		SheetHoles: holes,
		SheetTeeHoles: {
			{"Blue", 1, 410},
			{"Blue", 2, 390},
			{"White", 1, 380},
			{"White", 2, 365},
		},
	})
}

// RoundTemplate describes the round import workbook with one example hole.
func RoundTemplate() []workbook.SheetSpec {
	specs := templateSheets(roundContract, map[string][][]interface{}{
		SheetRounds: {{
			"2026-02-08-PineValley", "2026-02-08", "Pine Valley Golf Club", "Blue",
			"18", "Sunny, light wind", "Practice", "Stroke", "Felt good off the tee",
		}},
		SheetHoleStats: {{"2026-02-08-PineValley", 1, 4, 2, "Fairway", "Green", "Driver", "7i", 0, 0}},
	})
	// hole numbers get a drop-down too
	holeNumbers := make([]string, 18)
	for i := range holeNumbers {
		holeNumbers[i] = strconv.Itoa(i + 1)
	}
	for i := range specs[1].Columns {
		if specs[1].Columns[i].Name == "hole_number" {
			specs[1].Columns[i].Choices = holeNumbers
		}
	}
	return specs
}
