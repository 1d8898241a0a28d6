package workbook

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teeSheets() []SheetSpec {
	return []SheetSpec{
		{
			Name:    "tees",
			Columns: []Column{{Name: "tee_name"}, {Name: "course_rating"}, {Name: "slope_rating"}},
			Rows: [][]interface{}{
				{"Blue", 71.2, 128},
				{nil, nil, nil},
				{" White ", 69.5, 122},
			},
		},
		{
			Name:    "rounds",
			Columns: []Column{{Name: "round_type", Choices: []string{"Practice", "Tournament", "Casual"}}, {Name: "date_played"}},
			Rows:    [][]interface{}{{"Practice", "2026-02-08"}},
		},
	}
}

func writeBytes(t *testing.T, sheets []SheetSpec) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sheets))
	return buf.Bytes()
}

func TestLoad_RoundTrip(t *testing.T) {
	wb, err := Load(bytes.NewReader(writeBytes(t, teeSheets())), "tees.xlsx", "tees", "rounds")
	require.NoError(t, err)

	tees, ok := wb.Sheet("tees")
	require.True(t, ok)
	assert.Equal(t, []string{"tee_name", "course_rating", "slope_rating"}, tees.Columns)

	// the blank row is dropped, row numbers still match the sheet
	require.Len(t, tees.Rows, 2)
	assert.Equal(t, 2, tees.Rows[0].Number)
	assert.Equal(t, 4, tees.Rows[1].Number)

	assert.Equal(t, "Blue", tees.Rows[0].Get("tee_name").Text())
	assert.Equal(t, "White", tees.Rows[1].Get("tee_name").Text())
	assert.Equal(t, KindNumber, tees.Rows[0].Get("course_rating").Kind())
	assert.Equal(t, "128", tees.Rows[0].Get("slope_rating").Text())
	assert.True(t, tees.Rows[0].Get("missing_column").IsEmpty())

	rounds, ok := wb.Sheet("rounds")
	require.True(t, ok)
	assert.Equal(t, KindDate, rounds.Rows[0].Get("date_played").Kind())
	assert.Equal(t, KindString, rounds.Rows[0].Get("round_type").Kind())
}

func TestLoad_MissingSheet(t *testing.T) {
	_, err := Load(bytes.NewReader(writeBytes(t, teeSheets())), "tees.xlsx", "tees", "holes", "course")

	var missing *MissingSheetError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"course", "holes"}, missing.Sheets)
	assert.Contains(t, err.Error(), "tees.xlsx")
}

func TestLoad_NotAWorkbook(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("hello")), "junk.xlsx")
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "data/raw/tees.xlsx", writeBytes(t, teeSheets()), 0o644))

	wb, err := LoadFile(fs, "data/raw/tees.xlsx", "tees")
	require.NoError(t, err)
	assert.Equal(t, "data/raw/tees.xlsx", wb.Name)

	_, err = LoadFile(fs, "data/raw/nope.xlsx")
	assert.Error(t, err)
}

func TestWrite_LongChoiceListUsesListsSheet(t *testing.T) {
	long := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		long = append(long, "Choice number "+string(rune('A'+i%26)))
	}
	sheets := []SheetSpec{{Name: "hole_stats", Columns: []Column{{Name: "tee_shot", Choices: long}}}}

	wb, err := Load(bytes.NewReader(writeBytes(t, sheets)), "t.xlsx", "hole_stats", listsSheet)
	require.NoError(t, err)
	lists, _ := wb.Sheet(listsSheet)
	// the first list value sits in the header position of the lists sheet
	assert.Equal(t, []string{long[0]}, lists.Columns)
	assert.Len(t, lists.Rows, len(long)-1)
}

func TestSheet_MissingColumns(t *testing.T) {
	s := &Sheet{Columns: []string{"a", "b"}}
	assert.Nil(t, s.MissingColumns("a", "b"))
	assert.Equal(t, []string{"c"}, s.MissingColumns("a", "c"))
}

func TestWrite_NoSheets(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, nil))
}
