package workbook

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// listsSheet holds choice lists too long for an inline validation formula.
const listsSheet = "_lists"

// validationRows is how far down each drop-down list is applied.
const validationRows = 500

// Column describes one header cell. Choices, when set, become a drop-down
// list on the data rows below it.
type Column struct {
	Name    string
	Choices []string
}

// SheetSpec describes a sheet to write: its header and any data rows.
type SheetSpec struct {
	Name    string
	Columns []Column
	Rows    [][]interface{}
}

// Write renders sheets as an xlsx workbook into w, in order.
func Write(w io.Writer, sheets []SheetSpec) error {
	if len(sheets) == 0 {
		return fmt.Errorf("workbook: no sheets to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	lists := &listWriter{f: f}
	for i, spec := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), spec.Name); err != nil {
				return fmt.Errorf("rename sheet %q: %w", spec.Name, err)
			}
		} else if _, err := f.NewSheet(spec.Name); err != nil {
			return fmt.Errorf("create sheet %q: %w", spec.Name, err)
		}
		if err := writeSheet(f, spec, lists); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, spec SheetSpec, lists *listWriter) error {
	header := make([]interface{}, len(spec.Columns))
	for i, c := range spec.Columns {
		header[i] = c.Name
	}
	if err := f.SetSheetRow(spec.Name, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", spec.Name, err)
	}

	for i, row := range spec.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(spec.Name, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", spec.Name, i+2, err)
		}
	}

	if err := f.SetPanes(spec.Name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("%s panes: %w", spec.Name, err)
	}

	for i, c := range spec.Columns {
		if len(c.Choices) == 0 {
			continue
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := lists.add(spec.Name, col, c.Choices); err != nil {
			return fmt.Errorf("%s.%s validation: %w", spec.Name, c.Name, err)
		}
	}
	return nil
}

type listWriter struct {
	f       *excelize.File
	created bool
	next    int
}

// add attaches a drop-down to col. Short lists go inline; long ones are
// written to the hidden lists sheet and referenced by range, since Excel
// caps inline list formulas at 255 characters.
func (l *listWriter) add(sheet, col string, choices []string) error {
	dv := excelize.NewDataValidation(true)
	dv.Sqref = fmt.Sprintf("%s2:%s%d", col, col, validationRows)

	if len(strings.Join(choices, ","))+2 <= 240 {
		if err := dv.SetDropList(choices); err != nil {
			return err
		}
		return l.f.AddDataValidation(sheet, dv)
	}

	if !l.created {
		if _, err := l.f.NewSheet(listsSheet); err != nil {
			return err
		}
		if err := l.f.SetSheetVisible(listsSheet, false); err != nil {
			return err
		}
		l.created = true
	}
	l.next++
	listCol, err := excelize.ColumnNumberToName(l.next)
	if err != nil {
		return err
	}
	for i, v := range choices {
		if err := l.f.SetCellValue(listsSheet, fmt.Sprintf("%s%d", listCol, i+1), v); err != nil {
			return err
		}
	}
	dv.SetSqrefDropList(fmt.Sprintf("%s!$%s$1:$%s$%d", listsSheet, listCol, listCol, len(choices)))
	return l.f.AddDataValidation(sheet, dv)
}
