// Package sheet reads and writes the single-table spreadsheets ytlinks converts.
//
// .xlsx/.xlsm files go through excelize, .csv through encoding/csv. The first row is
// always the header. A sheet read from a workbook is written back by copying that workbook
// and filling in only the added columns, so existing cells keep their types and styles.
package sheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/xuri/excelize/v2"
)

// DefaultSheetName is used when writing a workbook from a Sheet without a name.
const DefaultSheetName = "Sheet1"

// Sheet is one table: a header row and data rows.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string

	source string // workbook the sheet was read from, "" for CSV or new sheets
	added  []int  // indexes of columns appended by AddColumn
}

type format int

const (
	formatXLSX format = iota
	formatCSV
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return formatXLSX, nil
	case ".csv":
		return formatCSV, nil
	default:
		return 0, fmt.Errorf("%w: %s", shared.ErrUnsupportedFile, path)
	}
}

// Read loads the named sheet (or the first sheet when name is empty) from path.
func Read(path, name string) (*Sheet, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch f {
	case formatCSV:
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		rows, err = readCSV(path)
	default:
		name, rows, err = readXLSX(path, name)
	}
	if err != nil {
		return nil, err
	}

	s := &Sheet{Name: name}
	if f == formatXLSX {
		s.source = path
	}
	if len(rows) > 0 {
		s.Header = rows[0]
		s.Rows = rows[1:]
	}
	return s, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return rows, nil
}

func readXLSX(path, name string) (string, [][]string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer wb.Close()

	if name == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return "", nil, fmt.Errorf("%w: workbook has no sheets", shared.ErrInvalidInput)
		}
		name = sheets[0]
	}

	rows, err := wb.GetRows(name)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}
	return name, rows, nil
}

// Column returns the i-th cell of every data row ("" where a row is short).
func (s *Sheet) Column(i int) []string {
	values := make([]string, len(s.Rows))
	for r, row := range s.Rows {
		if i < len(row) {
			values[r] = row[i]
		}
	}
	return values
}

// AddColumn appends a column named name after the widest row.
//
// values[i] becomes the cell of data row i. Short rows are padded so the new column lines up.
func (s *Sheet) AddColumn(name string, values []string) {
	width := len(s.Header)
	for _, row := range s.Rows {
		width = max(width, len(row))
	}

	s.Header = pad(s.Header, width)
	s.Header = append(s.Header, name)
	s.added = append(s.added, width)

	for i, row := range s.Rows {
		row = pad(row, width)
		var v string
		if i < len(values) {
			v = values[i]
		}
		s.Rows[i] = append(row, v)
	}
}

func pad(row []string, width int) []string {
	for len(row) < width {
		row = append(row, "")
	}
	return row
}

// Write saves s to path in the format implied by its extension.
func Write(path string, s *Sheet) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}

	if f == formatCSV {
		return writeCSV(path, s)
	}
	return writeXLSX(path, s)
}

func writeCSV(path string, s *Sheet) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(s.Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := w.WriteAll(s.Rows); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

func writeXLSX(path string, s *Sheet) error {
	if s.source != "" {
		return writeIntoSource(path, s)
	}

	wb := excelize.NewFile()
	defer wb.Close()

	name := s.Name
	if name == "" {
		name = DefaultSheetName
	}
	if name != DefaultSheetName {
		if err := wb.SetSheetName(DefaultSheetName, name); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	rows := append([][]string{s.Header}, s.Rows...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := wb.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// writeIntoSource saves a copy of the workbook s was read from with the added columns filled in.
func writeIntoSource(path string, s *Sheet) error {
	wb, err := excelize.OpenFile(s.source)
	if err != nil {
		return fmt.Errorf("failed to reopen source workbook: %w", err)
	}
	defer wb.Close()

	for _, col := range s.added {
		if err := setCell(wb, s.Name, col, 0, s.Header[col]); err != nil {
			return err
		}
		for i, row := range s.Rows {
			if col >= len(row) || row[col] == "" {
				continue
			}
			if err := setCell(wb, s.Name, col, i+1, row[col]); err != nil {
				return err
			}
		}
	}

	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func setCell(wb *excelize.File, sheet string, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return fmt.Errorf("failed to address cell: %w", err)
	}
	if err := wb.SetCellStr(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", cell, err)
	}
	return nil
}
