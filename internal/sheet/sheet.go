// Package sheet reads the first worksheet of an .xlsx or legacy .xls file
// into a uniform string grid, so detection and parsing code never deal with
// spreadsheet formats directly.
package sheet

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// maxRows bounds how much of a worksheet is materialized. Statement exports
// are small; anything past this is not transaction data.
const maxRows = 5000

// Sheet is the first worksheet of a workbook, flattened to strings.
type Sheet struct {
	// Name is the worksheet's own tab name. Some bank exports encode the
	// issuer in it, so detection inspects it too.
	Name string
	Rows [][]string
}

// Read opens the first worksheet of data. The file extension dispatches
// between the modern and legacy formats.
func Read(data []byte, fileName string) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx":
		return readXLSX(data)
	case ".xls":
		return readXLS(data)
	default:
		return nil, fmt.Errorf("unsupported spreadsheet extension for %q", fileName)
	}
}

func readXLSX(data []byte) (*Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}

	return &Sheet{Name: sheets[0], Rows: rows}, nil
}

func readXLS(data []byte) (*Sheet, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "cp1252")
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	name := ""
	if ws := workbook.GetSheet(0); ws != nil {
		name = ws.Name
	}

	rows := workbook.ReadAllCells(maxRows)
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in sheet")
	}

	return &Sheet{Name: name, Rows: rows}, nil
}

// Cell returns the zero-based cell at (row, col), or "" when the sheet is
// ragged and the cell does not exist.
func (s *Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) {
		return ""
	}
	r := s.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Grid returns the first rows×cols cells as a dense grid with empty-string
// defaults, regardless of how ragged the underlying sheet is.
func (s *Sheet) Grid(rows, cols int) [][]string {
	grid := make([][]string, rows)
	for r := 0; r < rows; r++ {
		grid[r] = make([]string, cols)
		for c := 0; c < cols; c++ {
			grid[r][c] = s.Cell(r, c)
		}
	}
	return grid
}
