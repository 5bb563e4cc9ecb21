package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/extracto/internal/common"
	"github.com/Veraticus/extracto/internal/model"
	"github.com/Veraticus/extracto/internal/normalize"
	"github.com/Veraticus/extracto/internal/sheet"
)

// Sabadell export header cells. The header row is only accepted when the
// date and description headers appear together, which keeps detection
// robust when the bank shifts the table sideways between export variants.
const (
	sabadellHeaderDate   = "F. Operativa"
	sabadellHeaderDesc   = "Concepto"
	sabadellHeaderAmount = "Importe"
	sabadellHeaderMore   = "Más datos"
)

func parseSabadell(data []byte, fileName string) (*Statement, error) {
	s, err := sheet.Read(data, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}

	headerRow, cols, err := sabadellHeader(s)
	if err != nil {
		return nil, err
	}

	var results []rowResult
	for r := headerRow + 1; r < len(s.Rows); r++ {
		date := strings.TrimSpace(s.Cell(r, cols.date))
		desc := strings.TrimSpace(s.Cell(r, cols.desc))

		if date == "" && desc == "" {
			continue
		}

		isoDate, err := sabadellDate(date)
		if err != nil {
			results = append(results, skipRow("bad date"))
			continue
		}

		value, err := parseCellAmount(s.Cell(r, cols.amount))
		if err != nil {
			results = append(results, skipRow("bad amount"))
			continue
		}

		notes := ""
		if cols.more >= 0 {
			notes = strings.TrimSpace(s.Cell(r, cols.more))
		}

		results = append(results, keepRow(model.Transaction{
			Date:        isoDate,
			Description: desc,
			Amount:      value,
			Notes:       notes,
		}))
	}

	return collect(model.BankSabadell, results), nil
}

type sabadellColumns struct {
	date   int
	desc   int
	amount int
	more   int // -1 when the export has no secondary column
}

// sabadellHeader locates the header row and maps the column layout from it.
func sabadellHeader(s *sheet.Sheet) (int, sabadellColumns, error) {
	for r := 0; r < headerScanRows && r < len(s.Rows); r++ {
		cols := sabadellColumns{date: -1, desc: -1, amount: -1, more: -1}
		for c := range s.Rows[r] {
			switch strings.TrimSpace(s.Cell(r, c)) {
			case sabadellHeaderDate:
				cols.date = c
			case sabadellHeaderDesc:
				cols.desc = c
			case sabadellHeaderAmount:
				cols.amount = c
			case sabadellHeaderMore:
				cols.more = c
			}
		}
		// Both the date and description headers must match at once.
		if cols.date >= 0 && cols.desc >= 0 {
			if cols.amount < 0 {
				return 0, cols, fmt.Errorf("%w: header row has no %q column", common.ErrNoHeader, sabadellHeaderAmount)
			}
			return r, cols, nil
		}
	}
	return 0, sabadellColumns{}, fmt.Errorf("%w in first %d rows", common.ErrNoHeader, headerScanRows)
}

// sabadellDate handles the two date encodings Sabadell has shipped: a
// spreadsheet day-count serial, and a plain DD/MM/YYYY string in older
// exports.
func sabadellDate(cell string) (string, error) {
	if serial, err := strconv.ParseFloat(cell, 64); err == nil {
		return normalize.ExcelDateToYMD(serial), nil
	}
	return normalize.ParseDateDMY(cell)
}
