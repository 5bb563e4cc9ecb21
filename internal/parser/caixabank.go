package parser

import (
	"fmt"
	"strings"

	"github.com/Veraticus/extracto/internal/common"
	"github.com/Veraticus/extracto/internal/model"
	"github.com/Veraticus/extracto/internal/normalize"
	"github.com/Veraticus/extracto/internal/sheet"
)

// CaixaBank "movimientos" exports put their table in columns B through J.
// The header row floats below a report banner, so it is located by its
// "Concepto" marker cell.
const (
	caixaHeaderMarker = "Concepto"

	caixaColDate     = 1 // B: date, DD/MM/YYYY string
	caixaColDesc     = 2 // C: concepto
	caixaColMovement = 3 // D: movement type
	caixaColAmount   = 4 // E: importe
	caixaColNotes    = 8 // I: free-text observations
	caixaColMax      = 9 // J
)

func parseCaixaBank(data []byte, fileName string) (*Statement, error) {
	s, err := sheet.Read(data, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}

	headerRow := -1
	for r := 0; r < headerScanRows && r < len(s.Rows); r++ {
		for c := caixaColDate; c <= caixaColMax; c++ {
			if strings.Contains(s.Cell(r, c), caixaHeaderMarker) {
				headerRow = r
				break
			}
		}
		if headerRow >= 0 {
			break
		}
	}
	if headerRow < 0 {
		return nil, fmt.Errorf("%w in first %d rows", common.ErrNoHeader, headerScanRows)
	}

	var results []rowResult
	for r := headerRow + 1; r < len(s.Rows); r++ {
		date := strings.TrimSpace(s.Cell(r, caixaColDate))
		desc := strings.TrimSpace(s.Cell(r, caixaColDesc))
		amount := strings.TrimSpace(s.Cell(r, caixaColAmount))

		if date == "" && desc == "" && amount == "" {
			continue
		}

		isoDate, err := normalize.ParseDateDMY(date)
		if err != nil {
			results = append(results, skipRow("bad date"))
			continue
		}

		value, err := parseCellAmount(amount)
		if err != nil {
			results = append(results, skipRow("bad amount"))
			continue
		}

		results = append(results, keepRow(model.Transaction{
			Date:        isoDate,
			Description: desc,
			Amount:      value,
			Notes:       joinNotes(s.Cell(r, caixaColMovement), s.Cell(r, caixaColNotes)),
		}))
	}

	return collect(model.BankCaixaBank, results), nil
}
