package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/extracto/internal/common"
	"github.com/Veraticus/extracto/internal/model"
	"github.com/Veraticus/extracto/internal/normalize"
)

// ImaginBank exports are semicolon-delimited CSV with a literal header line.
const imaginHeaderPrefix = "Concepto;Fecha;Importe"

func parseImaginBank(data []byte, _ string) (*Statement, error) {
	lines := strings.Split(string(data), "\n")

	headerLine := -1
	for i := 0; i < headerScanRows && i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), imaginHeaderPrefix) {
			headerLine = i
			break
		}
	}
	if headerLine < 0 {
		return nil, fmt.Errorf("%w in first %d lines", common.ErrNoHeader, headerScanRows)
	}

	var results []rowResult
	for _, line := range lines[headerLine+1:] {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}

		fields := strings.Split(line, ";")
		if len(fields) < 3 {
			results = append(results, skipRow("short row"))
			continue
		}

		isoDate, err := normalize.ParseDateDMY(fields[1])
		if err != nil {
			results = append(results, skipRow("bad date"))
			continue
		}

		value, err := imaginAmount(fields[2])
		if err != nil {
			results = append(results, skipRow("bad amount"))
			continue
		}

		results = append(results, keepRow(model.Transaction{
			Date:        isoDate,
			Description: strings.TrimSpace(fields[0]),
			Amount:      value,
		}))
	}

	return collect(model.BankImaginBank, results), nil
}

// imaginAmount handles the bank's two historical formats: plain decimal
// ("-150.48") in current exports and the legacy European form with a
// currency suffix ("-41,04EUR"). The suffix check dispatches between them;
// running the plain form through the European parser would misread its
// decimal point as a thousands separator.
func imaginAmount(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	if strings.HasSuffix(strings.ToUpper(cleaned), "EUR") {
		return normalize.ParseEuropeanAmount(cleaned)
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return value, nil
}
