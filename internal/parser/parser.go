// Package parser extracts canonical transactions from bank statement files.
//
// Each supported bank has one parsing strategy, selected through a lookup
// table keyed by the bank identifier. The cross-cutting policy is: skip on
// per-row failures (bad date, non-numeric amount, short row), abort only on
// structural failures (missing header row), because a malformed row is
// common and recoverable while a missing header means the column mapping
// itself is unknown.
package parser

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Veraticus/extracto/internal/common"
	"github.com/Veraticus/extracto/internal/model"
	"github.com/Veraticus/extracto/internal/normalize"
)

// headerScanRows is how deep into a file the header row may appear.
const headerScanRows = 10

// Statement is the parsed content of one statement file.
type Statement struct {
	Transactions []model.Transaction
	// Skipped counts rows dropped as malformed. Blank filler rows are not
	// counted; only rows that carried data but failed to parse.
	Skipped int
}

type parseFunc func(data []byte, fileName string) (*Statement, error)

// strategies maps each supported bank to its statement parsing strategy.
// Adding a bank means adding one entry here plus its strategy file.
var strategies = map[model.Bank]parseFunc{
	model.BankCaixaBank:  parseCaixaBank,
	model.BankSabadell:   parseSabadell,
	model.BankImaginBank: parseImaginBank,
}

// Parse runs the strategy for bank over the raw file bytes.
func Parse(bank model.Bank, data []byte, fileName string) (*Statement, error) {
	fn, ok := strategies[bank]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownBank, bank)
	}
	return fn(data, fileName)
}

// rowResult is the explicit outcome of parsing one data row: either a
// transaction or a named skip reason. Making the skip branch a value keeps
// the skip-vs-abort policy testable instead of buried in control flow.
type rowResult struct {
	tx   *model.Transaction
	skip string
}

func keepRow(tx model.Transaction) rowResult {
	return rowResult{tx: &tx}
}

func skipRow(reason string) rowResult {
	return rowResult{skip: reason}
}

// collect folds row results into a statement, logging skips at debug level.
func collect(bank model.Bank, results []rowResult) *Statement {
	stmt := &Statement{}
	for i, r := range results {
		if r.tx != nil {
			stmt.Transactions = append(stmt.Transactions, *r.tx)
			continue
		}
		stmt.Skipped++
		slog.Debug("skipping statement row",
			"bank", bank,
			"row", i+1,
			"reason", r.skip)
	}
	return stmt
}

// parseCellAmount handles the two amount encodings seen in spreadsheet and
// CSV exports: a plain decimal ("-150.48", possibly produced by the
// spreadsheet library from a numeric cell) and the European form with
// thousands dots and a decimal comma ("1.234,56", "-41,04EUR").
func parseCellAmount(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasSuffix(strings.ToUpper(cleaned), "EUR") || strings.Contains(cleaned, ",") {
		return normalize.ParseEuropeanAmount(cleaned)
	}
	if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return v, nil
	}
	return normalize.ParseEuropeanAmount(cleaned)
}

// joinNotes concatenates secondary descriptive columns, dropping empties.
func joinNotes(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " - ")
}
