package model

// RowError records a single row whose ledger creation failed. Row is
// 1-based and refers to the position in the parsed transaction sequence,
// not the raw file line.
type RowError struct {
	Row         int
	Description string
	Err         string
}

// ImportResult is the aggregate outcome of one statement import call.
// It is ephemeral: the caller renders it into a user-facing summary and
// discards it.
type ImportResult struct {
	Bank        Bank
	DisplayName string
	Confidence  Confidence

	// Total is the number of transactions that parsed successfully.
	Total      int
	Created    int
	Duplicates int
	// Skipped counts rows the parser dropped as malformed (bad date,
	// non-numeric amount, short row). They appear nowhere else.
	Skipped int

	Errors []RowError
}
