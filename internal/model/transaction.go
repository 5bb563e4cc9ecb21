// Package model defines the core types shared across the import pipeline.
package model

// Transaction is the bank-agnostic record produced by statement parsing.
// It is created once per parsed row, never mutated, and consumed by the
// fingerprint and ledger layers. The ledger is the system of record; this
// subsystem does not persist transactions itself.
type Transaction struct {
	// Date is the posting date in ISO form (YYYY-MM-DD), no time component.
	Date string
	// Description is the raw statement description, original casing preserved.
	// It doubles as the counterparty name when the transaction is created in
	// the ledger.
	Description string
	// Amount is signed: negative for outflows, positive for inflows.
	Amount float64
	// Notes carries bank-specific secondary columns, when present.
	Notes string
}
