package model

// Bank identifies one of the supported statement issuers.
type Bank string

// Supported banks. The set is closed: adding a bank means adding a parser
// strategy and a detection heuristic alongside the new constant.
const (
	BankCaixaBank  Bank = "caixabank"
	BankSabadell   Bank = "sabadell"
	BankImaginBank Bank = "imaginbank"
)

// Banks lists every supported bank in a stable order.
func Banks() []Bank {
	return []Bank{BankCaixaBank, BankSabadell, BankImaginBank}
}

// Valid reports whether b is one of the supported banks.
func (b Bank) Valid() bool {
	switch b {
	case BankCaixaBank, BankSabadell, BankImaginBank:
		return true
	}
	return false
}

// DisplayName returns the human-readable bank name.
func (b Bank) DisplayName() string {
	switch b {
	case BankCaixaBank:
		return "CaixaBank"
	case BankSabadell:
		return "Banco Sabadell"
	case BankImaginBank:
		return "ImaginBank"
	default:
		return string(b)
	}
}

// Confidence indicates how certain a bank detection heuristic is.
type Confidence string

const (
	// ConfidenceHigh means the file content itself matched a known bank marker.
	ConfidenceHigh Confidence = "high"
	// ConfidenceMedium means only the filename matched; content heuristics missed.
	ConfidenceMedium Confidence = "medium"
	// ConfidenceLow is reserved for future weaker heuristics.
	ConfidenceLow Confidence = "low"
)

// Detection is the result of identifying a statement file's issuing bank.
// Confidence is informational: the import flow does not branch on it today,
// but callers may want to require confirmation below ConfidenceHigh.
type Detection struct {
	Bank       Bank
	Confidence Confidence
}
