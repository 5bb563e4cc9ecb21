// Package normalize converts bank-specific date and amount encodings into
// canonical forms, and produces the normalized hash inputs used for
// duplicate detection.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// excelEpochOffset is the number of days between the spreadsheet epoch
// (1899-12-30) and the Unix epoch (1970-01-01).
const excelEpochOffset = 25569

// descriptionMaxLen bounds the normalized description used in fingerprints.
const descriptionMaxLen = 50

var (
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9\s]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// ParseDateDMY converts a DD/MM/YYYY date (zero-padded or not) into ISO
// YYYY-MM-DD form. It errors on anything with fewer than three slash
// segments or non-numeric fields; callers treat that as "skip row".
func ParseDateDMY(s string) (string, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) < 3 {
		return "", fmt.Errorf("invalid DMY date %q", s)
	}

	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return "", fmt.Errorf("invalid day in date %q: %w", s, err)
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", fmt.Errorf("invalid month in date %q: %w", s, err)
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return "", fmt.Errorf("invalid year in date %q: %w", s, err)
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), nil
}

// ExcelDateToYMD converts a spreadsheet date serial (days since the
// spreadsheet epoch) into ISO YYYY-MM-DD form. The serial is treated purely
// as a day count: no timezone shifting is applied.
func ExcelDateToYMD(serial float64) string {
	unixSeconds := int64((serial - excelEpochOffset) * 86400)
	return time.Unix(unixSeconds, 0).UTC().Format("2006-01-02")
}

// ParseEuropeanAmount parses amounts like "-41,04EUR" or "1.234,56":
// an optional trailing currency suffix is stripped, "." is a thousands
// separator, and "," is the decimal separator.
func ParseEuropeanAmount(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	if suffix := strings.ToUpper(cleaned); strings.HasSuffix(suffix, "EUR") {
		cleaned = strings.TrimSpace(cleaned[:len(cleaned)-3])
	}
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return value, nil
}

// Amount renders an amount for fingerprinting: absolute value, fixed two
// decimals. Sign is deliberately excluded so a later direction correction
// in the ledger never changes the fingerprint.
func Amount(v float64) string {
	return strconv.FormatFloat(math.Abs(v), 'f', 2, 64)
}

// Description normalizes a statement description for fingerprinting:
// lowercase, strip everything outside [a-z0-9\s], collapse whitespace runs,
// trim, and truncate. This absorbs punctuation and whitespace noise a bank
// may vary between exports of the same statement.
func Description(s string) string {
	out := strings.ToLower(s)
	out = nonAlnumRe.ReplaceAllString(out, "")
	out = whitespaceRe.ReplaceAllString(out, " ")
	out = strings.TrimSpace(out)
	if len(out) > descriptionMaxLen {
		out = strings.TrimSpace(out[:descriptionMaxLen])
	}
	return out
}
