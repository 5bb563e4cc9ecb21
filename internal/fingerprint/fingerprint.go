// Package fingerprint derives content-addressed identities for imported
// bank records.
//
// Import identity is (user, bank, date, magnitude, normalized text) — it
// deliberately excludes the transaction's sign and every ledger-assigned
// attribute (id, category, tags), so edits in the ledger never cause a
// re-import to be treated as new.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/Veraticus/extracto/internal/model"
	"github.com/Veraticus/extracto/internal/normalize"
)

// KeyPrefix namespaces import fingerprints inside the shared hash store,
// keeping them distinct from any other use of the same store.
const KeyPrefix = "import_hash:"

// Payload builds the pre-hash signature for a transaction. Exposed
// separately from Fingerprint because the composition of the signature is
// the contract worth pinning down in tests, not the digest bytes.
func Payload(chatID string, bank model.Bank, tx model.Transaction) string {
	return strings.Join([]string{
		chatID,
		string(bank),
		tx.Date,
		normalize.Amount(tx.Amount),
		normalize.Description(tx.Description),
	}, "|")
}

// Fingerprint returns the hex sha256 digest of the transaction's payload.
// Deterministic and unkeyed: collision resistance is the goal here, not
// confidentiality.
func Fingerprint(chatID string, bank model.Bank, tx model.Transaction) string {
	sum := sha256.Sum256([]byte(Payload(chatID, bank, tx)))
	return hex.EncodeToString(sum[:])
}

// Key converts a fingerprint into its namespaced hash-store key.
func Key(fp string) string {
	return KeyPrefix + fp
}
