// Package importer composes detection, parsing, fingerprinting, the hash
// store, and the ledger client into the end-to-end statement import flow.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/extracto/internal/common"
	"github.com/Veraticus/extracto/internal/detect"
	"github.com/Veraticus/extracto/internal/fingerprint"
	"github.com/Veraticus/extracto/internal/model"
	"github.com/Veraticus/extracto/internal/parser"
	"github.com/Veraticus/extracto/internal/service"
)

// Defaults applied by New when the corresponding Config field is zero.
const (
	defaultHashTTL    = 365 * 24 * time.Hour
	defaultImportTag  = "bank-import"
	defaultMaxLookups = 8
)

// Config carries the injected configuration for an import run. The account
// mapping is configuration, not data produced by detection.
type Config struct {
	// Accounts maps each bank to its ledger asset account id.
	Accounts map[model.Bank]string

	// HashTTL bounds how long fingerprints are retained for dedup.
	HashTTL time.Duration

	// ImportTag is the marker tag attached to every imported transaction,
	// alongside a bank-specific tag.
	ImportTag string

	// MaxLookups bounds the fan-out of the batched hash-store existence
	// check. The store has no multi-get, so the batch is issued as bounded
	// concurrent point-reads.
	MaxLookups int

	// DryRun runs detection, parsing, and duplicate checks but creates
	// nothing in the ledger and writes nothing to the hash store.
	DryRun bool

	// OnProgress, when set, is called after each row is processed.
	OnProgress func(processed, total int)
}

// Importer runs statement imports. One logical flow per call; rows are
// processed sequentially because each row's side effects must land before
// the next row's in-batch duplicate check can rely on them.
type Importer struct {
	ledger service.LedgerClient
	store  service.HashStore
	cfg    Config
}

// New creates an Importer over the given collaborators.
func New(ledger service.LedgerClient, store service.HashStore, cfg Config) (*Importer, error) {
	if ledger == nil {
		return nil, fmt.Errorf("%w: ledger client is required", common.ErrInvalidConfig)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: hash store is required", common.ErrInvalidConfig)
	}

	if cfg.HashTTL <= 0 {
		cfg.HashTTL = defaultHashTTL
	}
	if cfg.ImportTag == "" {
		cfg.ImportTag = defaultImportTag
	}
	if cfg.MaxLookups <= 0 {
		cfg.MaxLookups = defaultMaxLookups
	}

	return &Importer{ledger: ledger, store: store, cfg: cfg}, nil
}

// SupportedFormats describes the accepted uploads for user-facing errors.
func SupportedFormats() string {
	parts := make([]string, 0, len(model.Banks()))
	for _, b := range model.Banks() {
		ext := ".xlsx/.xls"
		if b == model.BankImaginBank {
			ext = ".csv"
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", b.DisplayName(), ext))
	}
	return strings.Join(parts, ", ")
}

// Import runs the full pipeline over one statement file for one user.
//
// Only two failures abort the call: an unrecognized bank and a structural
// parse error. Everything else — malformed rows, duplicate rows, failed
// ledger creations — is absorbed into the result.
func (i *Importer) Import(ctx context.Context, data []byte, fileName, chatID string) (*model.ImportResult, error) {
	detection, ok := detect.Detect(data, fileName)
	if !ok {
		return nil, common.NewUserError(
			fmt.Sprintf("could not detect bank, supported formats: %s", SupportedFormats()), nil)
	}

	slog.Info("detected statement bank",
		"file", fileName,
		"bank", detection.Bank,
		"confidence", detection.Confidence)

	stmt, err := parser.Parse(detection.Bank, data, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s file: %w", detection.Bank.DisplayName(), err)
	}

	result := &model.ImportResult{
		Bank:        detection.Bank,
		DisplayName: detection.Bank.DisplayName(),
		Confidence:  detection.Confidence,
		Total:       len(stmt.Transactions),
		Skipped:     stmt.Skipped,
	}

	// An empty statement is a valid outcome, not an error.
	if len(stmt.Transactions) == 0 {
		return result, nil
	}

	accountID, ok := i.cfg.Accounts[detection.Bank]
	if !ok || accountID == "" {
		return nil, fmt.Errorf("%w: no ledger account configured for %s",
			common.ErrMissingConfig, detection.Bank.DisplayName())
	}

	fps := make([]string, len(stmt.Transactions))
	for idx, tx := range stmt.Transactions {
		fps[idx] = fingerprint.Fingerprint(chatID, detection.Bank, tx)
	}

	// One batched existence check up front instead of N sequential reads.
	existing := i.checkExisting(ctx, fps)

	// seen catches within-file duplicates before their own store writes
	// would have landed. It is a distinct check from the store-backed
	// "already imported historically" set above.
	seen := make(map[string]bool, len(fps))

	for idx, tx := range stmt.Transactions {
		fp := fps[idx]

		if seen[fp] || existing[fp] {
			seen[fp] = true
			result.Duplicates++
			i.progress(idx+1, result.Total)
			continue
		}

		if i.cfg.DryRun {
			seen[fp] = true
			result.Created++
			i.progress(idx+1, result.Total)
			continue
		}

		if err := i.createTransaction(ctx, detection.Bank, accountID, tx); err != nil {
			result.Errors = append(result.Errors, model.RowError{
				Row:         idx + 1,
				Description: tx.Description,
				Err:         err.Error(),
			})
			i.progress(idx+1, result.Total)
			continue
		}

		if err := i.rememberHash(ctx, chatID, detection.Bank, fp, tx); err != nil {
			// The ledger write already happened; losing the fingerprint only
			// weakens future dedup, so log instead of failing the row.
			common.LogError(err, "failed to record import hash", common.Fields{
				"bank": detection.Bank,
				"row":  idx + 1,
			})
		}

		seen[fp] = true
		result.Created++
		i.progress(idx+1, result.Total)
	}

	return result, nil
}

// checkExisting fans out point-reads for every unique fingerprint and joins
// before returning. Safe to call with duplicate fingerprints in the batch.
// Lookup failures are logged and treated as "not imported": the worst case
// is one extra ledger creation, which the user can see in the summary.
func (i *Importer) checkExisting(ctx context.Context, fps []string) map[string]bool {
	unique := make([]string, 0, len(fps))
	dedup := make(map[string]bool, len(fps))
	for _, fp := range fps {
		if !dedup[fp] {
			dedup[fp] = true
			unique = append(unique, fp)
		}
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		existing = make(map[string]bool, len(unique))
		sem      = make(chan struct{}, i.cfg.MaxLookups)
	)

	for _, fp := range unique {
		wg.Add(1)
		sem <- struct{}{}
		go func(fp string) {
			defer wg.Done()
			defer func() { <-sem }()

			rec, err := i.store.Get(ctx, fingerprint.Key(fp))
			if err != nil {
				slog.Warn("hash lookup failed, treating row as new",
					"fingerprint", fp,
					"error", err)
				return
			}
			if rec != nil {
				mu.Lock()
				existing[fp] = true
				mu.Unlock()
			}
		}(fp)
	}

	wg.Wait()
	return existing
}

// createTransaction maps a canonical transaction onto a ledger creation
// call. The sign decides direction: outflows leave the bank's account
// toward the described counterparty, inflows arrive into it.
func (i *Importer) createTransaction(ctx context.Context, bank model.Bank, accountID string, tx model.Transaction) error {
	req := service.CreateTransactionRequest{
		Date:        tx.Date,
		Amount:      math.Abs(tx.Amount),
		Description: tx.Description,
		Notes:       tx.Notes,
		Tags:        []string{i.cfg.ImportTag, string(bank)},
	}

	if tx.Amount < 0 {
		req.Type = service.TypeWithdrawal
		req.SourceAccount = accountID
	} else {
		req.Type = service.TypeDeposit
		req.DestinationAccount = accountID
	}

	_, err := i.ledger.CreateTransaction(ctx, req)
	return err
}

// rememberHash persists the fingerprint with the original parsed fields —
// never anything the ledger may later mutate — so re-imports stay
// idempotent even after downstream edits.
func (i *Importer) rememberHash(ctx context.Context, chatID string, bank model.Bank, fp string, tx model.Transaction) error {
	return i.store.Put(ctx, fingerprint.Key(fp), service.HashRecord{
		ChatID:      chatID,
		Bank:        string(bank),
		Date:        tx.Date,
		Amount:      fmt.Sprintf("%.2f", math.Abs(tx.Amount)),
		Description: tx.Description,
		ImportedAt:  time.Now().UTC(),
	}, i.cfg.HashTTL)
}

func (i *Importer) progress(processed, total int) {
	if i.cfg.OnProgress != nil {
		i.cfg.OnProgress(processed, total)
	}
}
