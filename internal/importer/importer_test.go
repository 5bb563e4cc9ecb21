package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/extracto/internal/common"
	"github.com/Veraticus/extracto/internal/model"
	"github.com/Veraticus/extracto/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLedger struct {
	mu       sync.Mutex
	requests []service.CreateTransactionRequest
	failOn   map[int]error // 1-based call index -> error to return
}

func (m *mockLedger) CreateTransaction(_ context.Context, req service.CreateTransactionRequest) (*service.CreatedTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if err, ok := m.failOn[len(m.requests)]; ok {
		return nil, err
	}
	return &service.CreatedTransaction{
		ID:          strconv.Itoa(len(m.requests)),
		Description: req.Description,
	}, nil
}

type mockStore struct {
	mu      sync.Mutex
	records map[string]service.HashRecord
	puts    int
	getErr  error
}

func newMockStore() *mockStore {
	return &mockStore{records: make(map[string]service.HashRecord)}
}

func (m *mockStore) Get(_ context.Context, key string) (*service.HashRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *mockStore) Put(_ context.Context, key string, record service.HashRecord, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts++
	m.records[key] = record
	return nil
}

func (m *mockStore) Close() error { return nil }

func statementCSV(rows ...string) []byte {
	out := "Concepto;Fecha;Importe\n"
	for _, r := range rows {
		out += r + "\n"
	}
	return []byte(out)
}

func newTestImporter(t *testing.T, ledger *mockLedger, store *mockStore, mutate func(*Config)) *Importer {
	t.Helper()

	cfg := Config{
		Accounts: map[model.Bank]string{
			model.BankImaginBank: "3",
			model.BankCaixaBank:  "5",
			model.BankSabadell:   "7",
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	imp, err := New(ledger, store, cfg)
	require.NoError(t, err)
	return imp
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(nil, newMockStore(), Config{})
	require.ErrorIs(t, err, common.ErrInvalidConfig)

	_, err = New(&mockLedger{}, nil, Config{})
	require.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestImportCreatesTransactions(t *testing.T) {
	ledger := &mockLedger{}
	store := newMockStore()
	imp := newTestImporter(t, ledger, store, nil)

	data := statementCSV(
		"MERCADONA;05/03/2026;-23,40 EUR",
		"NOMINA EMPRESA;28/02/2026;1500.00",
	)

	result, err := imp.Import(context.Background(), data, "export.csv", "12345")
	require.NoError(t, err)

	assert.Equal(t, model.BankImaginBank, result.Bank)
	assert.Equal(t, model.ConfidenceHigh, result.Confidence)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Duplicates)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)

	require.Len(t, ledger.requests, 2)

	withdrawal := ledger.requests[0]
	assert.Equal(t, service.TypeWithdrawal, withdrawal.Type)
	assert.Equal(t, "2026-03-05", withdrawal.Date)
	assert.InDelta(t, 23.40, withdrawal.Amount, 0.001)
	assert.Equal(t, "MERCADONA", withdrawal.Description)
	assert.Equal(t, "3", withdrawal.SourceAccount)
	assert.Empty(t, withdrawal.DestinationAccount)
	assert.Equal(t, []string{"bank-import", "imaginbank"}, withdrawal.Tags)

	deposit := ledger.requests[1]
	assert.Equal(t, service.TypeDeposit, deposit.Type)
	assert.InDelta(t, 1500.0, deposit.Amount, 0.001)
	assert.Equal(t, "3", deposit.DestinationAccount)
	assert.Empty(t, deposit.SourceAccount)

	assert.Equal(t, 2, store.puts)
	for _, rec := range store.records {
		assert.Equal(t, "12345", rec.ChatID)
		assert.Equal(t, "imaginbank", rec.Bank)
		assert.False(t, rec.ImportedAt.IsZero())
	}
}

func TestImportIsIdempotent(t *testing.T) {
	store := newMockStore()
	data := statementCSV("MERCADONA;05/03/2026;-23,40 EUR")

	first := newTestImporter(t, &mockLedger{}, store, nil)
	result, err := first.Import(context.Background(), data, "export.csv", "12345")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	ledger := &mockLedger{}
	second := newTestImporter(t, ledger, store, nil)
	result, err = second.Import(context.Background(), data, "export.csv", "12345")
	require.NoError(t, err)

	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Duplicates)
	assert.Empty(t, ledger.requests)
	assert.Equal(t, 1, store.puts)
}

func TestImportDeduplicatesWithinFile(t *testing.T) {
	ledger := &mockLedger{}
	store := newMockStore()
	imp := newTestImporter(t, ledger, store, nil)

	data := statementCSV(
		"MERCADONA;05/03/2026;-23,40 EUR",
		"MERCADONA;05/03/2026;-23,40 EUR",
	)

	result, err := imp.Import(context.Background(), data, "export.csv", "12345")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Duplicates)
	assert.Len(t, ledger.requests, 1)
	assert.Equal(t, 1, store.puts)
}

func TestImportIgnoresSignForDeduplication(t *testing.T) {
	store := newMockStore()

	first := newTestImporter(t, &mockLedger{}, store, nil)
	_, err := first.Import(context.Background(),
		statementCSV("MERCADONA;05/03/2026;-23,40 EUR"), "export.csv", "12345")
	require.NoError(t, err)

	// A refund mirrors the charge with the opposite sign; identity must not
	// distinguish them.
	ledger := &mockLedger{}
	second := newTestImporter(t, ledger, store, nil)
	result, err := second.Import(context.Background(),
		statementCSV("MERCADONA;05/03/2026;23,40 EUR"), "export.csv", "12345")
	require.NoError(t, err)

	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Duplicates)
	assert.Empty(t, ledger.requests)
}

func TestImportIsolatesRowFailures(t *testing.T) {
	ledger := &mockLedger{failOn: map[int]error{2: errors.New("ledger rejected split")}}
	store := newMockStore()
	imp := newTestImporter(t, ledger, store, nil)

	data := statementCSV(
		"MERCADONA;05/03/2026;-23,40 EUR",
		"AMAZON;06/03/2026;-11,99 EUR",
		"FARMACIA;07/03/2026;-4,50 EUR",
	)

	result, err := imp.Import(context.Background(), data, "export.csv", "12345")
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Created)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Equal(t, "AMAZON", result.Errors[0].Description)
	assert.Contains(t, result.Errors[0].Err, "ledger rejected split")

	// The failed row leaves no fingerprint behind, so a retry can create it.
	assert.Equal(t, 2, store.puts)
}

func TestImportLookupFailureTreatedAsNew(t *testing.T) {
	ledger := &mockLedger{}
	store := newMockStore()
	store.getErr = errors.New("database is locked")
	imp := newTestImporter(t, ledger, store, nil)

	result, err := imp.Import(context.Background(),
		statementCSV("MERCADONA;05/03/2026;-23,40 EUR"), "export.csv", "12345")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Len(t, ledger.requests, 1)
}

func TestImportDryRun(t *testing.T) {
	ledger := &mockLedger{}
	store := newMockStore()
	imp := newTestImporter(t, ledger, store, func(cfg *Config) {
		cfg.DryRun = true
	})

	data := statementCSV(
		"MERCADONA;05/03/2026;-23,40 EUR",
		"MERCADONA;05/03/2026;-23,40 EUR",
	)

	result, err := imp.Import(context.Background(), data, "export.csv", "12345")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Duplicates)
	assert.Empty(t, ledger.requests)
	assert.Equal(t, 0, store.puts)
}

func TestImportEmptyStatement(t *testing.T) {
	imp := newTestImporter(t, &mockLedger{}, newMockStore(), nil)

	result, err := imp.Import(context.Background(), statementCSV(), "export.csv", "12345")
	require.NoError(t, err)

	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0, result.Created)
}

func TestImportCountsSkippedRows(t *testing.T) {
	imp := newTestImporter(t, &mockLedger{}, newMockStore(), nil)

	data := statementCSV(
		"MERCADONA;05/03/2026;-23,40 EUR",
		"broken line without fields",
		"AMAZON;not-a-date;-11,99 EUR",
	)

	result, err := imp.Import(context.Background(), data, "export.csv", "12345")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 2, result.Skipped)
}

func TestImportUnknownBank(t *testing.T) {
	imp := newTestImporter(t, &mockLedger{}, newMockStore(), nil)

	_, err := imp.Import(context.Background(), []byte("a,b,c\n1,2,3\n"), "statement.csv", "12345")
	require.Error(t, err)

	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.Error(), "supported formats")
	assert.Contains(t, userErr.Error(), "ImaginBank (.csv)")
}

func TestImportStructuralParseFailure(t *testing.T) {
	imp := newTestImporter(t, &mockLedger{}, newMockStore(), nil)

	// Filename detection picks the bank, but the content has no header row.
	_, err := imp.Import(context.Background(), []byte("nothing useful\n"), "imagin-movimientos.csv", "12345")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse ImaginBank file")
	assert.ErrorIs(t, err, common.ErrNoHeader)
}

func TestImportMissingAccountConfig(t *testing.T) {
	imp := newTestImporter(t, &mockLedger{}, newMockStore(), func(cfg *Config) {
		delete(cfg.Accounts, model.BankImaginBank)
	})

	_, err := imp.Import(context.Background(),
		statementCSV("MERCADONA;05/03/2026;-23,40 EUR"), "export.csv", "12345")
	require.ErrorIs(t, err, common.ErrMissingConfig)
	assert.Contains(t, err.Error(), "ImaginBank")
}

func TestImportScopesDedupToChat(t *testing.T) {
	store := newMockStore()
	data := statementCSV("MERCADONA;05/03/2026;-23,40 EUR")

	first := newTestImporter(t, &mockLedger{}, store, nil)
	_, err := first.Import(context.Background(), data, "export.csv", "12345")
	require.NoError(t, err)

	ledger := &mockLedger{}
	second := newTestImporter(t, ledger, store, nil)
	result, err := second.Import(context.Background(), data, "export.csv", "67890")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Len(t, ledger.requests, 1)
}

func TestImportReportsProgress(t *testing.T) {
	var calls []string
	imp := newTestImporter(t, &mockLedger{}, newMockStore(), func(cfg *Config) {
		cfg.OnProgress = func(processed, total int) {
			calls = append(calls, fmt.Sprintf("%d/%d", processed, total))
		}
	})

	data := statementCSV(
		"MERCADONA;05/03/2026;-23,40 EUR",
		"AMAZON;06/03/2026;-11,99 EUR",
	)

	_, err := imp.Import(context.Background(), data, "export.csv", "12345")
	require.NoError(t, err)
	assert.Equal(t, []string{"1/2", "2/2"}, calls)
}

func TestSupportedFormats(t *testing.T) {
	formats := SupportedFormats()
	assert.Contains(t, formats, "CaixaBank (.xlsx/.xls)")
	assert.Contains(t, formats, "Banco Sabadell (.xlsx/.xls)")
	assert.Contains(t, formats, "ImaginBank (.csv)")
}
