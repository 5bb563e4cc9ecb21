// Package service defines the interfaces for the external collaborators the
// import pipeline consumes.
package service

import (
	"context"
	"time"
)

// TransactionType is the ledger-side direction of a created transaction.
type TransactionType string

const (
	TypeWithdrawal TransactionType = "withdrawal"
	TypeDeposit    TransactionType = "deposit"
	TypeTransfer   TransactionType = "transfer"
)

// CreateTransactionRequest describes one transaction to create in the ledger.
// Amount is always positive; Type carries the direction.
type CreateTransactionRequest struct {
	Type        TransactionType
	Date        string // ISO YYYY-MM-DD
	Amount      float64
	Description string
	Notes       string

	// SourceAccount is a ledger account id for withdrawals; for deposits the
	// source is the counterparty and DestinationAccount holds the account id.
	SourceAccount      string
	DestinationAccount string

	Tags []string
}

// CreatedTransaction is the ledger's acknowledgment of a creation call.
type CreatedTransaction struct {
	ID          string
	Description string
}

// LedgerClient is the single capability the importer needs from the external
// ledger. Any failure (network, validation) is returned as an error; the
// importer treats all of them identically.
type LedgerClient interface {
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*CreatedTransaction, error)
}

// HashRecord is the metadata stored alongside an import fingerprint. It holds
// the original parsed fields, never anything the ledger might later mutate.
type HashRecord struct {
	ChatID      string
	Bank        string
	Date        string
	Amount      string // normalized magnitude, 2 decimals
	Description string
	ImportedAt  time.Time
}

// HashStore is a TTL-backed key-value store used for duplicate-detection
// bookkeeping. It has no multi-get: batch existence checks are the caller's
// responsibility.
type HashStore interface {
	// Get returns the record for key, or nil if absent or expired.
	Get(ctx context.Context, key string) (*HashRecord, error)
	Put(ctx context.Context, key string, record HashRecord, ttl time.Duration) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
