// Package firefly implements the ledger client against the Firefly III
// REST API.
package firefly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/extracto/internal/common"
	"github.com/Veraticus/extracto/internal/service"
)

// Client implements service.LedgerClient for a Firefly III instance.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retry      service.RetryOptions
}

// NewClient creates a Firefly III client for baseURL authenticated with a
// personal access token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry: service.RetryOptions{MaxAttempts: 3},
	}
}

// Firefly III API request/response types.
type transactionSplit struct {
	Type            string   `json:"type"`
	Date            string   `json:"date"`
	Amount          string   `json:"amount"`
	Description     string   `json:"description"`
	SourceID        string   `json:"source_id,omitempty"`
	SourceName      string   `json:"source_name,omitempty"`
	DestinationID   string   `json:"destination_id,omitempty"`
	DestinationName string   `json:"destination_name,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

type storeTransactionRequest struct {
	ErrorIfDuplicateHash bool               `json:"error_if_duplicate_hash"`
	ApplyRules           bool               `json:"apply_rules"`
	Transactions         []transactionSplit `json:"transactions"`
}

type storeTransactionResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Transactions []struct {
				Description string `json:"description"`
			} `json:"transactions"`
		} `json:"attributes"`
	} `json:"data"`
}

type apiError struct {
	Message string `json:"message"`
}

// CreateTransaction creates a single transaction in Firefly III.
func (c *Client) CreateTransaction(ctx context.Context, req service.CreateTransactionRequest) (*service.CreatedTransaction, error) {
	split := transactionSplit{
		Type:        string(req.Type),
		Date:        req.Date,
		Amount:      strconv.FormatFloat(req.Amount, 'f', 2, 64),
		Description: req.Description,
		Notes:       req.Notes,
		Tags:        req.Tags,
	}

	// Firefly models direction through the account pair: withdrawals leave a
	// known asset account toward a named counterparty, deposits arrive from a
	// named counterparty into a known asset account.
	switch req.Type {
	case service.TypeWithdrawal:
		split.SourceID = req.SourceAccount
		split.DestinationName = req.Description
	case service.TypeDeposit:
		split.SourceName = req.Description
		split.DestinationID = req.DestinationAccount
	default:
		split.SourceID = req.SourceAccount
		split.DestinationID = req.DestinationAccount
	}

	payload := storeTransactionRequest{
		ApplyRules:   true,
		Transactions: []transactionSplit{split},
	}

	var created *service.CreatedTransaction
	op := func() error {
		result, err := c.postTransaction(ctx, payload)
		if err != nil {
			return err
		}
		created = result
		return nil
	}

	if err := common.WithRetry(ctx, op, c.retry); err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Client) postTransaction(ctx context.Context, payload storeTransactionRequest) (*service.CreatedTransaction, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("failed to reach ledger: %w", err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.statusError(resp)
	}

	var result storeTransactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode ledger response: %w", err)
	}

	description := ""
	if txs := result.Data.Attributes.Transactions; len(txs) > 0 {
		description = txs[0].Description
	}

	slog.Debug("created ledger transaction",
		"id", result.Data.ID,
		"description", description)

	return &service.CreatedTransaction{
		ID:          result.Data.ID,
		Description: description,
	}, nil
}

// Ping verifies connectivity and credentials against the /about endpoint,
// so auth failures surface before any parsing work happens.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/about", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrLedgerUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ledger returned status %d from /about", resp.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// statusError converts a non-success response into an error, marking rate
// limits and server-side failures as retryable.
func (c *Client) statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	message := strings.TrimSpace(string(raw))
	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Message != "" {
		message = apiErr.Message
	}

	err := fmt.Errorf("ledger API error: %d - %s", resp.StatusCode, message)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &common.RetryableError{Err: err, Retryable: true}
	}
	// Client-side failures like bad validation will not improve on retry.
	return &common.RetryableError{Err: err, Retryable: false}
}
