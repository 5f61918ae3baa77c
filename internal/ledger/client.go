// Copyright (c) 2026 Mintara. All rights reserved.

/*
Package ledger provides the HTTP client for the external token ledger.

The ledger is the authoritative system of record for NFT ownership. Mintara
mirrors mint results locally for fast reads, but every state-changing call
(collection creation, minting, transfers) goes through this client and the
mirror is reconciled against ledger truth afterwards.

# Architecture

The client is a plain JSON-over-HTTP adapter injected into domain services
via small consumer-defined interfaces. It never touches the database.
*/
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mintara/mintara/internal/platform/apperr"
	"github.com/mintara/mintara/internal/platform/constants"
)

// # Wire Types

// CreateCollectionInput describes a new NFT collection for one episode.
type CreateCollectionInput struct {
	Name            string  `json:"name"`
	Symbol          string  `json:"symbol"`
	Memo            string  `json:"memo,omitempty"`
	MaxSupply       int     `json:"max_supply"`
	RoyaltyPercent  float64 `json:"royalty_percent"`
	RoyaltyAccount  string  `json:"royalty_account,omitempty"`
	TreasuryAccount string  `json:"treasury_account"`
}

// MintInput requests new serials from an existing collection.
type MintInput struct {
	TokenID      string `json:"token_id"`
	ToAccount    string `json:"to_account"`
	Quantity     int    `json:"quantity"`
	MetadataHash string `json:"metadata_hash,omitempty"`
}

// MintResult is the ledger's answer to a successful mint.
type MintResult struct {
	SerialNumbers []int64   `json:"serial_numbers"`
	TransactionID string    `json:"transaction_id"`
	ConsensusAt   time.Time `json:"consensus_at"`
}

// TransferInput moves one serial between accounts.
type TransferInput struct {
	TokenID      string `json:"token_id"`
	SerialNumber int64  `json:"serial_number"`
	FromAccount  string `json:"from_account"`
	ToAccount    string `json:"to_account"`
}

// SerialInfo describes one minted serial as known by the ledger.
type SerialInfo struct {
	SerialNumber  int64     `json:"serial_number"`
	OwnerAccount  string    `json:"owner_account"`
	TransactionID string    `json:"transaction_id"`
	MintedAt      time.Time `json:"minted_at"`
}

// # Client

// Client talks to the ledger service over REST.
type Client struct {
	baseURL    string
	operatorID string
	httpClient *http.Client
}

// NewClient constructs a ledger [Client] for the given service URL.
// The operator ID identifies the platform treasury account and is attached
// to every request.
func NewClient(baseURL, operatorID string) *Client {
	return &Client{
		baseURL:    baseURL,
		operatorID: operatorID,
		httpClient: &http.Client{Timeout: constants.LedgerRequestTimeout},
	}
}

// OperatorID returns the platform treasury account this client acts as.
func (client *Client) OperatorID() string {
	return client.operatorID
}

/*
CreateCollection provisions a new NFT collection token.

Description: Called exactly once per episode. The returned token ID is
immutable and stored on the episode record.

Parameters:
  - context: context.Context
  - input: CreateCollectionInput

Returns:
  - string: The ledger-assigned collection token ID
  - error: apperr.LedgerError on transport or ledger failures
*/
func (client *Client) CreateCollection(context context.Context, input CreateCollectionInput) (string, error) {
	if input.TreasuryAccount == "" {
		input.TreasuryAccount = client.operatorID
	}

	var response struct {
		TokenID string `json:"token_id"`
	}

	if err := client.postJSON(context, "/v1/collections", input, &response); err != nil {
		return "", err
	}

	if response.TokenID == "" {
		return "", apperr.LedgerError(fmt.Errorf("ledger: collection created without token id"))
	}

	return response.TokenID, nil
}

/*
Mint requests new serials from a collection and assigns them to an account.

Description: Mints are slower than other calls because the ledger waits for
consensus. The request uses a dedicated timeout independent of the default
client timeout.

Parameters:
  - context: context.Context
  - input: MintInput

Returns:
  - *MintResult: Assigned serial numbers and the consensus transaction ID
  - error: apperr.LedgerError on transport or ledger failures
*/
func (client *Client) Mint(context context.Context, input MintInput) (*MintResult, error) {
	mintContext, cancel := withMinimumTimeout(context, constants.MintRequestTimeout)
	defer cancel()

	result := &MintResult{}
	path := fmt.Sprintf("/v1/collections/%s/mint", input.TokenID)
	if err := client.postJSON(mintContext, path, input, result); err != nil {
		return nil, err
	}

	if len(result.SerialNumbers) != input.Quantity {
		return nil, apperr.LedgerError(fmt.Errorf(
			"ledger: requested %d serials, received %d", input.Quantity, len(result.SerialNumbers)))
	}

	return result, nil
}

/*
Transfer moves one serial between two accounts.

Parameters:
  - context: context.Context
  - input: TransferInput

Returns:
  - string: The consensus transaction ID
  - error: apperr.LedgerError on transport or ledger failures
*/
func (client *Client) Transfer(context context.Context, input TransferInput) (string, error) {
	var response struct {
		TransactionID string `json:"transaction_id"`
	}

	path := fmt.Sprintf("/v1/collections/%s/transfer", input.TokenID)
	if err := client.postJSON(context, path, input, &response); err != nil {
		return "", err
	}

	return response.TransactionID, nil
}

/*
CollectionSerials lists every serial of a collection with its current owner.

Description: Used by the reconciliation job to repair the local mirror. The
ledger is authoritative; the mirror only ever catches up to it.

Parameters:
  - context: context.Context
  - tokenID: string

Returns:
  - []SerialInfo: All serials known by the ledger for the collection
  - error: apperr.LedgerError on transport or ledger failures
*/
func (client *Client) CollectionSerials(context context.Context, tokenID string) ([]SerialInfo, error) {
	request, err := http.NewRequestWithContext(
		context, http.MethodGet, client.baseURL+"/v1/collections/"+tokenID+"/serials", nil)
	if err != nil {
		return nil, apperr.LedgerError(fmt.Errorf("ledger: failed to build request: %w", err))
	}
	request.Header.Set("X-Operator-ID", client.operatorID)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, apperr.LedgerError(fmt.Errorf("ledger: serials request failed: %w", err))
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, statusError(response)
	}

	var payload struct {
		Serials []SerialInfo `json:"serials"`
	}
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, apperr.LedgerError(fmt.Errorf("ledger: failed to decode serials: %w", err))
	}

	return payload.Serials, nil
}

// # Transport Helpers

// postJSON sends a JSON body and decodes a JSON answer into out (if non-nil).
func (client *Client) postJSON(context context.Context, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return apperr.LedgerError(fmt.Errorf("ledger: failed to encode request: %w", err))
	}

	request, err := http.NewRequestWithContext(
		context, http.MethodPost, client.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return apperr.LedgerError(fmt.Errorf("ledger: failed to build request: %w", err))
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("X-Operator-ID", client.operatorID)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return apperr.LedgerError(fmt.Errorf("ledger: request to %s failed: %w", path, err))
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return statusError(response)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return apperr.LedgerError(fmt.Errorf("ledger: failed to decode response from %s: %w", path, err))
	}

	return nil
}

// statusError converts a non-2xx ledger answer into an AppError, keeping the
// (truncated) body for server-side logs only.
func statusError(response *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
	return apperr.LedgerError(fmt.Errorf("ledger: status %d: %s", response.StatusCode, string(body)))
}

// withMinimumTimeout derives a context that lives at least as long as the
// given duration, so a short-lived parent cannot abandon an in-flight mint.
func withMinimumTimeout(parent context.Context, minimum time.Duration) (context.Context, context.CancelFunc) {
	deadline, ok := parent.Deadline()
	if ok && time.Until(deadline) < minimum {
		return context.WithTimeout(context.WithoutCancel(parent), minimum)
	}
	return context.WithCancel(parent)
}
