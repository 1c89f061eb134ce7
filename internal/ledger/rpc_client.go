package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"holder-sentinel/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient implements Gateway against an indexer HTTP JSON-RPC 2.0 endpoint.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

// Compile-time interface check.
var _ Gateway = (*HTTPClient)(nil)

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new ledger gateway HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with retries and exponential backoff.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// holderRow is the raw RPC row for getTokenHolders.
type holderRow struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	TxCount int    `json:"txCount"`
}

// GetHolders retrieves the largest holders of a token, balance-descending.
func (c *HTTPClient) GetHolders(ctx context.Context, tokenAddress string, network domain.Network, limit int) ([]domain.HolderRecord, error) {
	params := []interface{}{
		tokenAddress,
		map[string]interface{}{
			"network": network.String(),
			"limit":   limit,
		},
	}

	var rows []holderRow
	if err := c.call(ctx, "getTokenHolders", params, &rows); err != nil {
		return nil, err
	}

	holders := make([]domain.HolderRecord, 0, len(rows))
	for _, row := range rows {
		balance, err := strconv.ParseFloat(row.Balance, 64)
		if err != nil {
			// Malformed row, skip rather than fail the snapshot
			continue
		}
		holders = append(holders, domain.HolderRecord{
			Address: row.Address,
			Balance: balance,
			TxCount: row.TxCount,
		})
	}
	return holders, nil
}

// transferRow is the raw RPC row for getTokenTransfers.
type transferRow struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
	TxSignature string `json:"txSignature"`
	Slot        int64  `json:"slot"`
	Timestamp   int64  `json:"timestamp"`
}

// GetTransferHistory retrieves recent transfers touching a wallet, newest first.
// Rows with a missing or unparsable amount are kept with Amount=0 so callers
// can decide how to treat them.
func (c *HTTPClient) GetTransferHistory(ctx context.Context, walletAddress, tokenAddress string, network domain.Network, limit int) ([]domain.Transfer, error) {
	params := []interface{}{
		walletAddress,
		tokenAddress,
		map[string]interface{}{
			"network": network.String(),
			"limit":   limit,
		},
	}

	var rows []transferRow
	if err := c.call(ctx, "getTokenTransfers", params, &rows); err != nil {
		return nil, err
	}

	transfers := make([]domain.Transfer, 0, len(rows))
	for _, row := range rows {
		amount, err := strconv.ParseFloat(row.Amount, 64)
		if err != nil {
			amount = 0
		}
		transfers = append(transfers, domain.Transfer{
			From:        row.From,
			To:          row.To,
			Amount:      amount,
			TxSignature: row.TxSignature,
			Slot:        row.Slot,
			Timestamp:   row.Timestamp,
		})
	}
	return transfers, nil
}

// deployerResult is the raw RPC response for getTokenDeployer.
type deployerResult struct {
	Deployer string `json:"deployer"`
}

// GetDeployer resolves the address that created the token's contract.
func (c *HTTPClient) GetDeployer(ctx context.Context, tokenAddress string, network domain.Network) (string, error) {
	params := []interface{}{
		tokenAddress,
		map[string]interface{}{"network": network.String()},
	}

	var result deployerResult
	if err := c.call(ctx, "getTokenDeployer", params, &result); err != nil {
		return "", err
	}
	return result.Deployer, nil
}

// balanceResult is the raw RPC response for getWalletTokenBalance.
type balanceResult struct {
	Balance string `json:"balance"`
}

// GetBalance retrieves a wallet's current balance of the token.
func (c *HTTPClient) GetBalance(ctx context.Context, walletAddress, tokenAddress string, network domain.Network) (float64, error) {
	params := []interface{}{
		walletAddress,
		tokenAddress,
		map[string]interface{}{"network": network.String()},
	}

	var result balanceResult
	if err := c.call(ctx, "getWalletTokenBalance", params, &result); err != nil {
		return 0, err
	}

	balance, err := strconv.ParseFloat(result.Balance, 64)
	if err != nil {
		return 0, fmt.Errorf("parse balance %q: %w", result.Balance, err)
	}
	return balance, nil
}

// supplyResult is the raw RPC response for getTokenSupply.
type supplyResult struct {
	Supply string `json:"supply"`
}

// GetTotalSupply retrieves the token's total supply.
func (c *HTTPClient) GetTotalSupply(ctx context.Context, tokenAddress string, network domain.Network) (float64, error) {
	params := []interface{}{
		tokenAddress,
		map[string]interface{}{"network": network.String()},
	}

	var result supplyResult
	if err := c.call(ctx, "getTokenSupply", params, &result); err != nil {
		return 0, err
	}

	supply, err := strconv.ParseFloat(result.Supply, 64)
	if err != nil {
		return 0, fmt.Errorf("parse supply %q: %w", result.Supply, err)
	}
	return supply, nil
}
