// Package etherscan implements the blockchain data source client: the
// three transfer listings plus native/token balance lookups.
package etherscan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/yurenju/paisu/internal/infra/cache"
	"github.com/yurenju/paisu/pkg/logger"
)

const (
	defaultBaseURL = "https://api.etherscan.io/api"
	defaultOffset  = 10000
	requestTimeout = 30 * time.Second

	// minRequestInterval keeps the client under the provider's
	// 5-requests-per-second free-tier limit.
	minRequestInterval = 200 * time.Millisecond
)

// Client is an Etherscan-compatible API client. Every response is
// written through to the injected cache store so that an aborted run
// preserves the data already fetched.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      cache.Store
	logger     *logger.Logger
}

// NewClient creates a new Etherscan API client.
func NewClient(apiKey string, store cache.Store, log *logger.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(minRequestInterval), 1),
		cache:   store,
		logger:  log.WithField("component", "etherscan"),
	}
}

// SetBaseURL overrides the API endpoint (used in tests).
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// GetNormalTransactions lists native-asset transactions for an address
// in ascending block order. startBlock 0 means from genesis.
func (c *Client) GetNormalTransactions(ctx context.Context, address string, startBlock int64) ([]NormalTx, error) {
	var txs []NormalTx
	if err := c.query(ctx, c.listParams("txlist", address, startBlock), &txs); err != nil {
		return nil, fmt.Errorf("failed to list normal transactions: %w", err)
	}
	return txs, nil
}

// GetInternalTransactions lists internally-triggered transfers for an
// address in ascending block order.
func (c *Client) GetInternalTransactions(ctx context.Context, address string, startBlock int64) ([]InternalTx, error) {
	var txs []InternalTx
	if err := c.query(ctx, c.listParams("txlistinternal", address, startBlock), &txs); err != nil {
		return nil, fmt.Errorf("failed to list internal transactions: %w", err)
	}
	return txs, nil
}

// GetErc20Transfers lists token-transfer events for an address in
// ascending block order.
func (c *Client) GetErc20Transfers(ctx context.Context, address string, startBlock int64) ([]Erc20Transfer, error) {
	var transfers []Erc20Transfer
	if err := c.query(ctx, c.listParams("tokentx", address, startBlock), &transfers); err != nil {
		return nil, fmt.Errorf("failed to list token transfers: %w", err)
	}
	return transfers, nil
}

// GetEthBalance returns the current native balance of an address as a
// base-unit decimal string.
func (c *Client) GetEthBalance(ctx context.Context, address string) (string, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "balance")
	params.Set("address", address)
	params.Set("apikey", c.apiKey)

	var balance string
	if err := c.query(ctx, params, &balance); err != nil {
		return "", fmt.Errorf("failed to get native balance: %w", err)
	}
	return balance, nil
}

// GetErc20Balance returns the current balance an address holds of one
// token contract, as a base-unit decimal string.
func (c *Client) GetErc20Balance(ctx context.Context, address, contractAddress string) (string, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "tokenbalance")
	params.Set("address", address)
	params.Set("contractaddress", contractAddress)
	params.Set("apikey", c.apiKey)

	var balance string
	if err := c.query(ctx, params, &balance); err != nil {
		return "", fmt.Errorf("failed to get token balance: %w", err)
	}
	return balance, nil
}

func (c *Client) listParams(action, address string, startBlock int64) url.Values {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", action)
	params.Set("address", address)
	params.Set("sort", "asc")
	params.Set("offset", strconv.Itoa(defaultOffset))
	params.Set("apikey", c.apiKey)
	if startBlock > 0 {
		params.Set("startblock", strconv.FormatInt(startBlock, 10))
	}
	return params
}

// query performs one API call and decodes the result payload into out.
// Responses are always refetched so each run sees current chain state;
// the raw result is still written to the cache store so an aborted run
// keeps what it already paid for.
func (c *Client) query(ctx context.Context, params url.Values, out interface{}) error {
	cacheKey := params.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, cacheKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if message := errorMessage(&envelope); message != "" {
		return fmt.Errorf("provider error: %s", message)
	}

	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}

	if err := c.cache.Put(ctx, cacheKey, string(envelope.Result)); err != nil {
		c.logger.Warn("failed to cache response", "error", err)
	}

	return nil
}

// errorMessage extracts the provider-reported error, if any. A failure
// status with an empty result array (e.g. "No transactions found") is
// not an error.
func errorMessage(envelope *apiResponse) string {
	if envelope.Status != StatusFailure {
		return ""
	}

	var message string
	if err := json.Unmarshal(envelope.Result, &message); err != nil {
		return ""
	}
	return message
}
