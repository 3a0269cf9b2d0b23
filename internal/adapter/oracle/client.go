package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"relief-disbursement-gateway/config"
)

// Client fetches wallet balances from the external ledger oracle over
// HTTP. Any failure here is surfaced as an error so callers fail
// closed rather than authorizing against stale or unknown balances.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a balance oracle client.
func NewClient(cfg config.OracleConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

type balanceResponse struct {
	Beneficiary string `json:"beneficiary"`
	Balance     int64  `json:"balance"` // minor units
}

// WalletBalance returns the beneficiary's total wallet balance.
func (c *Client) WalletBalance(ctx context.Context, beneficiary string) (int64, error) {
	endpoint := fmt.Sprintf("%s/wallets/%s/balance", c.baseURL, url.PathEscape(beneficiary))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build oracle request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("query balance oracle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("balance oracle returned status %d", resp.StatusCode)
	}

	var body balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode oracle response: %w", err)
	}
	if body.Balance < 0 {
		return 0, fmt.Errorf("balance oracle returned negative balance %d", body.Balance)
	}
	return body.Balance, nil
}
