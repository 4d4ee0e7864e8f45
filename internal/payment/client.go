// Package payment initializes plan-upgrade transactions. The core only needs
// the redirect URL; verification and webhooks live outside this repository.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/littleseedlimited/caseview-bot/pkg/config"
)

// InitRequest carries what the provider needs to open a checkout session.
type InitRequest struct {
	Email       string `json:"email"`
	AmountMinor int64  `json:"amount"`
	Plan        string `json:"plan"`
	AccountRef  string `json:"reference"`
	Currency    string `json:"currency"`
}

// Client calls the payment provider.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// New builds a payment client from configuration.
func New(cfg config.PaymentConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{},
	}
}

// Initialize opens a transaction and returns the checkout URL to redirect
// the user to.
func (c *Client) Initialize(ctx context.Context, req InitRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal init request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build init request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("init request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read init response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("init status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Status bool `json:"status"`
		Data   struct {
			AuthorizationURL string `json:"authorization_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode init response: %w", err)
	}
	if parsed.Data.AuthorizationURL == "" {
		return "", fmt.Errorf("init response missing authorization url")
	}
	return parsed.Data.AuthorizationURL, nil
}
