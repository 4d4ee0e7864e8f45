// Package research looks up supporting authorities for a case summary. Calls
// are best-effort: an empty result set is valid and failures never block
// case assembly.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/pkg/config"
)

// Client calls the case-law search service.
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
	logger     *zap.Logger
}

// New builds a research client from configuration.
func New(cfg config.ResearchConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 3
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Search returns up to maxResults authorities for the query.
func (c *Client) Search(ctx context.Context, query, jurisdictionFilter string) ([]models.ResearchResult, error) {
	if c.baseURL == "" {
		return nil, nil
	}

	params := url.Values{"q": {query}}
	if jurisdictionFilter != "" {
		params.Set("jurisdiction", jurisdictionFilter)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search status: %s", resp.Status)
	}

	var parsed struct {
		Results []models.ResearchResult `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(parsed.Results) > c.maxResults {
		parsed.Results = parsed.Results[:c.maxResults]
	}
	return parsed.Results, nil
}
