// Package ai wraps the analysis provider behind the narrow contract the flow
// controllers consume. Every method can fail; callers own the fallback and
// never surface a raw provider fault to the user.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/pkg/config"
)

// Client calls a completion-style HTTP provider.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[string]
	logger     *zap.Logger
}

// New builds a client from configuration.
func New(cfg config.AIConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "ai-provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		logger:     logger,
	}
}

// Analyze runs the structured case analysis over raw facts.
func (c *Client) Analyze(ctx context.Context, text string) (models.Analysis, error) {
	raw, err := c.generate(ctx, buildAnalysisPrompt(text), true)
	if err != nil {
		return models.Analysis{}, err
	}

	var result models.Analysis
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &result); err != nil {
		return models.Analysis{}, fmt.Errorf("parse analysis json: %w", err)
	}
	if result.ViabilityScore < 0 {
		result.ViabilityScore = 0
	}
	if result.ViabilityScore > 100 {
		result.ViabilityScore = 100
	}
	if result.KeyIssues == nil {
		result.KeyIssues = []string{}
	}
	return result, nil
}

// Ask answers one question against the stored case facts.
func (c *Client) Ask(ctx context.Context, caseContext, question string) (string, error) {
	return c.generate(ctx, buildAskPrompt(caseContext, question), false)
}

// Simulate produces a free-form outcome narrative from the case facts.
func (c *Client) Simulate(ctx context.Context, facts string) (string, error) {
	return c.generate(ctx, buildSimulationPrompt(facts, nil), false)
}

// SimulateWithParameters runs the simulation constrained by the five
// structured scenario answers.
func (c *Client) SimulateWithParameters(ctx context.Context, facts string, params models.ScenarioParams) (string, error) {
	return c.generate(ctx, buildSimulationPrompt(facts, &params), false)
}

func (c *Client) generate(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	return c.breaker.Execute(func() (string, error) {
		reqBody := map[string]any{
			"model":  c.model,
			"prompt": prompt,
			"stream": false,
		}
		if jsonMode {
			reqBody["format"] = "json"
		}

		payload, err := json.Marshal(reqBody)
		if err != nil {
			return "", fmt.Errorf("marshal generate request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("build generate request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("generate request: %w", err)
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return "", fmt.Errorf("read generate response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("generate status %s: %s", resp.Status, strings.TrimSpace(string(body)))
		}

		var parsed struct {
			Response string `json:"response"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", fmt.Errorf("decode generate response: %w", err)
		}
		if strings.TrimSpace(parsed.Response) == "" {
			return "", fmt.Errorf("empty generate response")
		}
		return parsed.Response, nil
	})
}

// extractJSONObject trims any provider chatter around the first JSON object.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return raw
	}
	return raw[start : end+1]
}
