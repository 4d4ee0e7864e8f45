// Package extract turns uploaded resources into bounded plain text. PDF text
// is pulled locally; images and audio go through the extraction service.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/pkg/config"
	appErrors "github.com/littleseedlimited/caseview-bot/pkg/errors"
)

// Client resolves resource locators into text.
type Client struct {
	baseURL    string
	maxLength  int
	httpClient *http.Client
	logger     *zap.Logger
}

// New builds an extraction client from configuration.
func New(cfg config.ExtractionConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = 20000
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxLength:  maxLength,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// ExtractText returns the text content of a document or image resource.
func (c *Client) ExtractText(ctx context.Context, locator, mediaTypeHint string) (string, error) {
	var (
		text string
		err  error
	)
	switch {
	case mediaTypeHint == "application/pdf":
		text, err = c.extractPDF(ctx, locator)
	case strings.HasPrefix(mediaTypeHint, "image/"):
		text, err = c.remoteExtract(ctx, "/v1/ocr", locator, mediaTypeHint)
	default:
		text, err = c.remoteExtract(ctx, "/v1/extract", locator, mediaTypeHint)
	}
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrExtractionFailed.Code, appErrors.ErrExtractionFailed.Status, appErrors.ErrExtractionFailed.Message)
	}
	if strings.TrimSpace(text) == "" {
		return "", appErrors.Clone(appErrors.ErrExtractionFailed, "no readable text in the file")
	}
	return c.truncate(text), nil
}

// Transcribe returns the transcript of an audio resource.
func (c *Client) Transcribe(ctx context.Context, locator string) (string, error) {
	text, err := c.remoteExtract(ctx, "/v1/transcribe", locator, "")
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrExtractionFailed.Code, appErrors.ErrExtractionFailed.Status, appErrors.ErrExtractionFailed.Message)
	}
	if strings.TrimSpace(text) == "" {
		return "", appErrors.Clone(appErrors.ErrExtractionFailed, "no speech recognized in the audio")
	}
	return c.truncate(text), nil
}

func (c *Client) extractPDF(ctx context.Context, locator string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return "", fmt.Errorf("build pdf fetch: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch pdf: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch pdf status: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return "", fmt.Errorf("read pdf body: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("copy pdf text: %w", err)
	}
	return buf.String(), nil
}

func (c *Client) remoteExtract(ctx context.Context, path, locator, mediaType string) (string, error) {
	payload, err := json.Marshal(map[string]string{"url": locator, "media_type": mediaType})
	if err != nil {
		return "", fmt.Errorf("marshal extract request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build extract request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("extract request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read extract response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("extract status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode extract response: %w", err)
	}
	return parsed.Text, nil
}

func (c *Client) truncate(text string) string {
	if len(text) <= c.maxLength {
		return text
	}
	c.logger.Debug("extracted text truncated", zap.Int("max_length", c.maxLength))
	cut := c.maxLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
