// Package linkfetch pulls readable text out of a web page for the
// link-ingestion wizard.
package linkfetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher downloads a page and extracts its visible text.
type Fetcher struct {
	httpClient *http.Client
	maxLength  int
}

// New builds a fetcher; maxLength bounds the extracted text.
func New(maxLength int) *Fetcher {
	if maxLength <= 0 {
		maxLength = 8000
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		maxLength:  maxLength,
	}
}

// Fetch returns the page's readable text, whitespace-collapsed and bounded.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build page request: %w", err)
	}
	req.Header.Set("User-Agent", "caseview-bot/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch page status: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	doc.Find("script, style, noscript, nav, footer").Remove()
	text := collapseWhitespace(doc.Find("body").Text())
	if text == "" {
		return "", fmt.Errorf("no readable text at %s", pageURL)
	}
	if len(text) > f.maxLength {
		text = text[:f.maxLength]
	}
	return text, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
