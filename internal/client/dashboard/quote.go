// Package dashboard assembles the home screen: greeting, quote, progress and upcoming goals.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// FallbackQuote is shown when the quote service is slow or broken.
var FallbackQuote = Quote{Text: "Act as if it were impossible to fail."}

// DefaultQuoteTimeout bounds the quote request.
const DefaultQuoteTimeout = 3 * time.Second

// Quote is a single inspirational quote.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author,omitempty"`
}

// QuoteFetcher reads quotes from a zenquotes-style endpoint returning [{"q": ..., "a": ...}].
type QuoteFetcher struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

func NewQuoteFetcher(url string, client *http.Client, timeout time.Duration) *QuoteFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultQuoteTimeout
	}
	return &QuoteFetcher{url: url, client: client, timeout: timeout}
}

// Fetch returns the first quote of the response.
func (f *QuoteFetcher) Fetch(ctx context.Context) (Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return Quote{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.client.Do(req)
	if err != nil {
		return Quote{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("quote: unexpected status %s", resp.Status)
	}

	var body []struct {
		Q string `json:"q"`
		A string `json:"a"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return Quote{}, fmt.Errorf("quote: decode: %w", err)
	}
	if len(body) == 0 || strings.TrimSpace(body[0].Q) == "" {
		return Quote{}, fmt.Errorf("quote: empty response")
	}
	return Quote{Text: strings.TrimSpace(body[0].Q), Author: strings.TrimSpace(body[0].A)}, nil
}
