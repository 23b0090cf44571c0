package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"storyharvest/internal/ports"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	defaultRetries   = 3
	requestTimeout   = 30 * time.Second
)

// Fetcher retrieves pages over HTTP with exponential backoff between
// attempts. Every call retries from zero; there is no circuit breaking.
type Fetcher struct {
	client  *http.Client
	headers map[string]string
	retries int
	logger  *slog.Logger
	sleep   func(time.Duration)
}

var _ ports.PageFetcher = (*Fetcher)(nil)

// New builds a Fetcher. A nil header map gets a browser-like user agent;
// retries below 1 fall back to the default attempt count.
func New(headers map[string]string, retries int, logger *slog.Logger) *Fetcher {
	if retries < 1 {
		retries = defaultRetries
	}
	if len(headers) == 0 {
		headers = map[string]string{"User-Agent": defaultUserAgent}
	}
	return &Fetcher{
		client:  &http.Client{Timeout: requestTimeout},
		headers: headers,
		retries: retries,
		logger:  logger,
		sleep:   time.Sleep,
	}
}

// Fetch issues a GET and parses the response body. Attempt failures sleep
// 2^attempt seconds before retrying; exhaustion returns the last error so the
// caller can treat the page as missing and continue.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	var lastErr error
	for attempt := 0; attempt < f.retries; attempt++ {
		f.logger.Info("fetching page", "url", pageURL, "attempt", attempt+1, "retries", f.retries)

		doc, err := f.fetchOnce(ctx, pageURL)
		if err == nil {
			return doc, nil
		}

		lastErr = err
		f.logger.Error("fetch attempt failed", "url", pageURL, "error", err)
		if attempt < f.retries-1 {
			f.sleep(time.Duration(1<<attempt) * time.Second)
		}
	}
	return nil, fmt.Errorf("fetch %s: %w", pageURL, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	// Sniffs the body rather than trusting the Content-Type header alone.
	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}
