package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// Fetcher performs the outbound HTTP work shared by all adapters: fetching
// listing pages as parsed documents and syndication feeds as entry lists.
// Every call carries the configured per-call timeout through the underlying
// client.
type Fetcher struct {
	client    *http.Client
	parser    *gofeed.Parser
	userAgent string
}

// NewFetcher creates a fetcher with the given per-call timeout and user agent.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	client := &http.Client{Timeout: timeout}

	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = userAgent

	return &Fetcher{
		client:    client,
		parser:    parser,
		userAgent: userAgent,
	}
}

// Document fetches url and parses the response body as an HTML document.
func (f *Fetcher) Document(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, doErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	doc, parseErr := goquery.NewDocumentFromReader(resp.Body)
	if parseErr != nil {
		return nil, fmt.Errorf("parse %s: %w", url, parseErr)
	}
	return doc, nil
}

// Feed fetches and parses one syndication feed, returning its entries in feed
// order.
func (f *Fetcher) Feed(ctx context.Context, url string) ([]*gofeed.Item, error) {
	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}
	return feed.Items, nil
}

// Feeds aggregates several underlying feeds into one logical collection,
// preserving per-feed order and the order of the given URLs.
func (f *Fetcher) Feeds(ctx context.Context, urls ...string) ([]*gofeed.Item, error) {
	var items []*gofeed.Item
	for _, url := range urls {
		entries, err := f.Feed(ctx, url)
		if err != nil {
			return nil, err
		}
		items = append(items, entries...)
	}
	return items, nil
}
