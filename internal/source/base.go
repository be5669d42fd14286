package source

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/resakss/harvester/internal/domain"
)

// pagedSource carries the fields and fetch step shared by all paginated HTML
// adapters. Concrete adapters embed it and supply NextLink, Items and Extract.
type pagedSource struct {
	fetcher  *Fetcher
	name     string
	kind     domain.Kind
	startURL string
	baseURL  string
	start    time.Time
}

func (s *pagedSource) Name() string         { return s.name }
func (s *pagedSource) Kind() domain.Kind    { return s.kind }
func (s *pagedSource) StartDate() time.Time { return s.start }

// Fetch retrieves pageURL, falling back to the configured start URL when the
// cursor is still undefined.
func (s *pagedSource) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if pageURL == "" {
		pageURL = s.startURL
	}
	return s.fetcher.Document(ctx, pageURL)
}

// feedSource carries the fields and fetch step shared by all feed adapters.
type feedSource struct {
	fetcher *Fetcher
	name    string
	kind    domain.Kind
	urls    []string
	start   time.Time
}

func (s *feedSource) Name() string         { return s.name }
func (s *feedSource) Kind() domain.Kind    { return s.kind }
func (s *feedSource) StartDate() time.Time { return s.start }

func (s *feedSource) Fetch(ctx context.Context) ([]*gofeed.Item, error) {
	return s.fetcher.Feeds(ctx, s.urls...)
}

// selections flattens a matched set into a slice of single-node selections.
func selections(s *goquery.Selection) []*goquery.Selection {
	out := make([]*goquery.Selection, 0, s.Length())
	s.Each(func(_ int, sel *goquery.Selection) {
		out = append(out, sel)
	})
	return out
}

// outerHTML renders a selection back to markup, falling back to its text when
// rendering fails.
func outerHTML(sel *goquery.Selection) string {
	html, err := goquery.OuterHtml(sel)
	if err != nil {
		return sel.Text()
	}
	return html
}
