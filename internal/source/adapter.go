// Package source defines the adapter contract the crawl engine drives, plus
// one concrete adapter per external source.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/resakss/harvester/internal/domain"
)

// Draft holds the normalized fields an adapter extracts from one raw item.
// The engine stamps scrape time and source identity before persisting.
type Draft struct {
	Title     string
	URL       string
	Body      string
	Date      *time.Time
	StartTime *time.Time
	EndTime   *time.Time
}

// Adapter is the capability every source implements. Concrete adapters
// additionally implement PagedAdapter or FeedAdapter; the engine selects the
// retrieval mode by type.
type Adapter interface {
	// Name identifies the adapter. It is stamped on every record it produces
	// and forms part of the dedup key.
	Name() string

	// Kind is the record kind this adapter produces.
	Kind() domain.Kind

	// StartDate is the chronological cutoff: dated items at or before it are
	// not ingested.
	StartDate() time.Time
}

// PagedAdapter retrieves items from a paginated HTML listing.
type PagedAdapter interface {
	Adapter

	// Fetch retrieves the page at pageURL; an empty pageURL means the
	// adapter's configured start URL.
	Fetch(ctx context.Context, pageURL string) (*goquery.Document, error)

	// NextLink returns the URL of the next listing page, or "" when the
	// current page is the last one. Any error is treated by the engine as
	// "no further pages".
	NextLink(doc *goquery.Document) (string, error)

	// Items returns the raw item nodes on the page, in page order.
	Items(doc *goquery.Document) []*goquery.Selection

	// Extract maps one raw item to draft record fields. An error drops only
	// that item.
	Extract(item *goquery.Selection) (Draft, error)
}

// FeedAdapter retrieves items from one or more syndication feeds in a single
// fetch, newest first.
type FeedAdapter interface {
	Adapter

	// Fetch retrieves the full item collection once.
	Fetch(ctx context.Context) ([]*gofeed.Item, error)

	// Extract maps one feed entry to draft record fields.
	Extract(item *gofeed.Item) (Draft, error)
}

// Source start-date thresholds, per kind. Publications reach further back
// because the backing listings are much shallower.
var (
	articleEpoch     = time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC)
	publicationEpoch = time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// All constructs every registered adapter using the given fetcher.
func All(f *Fetcher) []Adapter {
	return []Adapter{
		NewWorldBankSouthAsia(f),
		NewWorldBankEastAsia(f),
		NewASEAN(f),
		NewUNESCAPStories(f),
		NewUCentralAsia(f),
		NewADBNews(f),
		NewCACAARI(f),
		NewUNESCAPEvents(f),
		NewAPAARIEvents(f),
		NewWorldBankSouthAsiaResearch(f),
		NewWorldBankEastAsiaResearch(f),
		NewADBPublications(f),
		NewUNESCAPPublications(f),
	}
}

// Select returns the adapters with the given names, in the order requested.
// An empty name list selects all adapters.
func Select(f *Fetcher, names []string) ([]Adapter, error) {
	all := All(f)
	if len(names) == 0 {
		return all, nil
	}

	byName := make(map[string]Adapter, len(all))
	for _, a := range all {
		byName[a.Name()] = a
	}

	selected := make([]Adapter, 0, len(names))
	for _, name := range names {
		a, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown source %q", name)
		}
		selected = append(selected, a)
	}
	return selected, nil
}
