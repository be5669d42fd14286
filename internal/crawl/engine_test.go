package crawl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resakss/harvester/internal/domain"
	"github.com/resakss/harvester/internal/logger"
	"github.com/resakss/harvester/internal/sanitize"
	"github.com/resakss/harvester/internal/source"
)

var testCutoff = time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC)

func dateAfterCutoff(days int) *time.Time {
	d := testCutoff.AddDate(0, 0, days)
	return &d
}

// fakeStore is an in-memory crawl.Store. FindBy sees both committed and
// uncommitted records, matching the read-your-writes behavior of the real
// store's open transaction.
type fakeStore struct {
	uncommitted []*domain.Record
	committed   []*domain.Record
	commits     int
	commitErr   error
	insertErr   error
}

func (s *fakeStore) key(kind domain.Kind, url, src string) string {
	return fmt.Sprintf("%s|%s|%s", kind, url, src)
}

func (s *fakeStore) FindBy(_ context.Context, kind domain.Kind, url, src string) (*domain.Record, error) {
	want := s.key(kind, url, src)
	for _, rec := range append(append([]*domain.Record{}, s.committed...), s.uncommitted...) {
		if s.key(rec.Kind, rec.URL, rec.SourceIdentity) == want {
			return rec, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) Insert(_ context.Context, rec *domain.Record) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.uncommitted = append(s.uncommitted, rec)
	return nil
}

func (s *fakeStore) Commit(context.Context) error {
	if s.commitErr != nil {
		return s.commitErr
	}
	s.commits++
	s.committed = append(s.committed, s.uncommitted...)
	s.uncommitted = nil
	return nil
}

func (s *fakeStore) seed(kind domain.Kind, url, src string) {
	s.committed = append(s.committed, &domain.Record{Kind: kind, URL: url, SourceIdentity: src})
}

func (s *fakeStore) committedURLs() []string {
	urls := make([]string, 0, len(s.committed))
	for _, rec := range s.committed {
		urls = append(urls, rec.URL)
	}
	return urls
}

// fakeFeed serves canned gofeed items.
type fakeFeed struct {
	name     string
	kind     domain.Kind
	items    []*gofeed.Item
	fetchErr error
}

func (f *fakeFeed) Name() string         { return f.name }
func (f *fakeFeed) Kind() domain.Kind    { return f.kind }
func (f *fakeFeed) StartDate() time.Time { return testCutoff }

func (f *fakeFeed) Fetch(context.Context) ([]*gofeed.Item, error) {
	return f.items, f.fetchErr
}

func (f *fakeFeed) Extract(item *gofeed.Item) (source.Draft, error) {
	if item.Title == "" {
		return source.Draft{}, errors.New("entry has no title")
	}
	return source.Draft{
		Title: item.Title,
		URL:   item.Link,
		Body:  item.Description,
		Date:  item.PublishedParsed,
	}, nil
}

// fakePage describes one listing page for fakePaged. Items are rendered into
// an HTML document so the adapter works on real goquery selections.
type fakePage struct {
	items    []fakeItem
	next     string
	fetchErr error
}

type fakeItem struct {
	title string
	url   string
	body  string
	date  string // RFC3339; empty means no date
	bad   bool   // extraction fails for this item
}

type fakePaged struct {
	name  string
	kind  domain.Kind
	pages map[string]fakePage
}

func (p *fakePaged) Name() string         { return p.name }
func (p *fakePaged) Kind() domain.Kind    { return p.kind }
func (p *fakePaged) StartDate() time.Time { return testCutoff }

func (p *fakePaged) Fetch(_ context.Context, pageURL string) (*goquery.Document, error) {
	if pageURL == "" {
		pageURL = "start"
	}
	page, ok := p.pages[pageURL]
	if !ok {
		return nil, fmt.Errorf("no such page %q", pageURL)
	}
	if page.fetchErr != nil {
		return nil, page.fetchErr
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><span id="next">%s</span>`, page.next)
	for _, item := range page.items {
		bad := ""
		if item.bad {
			bad = "yes"
		}
		fmt.Fprintf(&b,
			`<div class="item" data-title=%q data-url=%q data-date=%q data-bad=%q>%s</div>`,
			item.title, item.url, item.date, bad, item.body)
	}
	b.WriteString(`</body></html>`)

	return goquery.NewDocumentFromReader(strings.NewReader(b.String()))
}

func (p *fakePaged) NextLink(doc *goquery.Document) (string, error) {
	next := doc.Find("#next").Text()
	if next == "" {
		return "", errors.New("no next link on page")
	}
	return next, nil
}

func (p *fakePaged) Items(doc *goquery.Document) []*goquery.Selection {
	var items []*goquery.Selection
	doc.Find("div.item").Each(func(_ int, sel *goquery.Selection) {
		items = append(items, sel)
	})
	return items
}

func (p *fakePaged) Extract(item *goquery.Selection) (source.Draft, error) {
	if item.AttrOr("data-bad", "") != "" {
		return source.Draft{}, errors.New("malformed listing item")
	}

	draft := source.Draft{
		Title: item.AttrOr("data-title", ""),
		URL:   item.AttrOr("data-url", ""),
		Body:  item.Text(),
	}
	if raw := item.AttrOr("data-date", ""); raw != "" {
		d, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return source.Draft{}, err
		}
		draft.Date = &d
	}
	return draft, nil
}

// bareAdapter implements neither retrieval mode.
type bareAdapter struct{}

func (bareAdapter) Name() string         { return "bare" }
func (bareAdapter) Kind() domain.Kind    { return domain.KindArticle }
func (bareAdapter) StartDate() time.Time { return testCutoff }

func newTestEngine(store *fakeStore) *Engine {
	return NewEngine(store, sanitize.New(), logger.NewNopLogger())
}

func feedItem(title, url string, published *time.Time) *gofeed.Item {
	return &gofeed.Item{
		Title:           title,
		Link:            url,
		Description:     "<p>" + title + "</p>",
		PublishedParsed: published,
	}
}

func TestRunFeedSavesNewItems(t *testing.T) {
	store := &fakeStore{}
	adapter := &fakeFeed{
		name: "feed-src",
		kind: domain.KindArticle,
		items: []*gofeed.Item{
			feedItem("A", "https://example.org/a", dateAfterCutoff(30)),
			feedItem("B", "https://example.org/b", dateAfterCutoff(20)),
		},
	}

	require.NoError(t, newTestEngine(store).Run(context.Background(), adapter))

	assert.Equal(t, []string{"https://example.org/a", "https://example.org/b"}, store.committedURLs())
	assert.Equal(t, 1, store.commits)

	rec := store.committed[0]
	assert.Equal(t, "feed-src", rec.SourceIdentity)
	assert.Equal(t, domain.KindArticle, rec.Kind)
	assert.False(t, rec.TimeScraped.IsZero())
}

func TestRunFeedHaltsAtDuplicate(t *testing.T) {
	store := &fakeStore{}
	store.seed(domain.KindArticle, "https://example.org/c", "feed-src")

	adapter := &fakeFeed{
		name: "feed-src",
		kind: domain.KindArticle,
		items: []*gofeed.Item{
			feedItem("A", "https://example.org/a", dateAfterCutoff(30)),
			feedItem("B", "https://example.org/b", dateAfterCutoff(20)),
			feedItem("C", "https://example.org/c", dateAfterCutoff(10)),
			feedItem("D", "https://example.org/d", dateAfterCutoff(5)),
		},
	}

	require.NoError(t, newTestEngine(store).Run(context.Background(), adapter))

	// A and B are new; the duplicate C ends the pass before D is looked at.
	urls := store.committedURLs()
	assert.Contains(t, urls, "https://example.org/a")
	assert.Contains(t, urls, "https://example.org/b")
	assert.NotContains(t, urls, "https://example.org/d")
}

func TestRunFeedHaltsAtDateLimit(t *testing.T) {
	store := &fakeStore{}
	old := testCutoff.AddDate(0, 0, -1)

	adapter := &fakeFeed{
		name: "feed-src",
		kind: domain.KindArticle,
		items: []*gofeed.Item{
			feedItem("A", "https://example.org/a", dateAfterCutoff(30)),
			feedItem("Old", "https://example.org/old", &old),
			feedItem("B", "https://example.org/b", dateAfterCutoff(20)),
		},
	}

	require.NoError(t, newTestEngine(store).Run(context.Background(), adapter))

	assert.Equal(t, []string{"https://example.org/a"}, store.committedURLs())
}

func TestRunFeedCutoffIsInclusive(t *testing.T) {
	store := &fakeStore{}
	atCutoff := testCutoff

	adapter := &fakeFeed{
		name:  "feed-src",
		kind:  domain.KindArticle,
		items: []*gofeed.Item{feedItem("A", "https://example.org/a", &atCutoff)},
	}

	require.NoError(t, newTestEngine(store).Run(context.Background(), adapter))
	assert.Empty(t, store.committedURLs())
}

func TestRunFeedDropsUndatedArticle(t *testing.T) {
	store := &fakeStore{}
	adapter := &fakeFeed{
		name: "feed-src",
		kind: domain.KindArticle,
		items: []*gofeed.Item{
			feedItem("Undated", "https://example.org/undated", nil),
			feedItem("B", "https://example.org/b", dateAfterCutoff(20)),
		},
	}

	require.NoError(t, newTestEngine(store).Run(context.Background(), adapter))

	// The undated item is dropped, not fatal, and the pass continues.
	assert.Equal(t, []string{"https://example.org/b"}, store.committedURLs())
}

func TestRunFeedEventsExemptFromCutoff(t *testing.T) {
	store := &fakeStore{}
	adapter := &fakeFeed{
		name: "events-src",
		kind: domain.KindEvent,
		items: []*gofeed.Item{
			feedItem("Workshop", "https://example.org/w", nil),
		},
	}

	require.NoError(t, newTestEngine(store).Run(context.Background(), adapter))

	assert.Equal(t, []string{"https://example.org/w"}, store.committedURLs())
}

func TestRunFeedSkipsMalformedEntry(t *testing.T) {
	store := &fakeStore{}
	adapter := &fakeFeed{
		name: "feed-src",
		kind: domain.KindArticle,
		items: []*gofeed.Item{
			feedItem("", "https://example.org/broken", dateAfterCutoff(30)),
			feedItem("B", "https://example.org/b", dateAfterCutoff(20)),
		},
	}

	require.NoError(t, newTestEngine(store).Run(context.Background(), adapter))
	assert.Equal(t, []string{"https://example.org/b"}, store.committedURLs())
}

func TestRunFeedFetchErrorAbortsPass(t *testing.T) {
	store := &fakeStore{}
	adapter := &fakeFeed{
		name:     "feed-src",
		kind:     domain.KindArticle,
		fetchErr: errors.New("connection refused"),
	}

	err := newTestEngine(store).Run(context.Background(), adapter)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, store.committedURLs())
}

func TestRunFeedSanitizesBody(t *testing.T) {
	store := &fakeStore{}
	item := feedItem("A", "https://example.org/a", dateAfterCutoff(30))
	item.Description = `<p>Summary</p><script>alert("x")</script>`

	adapter := &fakeFeed{name: "feed-src", kind: domain.KindArticle, items: []*gofeed.Item{item}}

	require.NoError(t, newTestEngine(store).Run(context.Background(), adapter))
	require.Len(t, store.committed, 1)
	assert.Equal(t, "<p>Summary</p>", store.committed[0].Body)
}

func TestRunFeedRerunSavesNothing(t *testing.T) {
	store := &fakeStore{}
	adapter := &fakeFeed{
		name: "feed-src",
		kind: domain.KindArticle,
		items: []*gofeed.Item{
			feedItem("A", "https://example.org/a", dateAfterCutoff(30)),
			feedItem("B", "https://example.org/b", dateAfterCutoff(20)),
		},
	}

	engine := newTestEngine(store)
	require.NoError(t, engine.Run(context.Background(), adapter))
	require.Len(t, store.committed, 2)

	require.NoError(t, engine.Run(context.Background(), adapter))
	assert.Len(t, store.committed, 2, "second pass over identical feed saves nothing")
}

func TestRunPagedWalksAllPages(t *testing.T) {
	store := &fakeStore{}
	adapter := &fakePaged{
		name: "paged-src",
		kind: domain.KindArticle,
		pages: map[string]fakePage{
			"start": {
				items: []fakeItem{
					{title: "A", url: "https://example.org/a", date: "2026-01-10T00:00:00Z"},
					{title: "B", url: "https://example.org/b", date: "2026-01-09T00:00:00Z"},
				},
				next: "page-2",
			},
			"page-2": {
				items: []fakeItem{
					{title: "C", url: "https://example.org/c", date: "2026-01-08T00:00:00Z"},
				},
			},
		},
	}

	require.NoError(t, newTestEngine(store).Run(context.Background(), adapter))

	assert.Equal(t,
		[]string{"https://example.org/a", "https://example.org/b", "https://example.org/c"},
		store.committedURLs())
	// One commit per page plus the final commit on the way out.
	assert.GreaterOrEqual(t, store.commits, 2)
}

func TestRunPagedHaltsMidPageOnDuplicate(t *testing.T) {
	store := &fakeStore{}
	store.seed(domain.KindArticle, "https://example.org/b", "paged-src")

	adapter := &fakePaged{
		name: "paged-src",
		kind: domain.KindArticle,
		pages: map[string]fakePage{
			"start": {
				items: []fakeItem{
					{title: "A", url: "https://example.org/a", date: "2026-01-10T00:00:00Z"},
					{title: "B", url: "https://example.org/b", date: "2026-01-09T00:00:00Z"},
					{title: "C", url: "https://example.org/c", date: "2026-01-08T00:00:00Z"},
				},
				next: "page-2",
			},
			"page-2": {
				items: []fakeItem{
					{title: "D", url: "https://example.org/d", date: "2026-01-07T00:00:00Z"},
				},
			},
		},
	}

	require.NoError(t, newTestEngine(store).Run(context.Background(), adapter))

	// The duplicate ends the whole pass: C on the same page and all of page 2
	// are never ingested, but A is committed.
	urls := store.committedURLs()
	assert.Contains(t, urls, "https://example.org/a")
	assert.NotContains(t, urls, "https://example.org/c")
	assert.NotContains(t, urls, "https://example.org/d")
}

func TestRunPagedFetchErrorKeepsEarlierPages(t *testing.T) {
	store := &fakeStore{}
	adapter := &fakePaged{
		name: "paged-src",
		kind: domain.KindArticle,
		pages: map[string]fakePage{
			"start": {
				items: []fakeItem{
					{title: "A", url: "https://example.org/a", date: "2026-01-10T00:00:00Z"},
				},
				next: "page-2",
			},
			"page-2": {fetchErr: errors.New("504 gateway timeout")},
		},
	}

	err := newTestEngine(store).Run(context.Background(), adapter)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "504")

	// Page 1 was committed before the failure.
	assert.Equal(t, []string{"https://example.org/a"}, store.committedURLs())
}

func TestRunPagedSkipsMalformedItem(t *testing.T) {
	store := &fakeStore{}
	adapter := &fakePaged{
		name: "paged-src",
		kind: domain.KindArticle,
		pages: map[string]fakePage{
			"start": {
				items: []fakeItem{
					{title: "A", url: "https://example.org/a", date: "2026-01-10T00:00:00Z"},
					{bad: true},
					{title: "C", url: "https://example.org/c", date: "2026-01-08T00:00:00Z"},
				},
			},
		},
	}

	require.NoError(t, newTestEngine(store).Run(context.Background(), adapter))
	assert.Equal(t, []string{"https://example.org/a", "https://example.org/c"}, store.committedURLs())
}

func TestRunPagedMissingNextLinkEndsPass(t *testing.T) {
	store := &fakeStore{}
	// next is empty, so the fake's NextLink returns an error; the engine must
	// treat that as the last page, not as a failure.
	adapter := &fakePaged{
		name: "paged-src",
		kind: domain.KindArticle,
		pages: map[string]fakePage{
			"start": {
				items: []fakeItem{
					{title: "A", url: "https://example.org/a", date: "2026-01-10T00:00:00Z"},
				},
			},
		},
	}

	require.NoError(t, newTestEngine(store).Run(context.Background(), adapter))
	assert.Equal(t, []string{"https://example.org/a"}, store.committedURLs())
}

func TestRunCommitErrorSurfaces(t *testing.T) {
	store := &fakeStore{commitErr: errors.New("deadlock detected")}
	adapter := &fakeFeed{
		name:  "feed-src",
		kind:  domain.KindArticle,
		items: []*gofeed.Item{feedItem("A", "https://example.org/a", dateAfterCutoff(30))},
	}

	err := newTestEngine(store).Run(context.Background(), adapter)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock")
}

func TestRunInsertErrorAbortsPass(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("unique violation")}
	adapter := &fakeFeed{
		name:  "feed-src",
		kind:  domain.KindArticle,
		items: []*gofeed.Item{feedItem("A", "https://example.org/a", dateAfterCutoff(30))},
	}

	err := newTestEngine(store).Run(context.Background(), adapter)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unique violation")
}

func TestRunRejectsModelessAdapter(t *testing.T) {
	err := newTestEngine(&fakeStore{}).Run(context.Background(), bareAdapter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieval mode")
}
