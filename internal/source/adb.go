package source

import (
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/resakss/harvester/internal/domain"
)

// adbNews handles the Asian Development Bank news feed. The feed is served
// through FeedBurner, so the real article URL lives in the feedburner
// origLink extension rather than the entry link.
type adbNews struct {
	feedSource
}

// NewADBNews returns the adapter for ADB news.
func NewADBNews(f *Fetcher) FeedAdapter {
	return &adbNews{feedSource{
		fetcher: f,
		name:    "adb-news",
		kind:    domain.KindArticle,
		urls:    []string{"http://feeds.feedburner.com/adb_news"},
		start:   articleEpoch,
	}}
}

func (a *adbNews) Extract(item *gofeed.Item) (Draft, error) {
	url := feedburnerOrigLink(item)
	if url == "" {
		url = item.Link
	}
	if url == "" {
		return Draft{}, fmt.Errorf("feed entry %q has no link", item.Title)
	}
	if item.PublishedParsed == nil {
		return Draft{}, fmt.Errorf("feed entry %q has no published date", item.Title)
	}

	return Draft{
		Title: item.Title,
		URL:   url,
		Body:  item.Description,
		Date:  item.PublishedParsed,
	}, nil
}

// adbPublications handles the ADB publications feed.
type adbPublications struct {
	feedSource
}

// NewADBPublications returns the adapter for ADB publications.
func NewADBPublications(f *Fetcher) FeedAdapter {
	return &adbPublications{feedSource{
		fetcher: f,
		name:    "adb-publications",
		kind:    domain.KindPublication,
		urls:    []string{"http://feeds.feedburner.com/adb_publications"},
		start:   publicationEpoch,
	}}
}

func (a *adbPublications) Extract(item *gofeed.Item) (Draft, error) {
	if item.Link == "" {
		return Draft{}, fmt.Errorf("feed entry %q has no link", item.Title)
	}
	if item.PublishedParsed == nil {
		return Draft{}, fmt.Errorf("feed entry %q has no published date", item.Title)
	}

	return Draft{
		Title: item.Title,
		URL:   item.Link,
		Body:  item.Description,
		Date:  item.PublishedParsed,
	}, nil
}

// feedburnerOrigLink returns the article URL FeedBurner stashes in its
// origLink extension, or "" when the entry has none.
func feedburnerOrigLink(item *gofeed.Item) string {
	exts, ok := item.Extensions["feedburner"]
	if !ok {
		return ""
	}
	for _, ext := range exts["origLink"] {
		if ext.Value != "" {
			return ext.Value
		}
	}
	return ""
}
