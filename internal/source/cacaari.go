package source

import (
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/resakss/harvester/internal/domain"
)

// cacaari handles the CACAARI (Central Asia and the Caucasus agricultural
// research association) news feed. Entry GUIDs are the canonical article URLs.
type cacaari struct {
	feedSource
}

// NewCACAARI returns the adapter for CACAARI news.
func NewCACAARI(f *Fetcher) FeedAdapter {
	return &cacaari{feedSource{
		fetcher: f,
		name:    "cacaari",
		kind:    domain.KindArticle,
		urls:    []string{"http://www.cacaari.org/news/rss"},
		start:   articleEpoch,
	}}
}

func (c *cacaari) Extract(item *gofeed.Item) (Draft, error) {
	url := item.GUID
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
