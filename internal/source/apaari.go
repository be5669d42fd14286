package source

import (
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/resakss/harvester/internal/domain"
)

// apaariEvents handles the APAARI events feed. The feed does not expose
// parseable event start/end times, so records carry the entry's published
// date only.
type apaariEvents struct {
	feedSource
}

// NewAPAARIEvents returns the adapter for APAARI events.
func NewAPAARIEvents(f *Fetcher) FeedAdapter {
	return &apaariEvents{feedSource{
		fetcher: f,
		name:    "apaari-events",
		kind:    domain.KindEvent,
		urls:    []string{"http://www.apaari.org/events/feed/"},
		start:   articleEpoch,
	}}
}

func (a *apaariEvents) Extract(item *gofeed.Item) (Draft, error) {
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
