package source

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/resakss/harvester/internal/domain"
)

const unescapBase = "http://www.unescap.org"

// unescapStories handles the UNESCAP feature stories listing. The listing has
// no pagination; one page per pass.
type unescapStories struct {
	pagedSource
}

// NewUNESCAPStories returns the adapter for UNESCAP feature stories.
func NewUNESCAPStories(f *Fetcher) PagedAdapter {
	return &unescapStories{pagedSource{
		fetcher:  f,
		name:     "unescap-stories",
		kind:     domain.KindArticle,
		startURL: unescapBase + "/media-centre/feature-stories",
		baseURL:  unescapBase,
		start:    articleEpoch,
	}}
}

func (u *unescapStories) NextLink(doc *goquery.Document) (string, error) {
	return "", nil
}

func (u *unescapStories) Items(doc *goquery.Document) []*goquery.Selection {
	return selections(doc.Find("div.view-mode-feature_story .group-right"))
}

func (u *unescapStories) Extract(item *goquery.Selection) (Draft, error) {
	link := item.Find("h2 a").First()
	title := strings.TrimSpace(link.Text())
	href, ok := link.Attr("href")
	if !ok || title == "" {
		return Draft{}, fmt.Errorf("story missing title link")
	}

	date, err := ParseDate(item.Find(".date-display-single").First().Text())
	if err != nil {
		return Draft{}, fmt.Errorf("parse story date: %w", err)
	}

	return Draft{
		Title: title,
		URL:   u.baseURL + href,
		Body:  outerHTML(item.Find("div.field-name-body").First()),
		Date:  &date,
	}, nil
}

// unescapEvents handles the UNESCAP upcoming events listing. Events carry a
// start time and sometimes an end time instead of a publication date.
type unescapEvents struct {
	pagedSource
}

// NewUNESCAPEvents returns the adapter for UNESCAP upcoming events.
func NewUNESCAPEvents(f *Fetcher) PagedAdapter {
	return &unescapEvents{pagedSource{
		fetcher:  f,
		name:     "unescap-events",
		kind:     domain.KindEvent,
		startURL: unescapBase + "/events/upcoming",
		baseURL:  unescapBase,
		start:    articleEpoch,
	}}
}

func (u *unescapEvents) NextLink(doc *goquery.Document) (string, error) {
	href, ok := doc.Find("li.pager-next a").First().Attr("href")
	if !ok {
		return "", fmt.Errorf("no next link on page")
	}
	return u.baseURL + href, nil
}

func (u *unescapEvents) Items(doc *goquery.Document) []*goquery.Selection {
	return selections(doc.Find("div.item-list li.views-row"))
}

func (u *unescapEvents) Extract(item *goquery.Selection) (Draft, error) {
	link := item.Find("h2 a").First()
	title := strings.TrimSpace(link.Text())
	href, ok := link.Attr("href")
	if !ok || title == "" {
		return Draft{}, fmt.Errorf("event missing title link")
	}

	var startTime, endTime *time.Time
	dates := item.Find("div.field-name-field-event-dates").First()

	if single := dates.Find("span.date-display-single").First(); single.Length() > 0 {
		t, err := ParseDate(single.Text())
		if err != nil {
			return Draft{}, fmt.Errorf("parse event date: %w", err)
		}
		startTime = &t
	} else {
		start, err := ParseDate(dates.Find("span.date-display-start").First().Text())
		if err != nil {
			return Draft{}, fmt.Errorf("parse event start: %w", err)
		}
		end, err := ParseDate(dates.Find("span.date-display-end").First().Text())
		if err != nil {
			return Draft{}, fmt.Errorf("parse event end: %w", err)
		}
		startTime, endTime = &start, &end
	}

	// The listing has no body text as such; carry the event type and venue
	// blocks so the record is self-describing.
	body := outerHTML(item.Find("div.field-name-field-event-type").First())
	if venue := item.Find("div.field-name-venue").First(); venue.Length() > 0 {
		body += outerHTML(venue)
	}

	return Draft{
		Title:     title,
		URL:       u.baseURL + href,
		Body:      body,
		StartTime: startTime,
		EndTime:   endTime,
	}, nil
}

// unescapPublications handles the UNESCAP publications listing.
type unescapPublications struct {
	pagedSource
}

// NewUNESCAPPublications returns the adapter for UNESCAP publications.
func NewUNESCAPPublications(f *Fetcher) PagedAdapter {
	return &unescapPublications{pagedSource{
		fetcher:  f,
		name:     "unescap-publications",
		kind:     domain.KindPublication,
		startURL: unescapBase + "/publications",
		baseURL:  unescapBase,
		start:    publicationEpoch,
	}}
}

func (u *unescapPublications) NextLink(doc *goquery.Document) (string, error) {
	href, ok := doc.Find(".pager-next a").First().Attr("href")
	if !ok {
		return "", fmt.Errorf("no next link on page")
	}
	return u.baseURL + href, nil
}

func (u *unescapPublications) Items(doc *goquery.Document) []*goquery.Selection {
	return selections(doc.Find(".view-content .views-row"))
}

func (u *unescapPublications) Extract(item *goquery.Selection) (Draft, error) {
	link := item.Find("a").First()
	title := strings.TrimSpace(link.Text())
	href, ok := link.Attr("href")
	if !ok || title == "" {
		return Draft{}, fmt.Errorf("publication missing title link")
	}

	date, err := ParseDate(item.Find(".date-display-single").First().Text())
	if err != nil {
		return Draft{}, fmt.Errorf("parse publication date: %w", err)
	}

	return Draft{
		Title: title,
		URL:   u.baseURL + href,
		Body:  strings.TrimSpace(item.Find(".field-name-body p").First().Text()),
		Date:  &date,
	}, nil
}
