package source

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/resakss/harvester/internal/domain"
)

const aseanBase = "http://www.asean.org"

var aseanDateRe = regexp.MustCompile(`(\d{2} \w+ \d{4})`)

// asean handles the ASEAN secretariat news listing.
type asean struct {
	pagedSource
}

// NewASEAN returns the adapter for ASEAN news.
func NewASEAN(f *Fetcher) PagedAdapter {
	return &asean{pagedSource{
		fetcher:  f,
		name:     "asean",
		kind:     domain.KindArticle,
		startURL: aseanBase + "/news",
		baseURL:  aseanBase,
		start:    articleEpoch,
	}}
}

func (a *asean) NextLink(doc *goquery.Document) (string, error) {
	href, ok := doc.Find("div.pagination-bg a.next").First().Attr("href")
	if !ok {
		return "", fmt.Errorf("no next link on page")
	}
	return a.baseURL + href, nil
}

func (a *asean) Items(doc *goquery.Document) []*goquery.Selection {
	return selections(doc.Find("div.teaser-item"))
}

func (a *asean) Extract(item *goquery.Selection) (Draft, error) {
	heading := item.Find("h1").First()
	title := strings.TrimSpace(heading.Text())
	href, ok := heading.Find("a").First().Attr("href")
	if !ok || title == "" {
		return Draft{}, fmt.Errorf("teaser missing title link")
	}

	m := aseanDateRe.FindStringSubmatch(item.Find("p").First().Text())
	if m == nil {
		return Draft{}, fmt.Errorf("teaser for %s has no date", href)
	}
	date, err := ParseDate(m[1])
	if err != nil {
		return Draft{}, fmt.Errorf("parse teaser date: %w", err)
	}

	return Draft{
		Title: title,
		URL:   a.baseURL + href,
		Body:  outerHTML(item.Find("div.floatbox").First()),
		Date:  &date,
	}, nil
}
