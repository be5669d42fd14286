package source

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/resakss/harvester/internal/domain"
)

const worldBankBase = "http://www.worldbank.org"

var worldBankDateRe = regexp.MustCompile(`Date: (.+)`)

// worldBankListing handles the World Bank regional "what's new" and research
// listings, which share one markup family across regions and content types.
type worldBankListing struct {
	pagedSource
}

// NewWorldBankSouthAsia returns the adapter for World Bank South Asia news.
func NewWorldBankSouthAsia(f *Fetcher) PagedAdapter {
	return &worldBankListing{pagedSource{
		fetcher:  f,
		name:     "worldbank-south-asia",
		kind:     domain.KindArticle,
		startURL: worldBankBase + "/en/region/sar/whats-new",
		baseURL:  worldBankBase,
		start:    articleEpoch,
	}}
}

// NewWorldBankEastAsia returns the adapter for World Bank East Asia news.
func NewWorldBankEastAsia(f *Fetcher) PagedAdapter {
	return &worldBankListing{pagedSource{
		fetcher:  f,
		name:     "worldbank-east-asia",
		kind:     domain.KindArticle,
		startURL: worldBankBase + "/en/region/eap/whats-new",
		baseURL:  worldBankBase,
		start:    articleEpoch,
	}}
}

// NewWorldBankSouthAsiaResearch returns the adapter for World Bank South Asia
// publications.
func NewWorldBankSouthAsiaResearch(f *Fetcher) PagedAdapter {
	return &worldBankListing{pagedSource{
		fetcher:  f,
		name:     "worldbank-south-asia-research",
		kind:     domain.KindPublication,
		startURL: worldBankBase + "/en/region/sar/research/all",
		baseURL:  worldBankBase,
		start:    publicationEpoch,
	}}
}

// NewWorldBankEastAsiaResearch returns the adapter for World Bank East Asia
// publications.
func NewWorldBankEastAsiaResearch(f *Fetcher) PagedAdapter {
	return &worldBankListing{pagedSource{
		fetcher:  f,
		name:     "worldbank-east-asia-research",
		kind:     domain.KindPublication,
		startURL: worldBankBase + "/en/region/eap/research/all",
		baseURL:  worldBankBase,
		start:    publicationEpoch,
	}}
}

// NextLink follows the pagination bar's NEXT link.
func (w *worldBankListing) NextLink(doc *goquery.Document) (string, error) {
	var next string
	doc.Find("div.f05v3-pagination li a").Each(func(_ int, a *goquery.Selection) {
		if strings.HasPrefix(strings.TrimSpace(a.Text()), "NEXT") {
			if href, ok := a.Attr("href"); ok {
				next = w.baseURL + href
			}
		}
	})
	return next, nil
}

func (w *worldBankListing) Items(doc *goquery.Document) []*goquery.Selection {
	return selections(doc.Find("div.n07v3-generic-list-comp"))
}

func (w *worldBankListing) Extract(item *goquery.Selection) (Draft, error) {
	heading := item.Find("h6").First()
	title := strings.TrimSpace(heading.Text())
	href, ok := heading.Find("a").First().Attr("href")
	if !ok || title == "" {
		return Draft{}, fmt.Errorf("listing item missing title link")
	}

	body := ""
	if desc := item.Find("div.description").First(); desc.Length() > 0 {
		// The listing embeds a summary/detail toggle; drop its controls so
		// only the description markup survives.
		desc.Find("span#summary_1").Remove()
		desc.Find("span#detail_1 a").Remove()
		body = outerHTML(desc)
	}

	m := worldBankDateRe.FindStringSubmatch(item.Text())
	if m == nil {
		return Draft{}, fmt.Errorf("listing item for %s has no date line", href)
	}
	date, err := ParseDate(m[1])
	if err != nil {
		return Draft{}, fmt.Errorf("parse listing date: %w", err)
	}

	return Draft{
		Title: title,
		URL:   href,
		Body:  body,
		Date:  &date,
	}, nil
}
