package source

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/resakss/harvester/internal/domain"
)

const ucaBase = "http://www.ucentralasia.org"

var ucaDateRe = regexp.MustCompile(`(\d+ \w+ \d+)`)

// ucentralAsia handles the University of Central Asia news page. The listing
// is a flat run of <p> blocks separated by <br>; each <br> marks one item,
// with the body paragraph immediately before it and the title/date paragraph
// before that. There is no pagination.
type ucentralAsia struct {
	pagedSource
}

// NewUCentralAsia returns the adapter for University of Central Asia news.
func NewUCentralAsia(f *Fetcher) PagedAdapter {
	return &ucentralAsia{pagedSource{
		fetcher:  f,
		name:     "ucentralasia",
		kind:     domain.KindArticle,
		startURL: ucaBase + "/news.asp",
		baseURL:  ucaBase,
		start:    articleEpoch,
	}}
}

func (u *ucentralAsia) NextLink(doc *goquery.Document) (string, error) {
	return "", nil
}

func (u *ucentralAsia) Items(doc *goquery.Document) []*goquery.Selection {
	return selections(doc.Find("#centre > br"))
}

func (u *ucentralAsia) Extract(item *goquery.Selection) (Draft, error) {
	body := item.Prev()
	head := body.Prev()
	if goquery.NodeName(body) != "p" || goquery.NodeName(head) != "p" {
		return Draft{}, fmt.Errorf("unexpected listing structure around break")
	}

	link := head.Find("a").First()
	title := strings.TrimSpace(link.Text())
	href, ok := link.Attr("href")
	if !ok || title == "" {
		return Draft{}, fmt.Errorf("news item missing title link")
	}

	m := ucaDateRe.FindStringSubmatch(head.Find("span").First().Text())
	if m == nil {
		return Draft{}, fmt.Errorf("news item for %s has no date", href)
	}
	date, err := ParseDate(m[1])
	if err != nil {
		return Draft{}, fmt.Errorf("parse news date: %w", err)
	}

	return Draft{
		Title: title,
		URL:   fmt.Sprintf("%s/%s", u.baseURL, href),
		Body:  strings.TrimSpace(body.Text()),
		Date:  &date,
	}, nil
}
