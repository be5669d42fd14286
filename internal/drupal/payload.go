package drupal

import (
	"fmt"
	"strings"
	"time"

	"github.com/resakss/harvester/internal/domain"
)

// Drupal 7 titles are a varchar(255); longer titles are cut, not rejected.
const maxTitleLen = 255

// publicationClassification is the taxonomy code stamped on every imported
// publication node so editors can filter harvested material.
const publicationClassification = "imported"

// fieldValue is one value of a Drupal 7 Services field.
type fieldValue struct {
	Value string `json:"value"`
}

// field is the Services "und" (language-neutral) field wrapper.
type field struct {
	Und []fieldValue `json:"und"`
}

func newField(value string) *field {
	return &field{Und: []fieldValue{{Value: value}}}
}

// dateRangeValue carries an event date range. Value2 must serialize as an
// explicit null when the event has no end time; omitting the key makes the
// date module keep whatever value2 the node had before.
type dateRangeValue struct {
	Value  string  `json:"value"`
	Value2 *string `json:"value2"`
}

type dateRangeField struct {
	Und []dateRangeValue `json:"und"`
}

// Node is the JSON payload POSTed to the Services node endpoint.
type Node struct {
	Type           string          `json:"type"`
	Title          string          `json:"title"`
	Status         int             `json:"status"`
	Body           *field          `json:"body,omitempty"`
	Classification *field          `json:"field_classification,omitempty"`
	Year           *field          `json:"field_year,omitempty"`
	Dates          *dateRangeField `json:"field_dates,omitempty"`
}

// NewNode maps a harvested record onto the node shape its kind requires.
// Nodes are created unpublished; an editor reviews and publishes by hand.
func NewNode(rec *domain.Record) *Node {
	node := &Node{
		Type:   string(rec.Kind),
		Title:  truncateTitle(rec.Title),
		Status: 0,
	}

	switch rec.Kind {
	case domain.KindEvent:
		node.Body = newField(composeBody(rec.Body, rec.StartTime, rec.EndTime, rec.URL))
		if rec.StartTime != nil {
			dr := dateRangeValue{Value: rec.StartTime.Format(time.RFC3339)}
			if rec.EndTime != nil {
				end := rec.EndTime.Format(time.RFC3339)
				dr.Value2 = &end
			}
			node.Dates = &dateRangeField{Und: []dateRangeValue{dr}}
		}
	case domain.KindPublication:
		node.Body = newField(composeBody(rec.Body, rec.Date, nil, rec.URL))
		node.Classification = newField(publicationClassification)
		if rec.Date != nil {
			node.Year = newField(fmt.Sprintf("%d", rec.Date.Year()))
		}
	default:
		node.Body = newField(composeBody(rec.Body, rec.Date, nil, rec.URL))
	}

	return node
}

// composeBody appends the original dates and source link after the harvested
// body so the provenance survives even on sites that later remove the page.
func composeBody(body string, first, second *time.Time, url string) string {
	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n\n")
	if first != nil {
		b.WriteString(first.Format("2 January 2006"))
		b.WriteString("\n")
	}
	if second != nil {
		b.WriteString(second.Format("2 January 2006"))
		b.WriteString("\n")
	}
	b.WriteString(url)
	return b.String()
}

func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleLen {
		return title
	}
	return string(runes[:maxTitleLen])
}
