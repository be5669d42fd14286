package source

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts covers the date formats the listing pages actually use. Feed
// entries come pre-parsed by gofeed and never pass through here.
var dateLayouts = []string{
	"2 January 2006",
	"02 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"2006-01-02",
	"01/02/2006",
	"Monday, 2 January 2006",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseDate parses a human-readable date string from a listing page.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
