// Package domain contains the core domain models for the harvester.
package domain

import (
	"fmt"
	"time"
)

// Kind identifies which of the three record types a Record is.
type Kind string

const (
	KindArticle     Kind = "article"
	KindEvent       Kind = "event"
	KindPublication Kind = "publication"
)

// Kinds lists all record kinds in publish order.
var Kinds = []Kind{KindArticle, KindEvent, KindPublication}

// Valid reports whether k is a known record kind.
func (k Kind) Valid() bool {
	switch k {
	case KindArticle, KindEvent, KindPublication:
		return true
	default:
		return false
	}
}

// ParseKind converts a string into a Kind, rejecting unknown values.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown record kind %q", s)
	}
	return k, nil
}

// Dated reports whether records of this kind carry a publication date that is
// subject to the start-date cutoff. Events are anchored on their start time
// instead and are exempt.
func (k Kind) Dated() bool {
	return k == KindArticle || k == KindPublication
}

// Record is a normalized ingested item. A record is uniquely identified by
// (Kind, URL, SourceIdentity); the store enforces this with a unique index.
type Record struct {
	ID             string     `db:"id"`
	Kind           Kind       `db:"kind"`
	Title          string     `db:"title"`
	URL            string     `db:"url"`
	Body           string     `db:"body"`
	Date           *time.Time `db:"date"`
	StartTime      *time.Time `db:"start_time"`
	EndTime        *time.Time `db:"end_time"`
	TimeScraped    time.Time  `db:"time_scraped"`
	TimePosted     *time.Time `db:"time_posted"`
	SourceIdentity string     `db:"source_identity"`
}

// Pending reports whether the record has not yet been published to the CMS.
func (r *Record) Pending() bool {
	return r.TimePosted == nil
}
