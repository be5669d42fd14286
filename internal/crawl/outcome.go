package crawl

// Outcome is the result of attempting to persist one normalized item.
// Duplicate and DateLimit are pass-boundary signals, not errors: on either
// one the engine stops processing the remaining items and ends the pass.
type Outcome int

const (
	// OutcomeSaved means a new record was written to the store.
	OutcomeSaved Outcome = iota
	// OutcomeDropped means the item was rejected (e.g. a dated kind with no
	// date) and only this item is skipped.
	OutcomeDropped
	// OutcomeDuplicate means a record with the same (kind, url, source)
	// already exists; everything after it is assumed already ingested.
	OutcomeDuplicate
	// OutcomeDateLimit means the item predates the source's start-date
	// threshold; everything after it is assumed older still.
	OutcomeDateLimit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSaved:
		return "saved"
	case OutcomeDropped:
		return "dropped"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeDateLimit:
		return "date_limit"
	default:
		return "unknown"
	}
}
