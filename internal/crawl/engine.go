// Package crawl drives source adapters through one full ingestion pass:
// fetch, extract, normalize, cutoff check, dedup check, persist, advance.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/resakss/harvester/internal/domain"
	"github.com/resakss/harvester/internal/logger"
	"github.com/resakss/harvester/internal/sanitize"
	"github.com/resakss/harvester/internal/source"
)

// Store is the persistence boundary the engine writes through. The dedup
// query and the subsequent insert must share one logical transaction; Commit
// marks the page/feed commit boundary.
type Store interface {
	FindBy(ctx context.Context, kind domain.Kind, url, sourceIdentity string) (*domain.Record, error)
	Insert(ctx context.Context, rec *domain.Record) error
	Commit(ctx context.Context) error
}

// Engine runs one adapter to exhaustion per call. It is not safe for
// concurrent use; passes run strictly one at a time.
type Engine struct {
	store     Store
	sanitizer *sanitize.Sanitizer
	logger    logger.Logger
	now       func() time.Time
}

// NewEngine creates a crawl engine.
func NewEngine(store Store, sanitizer *sanitize.Sanitizer, log logger.Logger) *Engine {
	return &Engine{
		store:     store,
		sanitizer: sanitizer,
		logger:    log,
		now:       time.Now,
	}
}

// Run executes one full pass for the adapter. A fetch failure aborts the pass
// and is returned to the caller; work committed before the failure stays
// persisted, and a final commit is always attempted so no page's writes are
// left hanging.
func (e *Engine) Run(ctx context.Context, adapter source.Adapter) (err error) {
	log := e.logger.With(
		logger.String("source", adapter.Name()),
		logger.String("kind", string(adapter.Kind())),
	)
	log.Info("starting crawl pass")

	defer func() {
		if commitErr := e.store.Commit(ctx); commitErr != nil {
			log.Error("final commit failed", logger.Error(commitErr))
			if err == nil {
				err = commitErr
			}
		}
	}()

	switch a := adapter.(type) {
	case source.FeedAdapter:
		return e.runFeed(ctx, a, log)
	case source.PagedAdapter:
		return e.runPaged(ctx, a, log)
	default:
		return fmt.Errorf("adapter %s implements no retrieval mode", adapter.Name())
	}
}

// runFeed ingests a feed-based source: one fetch, items in adapter order,
// stop at the first duplicate or too-old item. Feeds list newest first, so
// everything past a known item has been ingested by an earlier pass.
func (e *Engine) runFeed(ctx context.Context, a source.FeedAdapter, log logger.Logger) error {
	items, err := a.Fetch(ctx)
	if err != nil {
		log.Error("feed fetch failed, aborting pass", logger.Error(err))
		return fmt.Errorf("fetch feed %s: %w", a.Name(), err)
	}

	saved := 0
	for _, item := range items {
		draft, exErr := a.Extract(item)
		if exErr != nil {
			log.Error("skipping malformed feed entry", logger.Error(exErr))
			continue
		}

		outcome, saveErr := e.save(ctx, a, draft, log)
		if saveErr != nil {
			return saveErr
		}

		switch outcome {
		case OutcomeSaved:
			saved++
		case OutcomeDuplicate, OutcomeDateLimit:
			log.Warn("aborting feed",
				logger.String("reason", outcome.String()),
				logger.String("url", draft.URL),
				logger.Int("new_items", saved))
			return nil
		}
	}

	log.Info("crawl pass complete", logger.Int("new_items", saved))
	return nil
}

// runPaged ingests a paginated source: follow next-page links from the start
// URL, committing after each page. A duplicate or too-old item ends the whole
// pass once the current page's writes are committed.
func (e *Engine) runPaged(ctx context.Context, a source.PagedAdapter, log logger.Logger) error {
	var cursor string
	page := 1
	saved := 0

	for {
		doc, err := a.Fetch(ctx, cursor)
		if err != nil {
			log.Error("page fetch failed, aborting pass",
				logger.Int("page", page), logger.Error(err))
			return fmt.Errorf("fetch page %d of %s: %w", page, a.Name(), err)
		}

		// A failed next-link lookup means the listing has run out, not that
		// the pass failed.
		next, nextErr := a.NextLink(doc)
		if nextErr != nil {
			log.Debug("no further pages", logger.Error(nextErr))
			next = ""
		}

		halt := false
		for _, item := range a.Items(doc) {
			draft, exErr := a.Extract(item)
			if exErr != nil {
				log.Error("skipping malformed item",
					logger.Int("page", page), logger.Error(exErr))
				continue
			}

			outcome, saveErr := e.save(ctx, a, draft, log)
			if saveErr != nil {
				return saveErr
			}

			if outcome == OutcomeDuplicate || outcome == OutcomeDateLimit {
				log.Warn("ending pass",
					logger.String("reason", outcome.String()),
					logger.String("url", draft.URL),
					logger.Int("page", page))
				halt = true
				break
			}
			if outcome == OutcomeSaved {
				saved++
			}
		}

		if err := e.store.Commit(ctx); err != nil {
			return fmt.Errorf("commit page %d: %w", page, err)
		}

		if halt || next == "" {
			log.Info("crawl pass complete",
				logger.Int("pages", page), logger.Int("new_items", saved))
			return nil
		}

		cursor = next
		page++
		log.Debug("advancing to next page",
			logger.Int("page", page), logger.String("url", cursor))
	}
}

// save applies the cutoff and dedup checks to one draft and persists it when
// both pass. This is the point of record creation: scrape time and source
// identity are stamped here and the body is sanitized to plain markup.
func (e *Engine) save(ctx context.Context, a source.Adapter, draft source.Draft, log logger.Logger) (Outcome, error) {
	kind := a.Kind()

	if kind.Dated() {
		if draft.Date == nil {
			log.Error("item has no date, dropping", logger.String("url", draft.URL))
			return OutcomeDropped, nil
		}
		if !draft.Date.After(a.StartDate()) {
			return OutcomeDateLimit, nil
		}
	}

	existing, err := e.store.FindBy(ctx, kind, draft.URL, a.Name())
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return OutcomeDropped, fmt.Errorf("dedup query: %w", err)
	}
	if existing != nil {
		return OutcomeDuplicate, nil
	}

	rec := &domain.Record{
		Kind:           kind,
		Title:          draft.Title,
		URL:            draft.URL,
		Body:           e.sanitizer.Sanitize(draft.Body),
		Date:           draft.Date,
		StartTime:      draft.StartTime,
		EndTime:        draft.EndTime,
		TimeScraped:    e.now(),
		SourceIdentity: a.Name(),
	}
	if err := e.store.Insert(ctx, rec); err != nil {
		return OutcomeDropped, fmt.Errorf("insert record: %w", err)
	}
	return OutcomeSaved, nil
}
