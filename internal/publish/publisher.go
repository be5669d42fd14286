// Package publish drains pending records into the CMS, marking each one
// posted the moment its node is accepted.
package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/resakss/harvester/internal/domain"
	"github.com/resakss/harvester/internal/drupal"
	"github.com/resakss/harvester/internal/logger"
)

// Store is the slice of record persistence the publisher needs.
type Store interface {
	PendingFor(ctx context.Context, kind domain.Kind) ([]domain.Record, error)
	MarkPosted(ctx context.Context, id string, postedAt time.Time) error
	Commit(ctx context.Context) error
}

// NodePoster posts one node to the CMS. *drupal.Client satisfies it.
type NodePoster interface {
	CreateNode(ctx context.Context, node *drupal.Node) error
}

type Publisher struct {
	store  Store
	poster NodePoster
	logger logger.Logger
	now    func() time.Time
}

func NewPublisher(store Store, poster NodePoster, log logger.Logger) *Publisher {
	return &Publisher{
		store:  store,
		poster: poster,
		logger: log,
		now:    time.Now,
	}
}

// PublishPending posts pending records of one kind in scrape order and
// returns how many were posted. A server rejection of one record is logged
// and skipped; the record stays pending for the next run. An auth failure or
// retry exhaustion aborts the remainder, since every following record would
// fail the same way.
func (p *Publisher) PublishPending(ctx context.Context, kind domain.Kind, limit int) (int, error) {
	log := p.logger.With(logger.String("kind", string(kind)))

	pending, err := p.store.PendingFor(ctx, kind)
	if err != nil {
		return 0, fmt.Errorf("load pending %s records: %w", kind, err)
	}
	if len(pending) == 0 {
		log.Warn("nothing pending to publish")
		return 0, nil
	}

	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	log.Info("publishing pending records", logger.Int("count", len(pending)))

	posted := 0
	for i := range pending {
		rec := &pending[i]
		recLog := log.With(
			logger.String("id", rec.ID),
			logger.String("title", rec.Title),
		)

		if err := p.poster.CreateNode(ctx, drupal.NewNode(rec)); err != nil {
			var serverErr *drupal.ServerError
			if errors.As(err, &serverErr) {
				recLog.Error("cms rejected node, leaving record pending",
					logger.Int("status", serverErr.StatusCode),
					logger.String("body", serverErr.Body))
				continue
			}
			recLog.Error("publish aborted", logger.Error(err))
			return posted, fmt.Errorf("post %s record %s: %w", kind, rec.ID, err)
		}

		if err := p.store.MarkPosted(ctx, rec.ID, p.now()); err != nil {
			return posted, fmt.Errorf("mark record %s posted: %w", rec.ID, err)
		}
		if err := p.store.Commit(ctx); err != nil {
			return posted, fmt.Errorf("commit record %s: %w", rec.ID, err)
		}

		posted++
		recLog.Info("record published")
	}

	log.Info("publish complete", logger.Int("posted", posted))
	return posted, nil
}
