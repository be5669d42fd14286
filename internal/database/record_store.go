package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/resakss/harvester/internal/domain"
)

// recordSelectList is the column list for SELECT on records (single source
// for schema changes).
const recordSelectList = `id, kind, title, url, body, date, start_time, end_time,
			time_scraped, time_posted, source_identity`

// RecordStore persists records in PostgreSQL.
//
// Writes and dedup reads go through a lazily opened transaction so that the
// dedup query and the subsequent insert form a single logical transaction per
// page or feed; Commit makes the accumulated writes durable. The store assumes
// a single writer and is not safe for concurrent use.
type RecordStore struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

// NewRecordStore creates a new record store over the given connection.
func NewRecordStore(db *sqlx.DB) *RecordStore {
	return &RecordStore{db: db}
}

// begin lazily opens the write transaction.
func (s *RecordStore) begin(ctx context.Context) error {
	if s.tx != nil {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// ext returns the open transaction when one exists, so reads observe writes
// not yet committed, and the plain connection otherwise.
func (s *RecordStore) ext() sqlx.ExtContext {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// FindBy returns the record of the given kind with matching URL and source
// identity, or domain.ErrNotFound when none exists.
func (s *RecordStore) FindBy(ctx context.Context, kind domain.Kind, url, sourceIdentity string) (*domain.Record, error) {
	query := `SELECT ` + recordSelectList + `
		FROM records
		WHERE kind = $1 AND url = $2 AND source_identity = $3`

	var rec domain.Record
	err := sqlx.GetContext(ctx, s.ext(), &rec, query, kind, url, sourceIdentity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}
	return &rec, nil
}

// Insert adds a record to the current transaction, assigning an ID when the
// record has none. The write becomes durable on the next Commit.
func (s *RecordStore) Insert(ctx context.Context, rec *domain.Record) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	query := `
		INSERT INTO records (id, kind, title, url, body, date, start_time, end_time,
			time_scraped, time_posted, source_identity)
		VALUES (:id, :kind, :title, :url, :body, :date, :start_time, :end_time,
			:time_scraped, :time_posted, :source_identity)`

	if _, err := sqlx.NamedExecContext(ctx, s.tx, query, rec); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// PendingFor returns records of the given kind that have not been published,
// oldest scrape first.
func (s *RecordStore) PendingFor(ctx context.Context, kind domain.Kind) ([]domain.Record, error) {
	query := `SELECT ` + recordSelectList + `
		FROM records
		WHERE kind = $1 AND time_posted IS NULL
		ORDER BY time_scraped ASC`

	var recs []domain.Record
	if err := sqlx.SelectContext(ctx, s.ext(), &recs, query, kind); err != nil {
		return nil, fmt.Errorf("select pending records: %w", err)
	}
	return recs, nil
}

// MarkPosted stamps time_posted on a pending record. Returns domain.ErrNotFound
// when the record does not exist or was already posted; time_posted is set at
// most once outside of an administrative reset.
func (s *RecordStore) MarkPosted(ctx context.Context, id string, postedAt time.Time) error {
	if err := s.begin(ctx); err != nil {
		return err
	}

	query := `
		UPDATE records
		SET time_posted = $2
		WHERE id = $1 AND time_posted IS NULL`

	result, err := s.tx.ExecContext(ctx, query, id, postedAt)
	if err != nil {
		return fmt.Errorf("mark posted: %w", err)
	}
	rows, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		return fmt.Errorf("get affected rows: %w", rowsErr)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Commit makes all writes since the last commit durable. It is a no-op when
// nothing is pending.
func (s *RecordStore) Commit(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SetAllPending clears time_posted for every record of the given kind. This is
// the administrative reset that makes records eligible for publishing again.
func (s *RecordStore) SetAllPending(ctx context.Context, kind domain.Kind) (int64, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE records SET time_posted = NULL WHERE kind = $1`, kind)
	if err != nil {
		return 0, fmt.Errorf("reset pending: %w", err)
	}
	rows, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		return 0, fmt.Errorf("get affected rows: %w", rowsErr)
	}
	return rows, nil
}
