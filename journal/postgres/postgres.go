// Package postgres stores registry events in a PostgreSQL table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/ruteri/trustedcert-registry/interfaces"
)

var errMigration = errors.New("failed to apply migrations")

// Migration creates the events table.
func Migration() *migrate.MemoryMigrationSource {
	return &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "registry_events_01",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS registry_events (
						seq         BIGINT PRIMARY KEY CHECK (seq > 0),
						type        VARCHAR(64) NOT NULL,
						occurred_at TIMESTAMPTZ NOT NULL,
						payload     JSONB NOT NULL
					)`,
				},
				Down: []string{
					`DROP TABLE IF EXISTS registry_events`,
				},
			},
		},
	}
}

// Setup connects to url and applies pending migrations.
func Setup(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", url)
	if err != nil {
		return nil, fmt.Errorf("could not connect to postgres: %w", err)
	}

	if _, err := migrate.Exec(db.DB, "postgres", Migration(), migrate.Up); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", errMigration, err)
	}
	return db, nil
}

var _ interfaces.EventJournal = (*Journal)(nil)

// Journal appends events inside a transaction that re-reads the last sequence number,
// so concurrent writers sharing the table cannot interleave. The primary key on seq
// rejects the loser of a race.
type Journal struct {
	db *sqlx.DB
}

// Open runs Setup and wraps the resulting connection. Close closes the connection.
func Open(ctx context.Context, url string) (*Journal, error) {
	db, err := Setup(ctx, url)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// New wraps db, which must already carry the Migration schema.
func New(db *sqlx.DB) *Journal {
	return &Journal{db: db}
}

type dbEvent struct {
	Seq        int64     `db:"seq"`
	Type       string    `db:"type"`
	OccurredAt time.Time `db:"occurred_at"`
	Payload    string    `db:"payload"`
}

func (j *Journal) Append(ctx context.Context, e interfaces.Event) (err error) {
	tx, err := j.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var last int64
	if err = tx.GetContext(ctx, &last, `SELECT COALESCE(MAX(seq), 0) FROM registry_events`); err != nil {
		return fmt.Errorf("could not read last event: %w", err)
	}
	if e.Seq != uint64(last)+1 {
		err = fmt.Errorf("%w: expected %d, got %d", interfaces.ErrSequenceGap, last+1, e.Seq)
		return err
	}

	q := `INSERT INTO registry_events (seq, type, occurred_at, payload) VALUES ($1, $2, $3, $4)`
	if _, err = tx.ExecContext(ctx, q, int64(e.Seq), string(e.Type), e.OccurredAt, string(e.Payload)); err != nil {
		return fmt.Errorf("could not insert event %d: %w", e.Seq, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit event %d: %w", e.Seq, err)
	}
	return nil
}

func (j *Journal) Events(ctx context.Context, after uint64, limit int) ([]interfaces.Event, error) {
	q := `SELECT seq, type, occurred_at, payload FROM registry_events WHERE seq > $1 ORDER BY seq`
	args := []any{int64(after)}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}

	rows := []dbEvent{}
	if err := j.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("could not read events: %w", err)
	}

	events := make([]interfaces.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, interfaces.Event{
			Seq:        uint64(row.Seq),
			Type:       interfaces.EventType(row.Type),
			OccurredAt: row.OccurredAt.UTC(),
			Payload:    []byte(row.Payload),
		})
	}
	return events, nil
}

func (j *Journal) LastSeq(ctx context.Context) (uint64, error) {
	var last int64
	if err := j.db.GetContext(ctx, &last, `SELECT COALESCE(MAX(seq), 0) FROM registry_events`); err != nil {
		return 0, fmt.Errorf("could not read last event: %w", err)
	}
	return uint64(last), nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}
