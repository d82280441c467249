package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/passerby/internal/location"
)

const (
	pgChannel = "passerby_location"

	pgSchema = `
CREATE TABLE IF NOT EXISTS passerby_kv (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
)

type kvRow struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// PostgresStore keeps the record in a key/value table and announces saves
// with NOTIFY.
type PostgresStore struct {
	db     *sqlx.DB
	dsn    string
	origin string
	log    zerolog.Logger
}

var _ LocationStore = (*PostgresStore)(nil)

// NewPostgresStore connects and creates the table if needed.
func NewPostgresStore(ctx context.Context, dsn, origin string, log zerolog.Logger) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, pgSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create passerby_kv: %w", err)
	}
	log.Info().Msg("connected to database")

	return &PostgresStore{db: db, dsn: dsn, origin: origin, log: log}, nil
}

func (s *PostgresStore) Load(ctx context.Context) (location.Location, bool, error) {
	var row kvRow
	err := s.db.GetContext(ctx, &row, `SELECT key, value, updated_at FROM passerby_kv WHERE key = $1`, Key)
	if errors.Is(err, sql.ErrNoRows) {
		return location.Location{}, false, nil
	}
	if err != nil {
		return location.Location{}, false, fmt.Errorf("load location: %w", err)
	}

	rec, err := decodeRecord([]byte(row.Value))
	if err != nil {
		return location.Location{}, false, err
	}
	return rec.Location, true, nil
}

func (s *PostgresStore) Save(ctx context.Context, loc location.Location) error {
	data, err := encodeRecord(s.origin, loc)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save location: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
INSERT INTO passerby_kv (key, value, updated_at)
VALUES (:key, :value, :updated_at)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		kvRow{Key: Key, Value: string(data), UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("save location: %w", err)
	}
	// Delivered on commit.
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, pgChannel, string(data)); err != nil {
		return fmt.Errorf("notify location: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM passerby_kv WHERE key = $1`, Key); err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	return nil
}

func (s *PostgresStore) Watch(ctx context.Context) (<-chan location.Location, error) {
	listener := pq.NewListener(s.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			s.log.Warn().Err(err).Int("event", int(ev)).Msg("listener event")
		}
	})
	if err := listener.Listen(pgChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen %s: %w", pgChannel, err)
	}

	out := make(chan location.Location)
	go func() {
		defer close(out)
		defer listener.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case n := <-listener.Notify:
				// nil after a reconnect
				if n == nil {
					continue
				}
				rec, err := decodeRecord([]byte(n.Extra))
				if err != nil {
					s.log.Warn().Err(err).Msg("ignoring unreadable location change")
					continue
				}
				if rec.Origin == s.origin {
					continue
				}
				select {
				case out <- rec.Location:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
