package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3" // Required by the library implementation.
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db       *sql.DB
	maxItems int
	log      *slog.Logger
}

func openSQLite(
	ctx context.Context,
	path string,
	maxItems int,
	log *slog.Logger,
) (*sqliteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open DB file: %w", err)
	}

	dbInstance, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("create DB instance: %w", err)
	}

	srcInstance, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("create source instance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcInstance, "sqlite3", dbInstance)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}

	if migrateErr := m.Up(); migrateErr != nil {
		if !errors.Is(migrateErr, migrate.ErrNoChange) {
			return nil, fmt.Errorf("apply migrations: %w", migrateErr)
		}

		log.InfoContext(ctx, "No history migrations to apply",
			"dbPath", path)
	} else {
		log.InfoContext(ctx, "History DB is migrated",
			"dbPath", path)
	}

	return &sqliteStore{
		db:       db,
		maxItems: maxItems,
		log:      log,
	}, nil
}

func (s *sqliteStore) Contains(ctx context.Context, feedURL, entryID string) (bool, error) {
	query := "select exists(select 1 from sent_items where feed_url = ? and entry_id = ?)"

	var found bool
	if err := s.db.QueryRowContext(ctx, query, feedURL, entryID).Scan(&found); err != nil {
		return false, fmt.Errorf("query sent item: %w", err)
	}

	return found, nil
}

func (s *sqliteStore) Record(ctx context.Context, feedURL, entryID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.log.ErrorContext(ctx, "Failed to roll back tx",
				"error", rollbackErr,
				"feedURL", feedURL,
				"operation", "Record")
		}
	}()

	if _, err = tx.ExecContext(ctx,
		"insert or ignore into feeds (url) values (?)",
		feedURL,
	); err != nil {
		return fmt.Errorf("insert feed: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		"insert or ignore into sent_items (feed_url, entry_id) values (?, ?)",
		feedURL, entryID,
	); err != nil {
		return fmt.Errorf("insert sent item: %w", err)
	}

	// Evict the oldest rows past the per-feed bound.
	if _, err = tx.ExecContext(ctx,
		`delete from sent_items
		where feed_url = ?
		and id not in (
			select id from sent_items
			where feed_url = ?
			order by id desc
			limit ?
		)`,
		feedURL, feedURL, s.maxItems,
	); err != nil {
		return fmt.Errorf("evict old sent items: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func (s *sqliteStore) Touch(ctx context.Context, feedURL string) error {
	if _, err := s.db.ExecContext(ctx,
		"insert or ignore into feeds (url) values (?)",
		feedURL,
	); err != nil {
		return fmt.Errorf("insert feed: %w", err)
	}

	return nil
}

// Flush is a no-op: each Record commits durably on its own.
func (s *sqliteStore) Flush(context.Context) error {
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
