package history

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Store is the durable mapping from feed URL to the ordered set of
// already-delivered entry identifiers. Dedup is scoped per feed:
// identifier collisions across feeds are permitted and independent.
//
// Record persists durably before returning, so a crash mid-cycle loses
// at most the in-flight delivery's bookkeeping, never a recorded one.
type Store interface {
	Contains(ctx context.Context, feedURL, entryID string) (bool, error)
	Record(ctx context.Context, feedURL, entryID string) error
	Touch(ctx context.Context, feedURL string) error
	Flush(ctx context.Context) error
	Close() error
}

// Open initializes the configured history store.
//
// Driver values:
//   - "json" (default): single human-inspectable JSON file, replaced
//     atomically on every write
//   - "sqlite": SQLite database file with embedded migrations
func Open(
	ctx context.Context,
	driver string,
	path string,
	maxItems int,
	log *slog.Logger,
) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "json":
		return openJSON(ctx, path, maxItems, log)
	case "sqlite", "sqlite3":
		return openSQLite(ctx, path, maxItems, log)
	default:
		return nil, fmt.Errorf("unknown history driver: %s", driver)
	}
}
