package history

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
)

func openTestSQLite(t *testing.T, maxItems int) *sqliteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "history.sqlite")

	store, err := openSQLite(context.Background(), path, maxItems, slog.Default())
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Errorf("failed to close store: %v", closeErr)
		}
	})

	return store
}

func TestSQLiteStoreRecordAndContains(t *testing.T) {
	store := openTestSQLite(t, 200)
	ctx := context.Background()

	if err := store.Record(ctx, testFeedURL, "entry-1"); err != nil {
		t.Fatalf("failed to record: %v", err)
	}

	delivered, err := store.Contains(ctx, testFeedURL, "entry-1")
	if err != nil {
		t.Fatalf("failed to check membership: %v", err)
	}
	if !delivered {
		t.Fatalf("expected recorded identifier to be contained")
	}

	delivered, err = store.Contains(ctx, testFeedURL, "entry-2")
	if err != nil {
		t.Fatalf("failed to check membership: %v", err)
	}
	if delivered {
		t.Fatalf("expected unknown identifier to be absent")
	}
}

func TestSQLiteStoreEvictsOldestPastBound(t *testing.T) {
	const maxItems = 3

	store := openTestSQLite(t, maxItems)
	ctx := context.Background()

	for i := range 5 {
		if err := store.Record(ctx, testFeedURL, fmt.Sprintf("entry-%d", i)); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
	}

	for i := range 5 {
		id := fmt.Sprintf("entry-%d", i)

		delivered, err := store.Contains(ctx, testFeedURL, id)
		if err != nil {
			t.Fatalf("failed to check membership: %v", err)
		}

		wantDelivered := i >= 2
		if delivered != wantDelivered {
			t.Fatalf("identifier %q: contained = %v, want %v", id, delivered, wantDelivered)
		}
	}
}

func TestSQLiteStoreDedupScopedPerFeed(t *testing.T) {
	store := openTestSQLite(t, 200)
	ctx := context.Background()

	if err := store.Record(ctx, testFeedURL, "shared-id"); err != nil {
		t.Fatalf("failed to record: %v", err)
	}

	delivered, err := store.Contains(ctx, "https://example.org/other", "shared-id")
	if err != nil {
		t.Fatalf("failed to check membership: %v", err)
	}
	if delivered {
		t.Fatalf("identifier recorded for one feed must not dedup another feed")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "postgres", "x", 200, slog.Default())
	if err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestOpenDefaultsToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent_items.json")

	store, err := Open(context.Background(), "", path, 200, slog.Default())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Errorf("failed to close store: %v", closeErr)
		}
	}()

	if _, ok := store.(*jsonStore); !ok {
		t.Fatalf("expected JSON store for empty driver, got %T", store)
	}
}
