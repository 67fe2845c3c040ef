package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
)

// jsonStore keeps the whole history in memory and rewrites one JSON
// file on every mutation. The file maps feed URL to the ordered list of
// delivered identifiers, oldest first.
type jsonStore struct {
	path     string
	maxItems int
	items    map[string][]string
	log      *slog.Logger
}

func openJSON(
	ctx context.Context,
	path string,
	maxItems int,
	log *slog.Logger,
) (*jsonStore, error) {
	items := make(map[string][]string)

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.InfoContext(ctx, "History file not found, starting empty",
			"path", path)
	case err != nil:
		return nil, fmt.Errorf("read history file: %w", err)
	default:
		if unmarshalErr := json.Unmarshal(data, &items); unmarshalErr != nil {
			// Malformed history is recovered as empty: possible
			// duplicate redelivery beats refusing to run.
			log.WarnContext(ctx, "History file is malformed, starting empty",
				"error", unmarshalErr,
				"path", path)

			items = make(map[string][]string)
		}
	}

	return &jsonStore{
		path:     path,
		maxItems: maxItems,
		items:    items,
		log:      log,
	}, nil
}

func (s *jsonStore) Contains(_ context.Context, feedURL, entryID string) (bool, error) {
	return slices.Contains(s.items[feedURL], entryID), nil
}

func (s *jsonStore) Record(ctx context.Context, feedURL, entryID string) error {
	record := s.items[feedURL]
	if slices.Contains(record, entryID) {
		return nil
	}

	record = append(record, entryID)
	if over := len(record) - s.maxItems; over > 0 {
		record = record[over:]
	}
	s.items[feedURL] = record

	return s.persist(ctx)
}

func (s *jsonStore) Touch(ctx context.Context, feedURL string) error {
	if _, ok := s.items[feedURL]; ok {
		return nil
	}

	s.items[feedURL] = []string{}

	return s.persist(ctx)
}

func (s *jsonStore) Flush(ctx context.Context) error {
	return s.persist(ctx)
}

func (s *jsonStore) Close() error {
	return nil
}

// persist replaces the history file atomically: write to a temp file in
// the same directory, then rename over the target, so a concurrent
// reader never observes a partial write.
func (s *jsonStore) persist(_ context.Context) error {
	data, err := json.MarshalIndent(s.items, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write history temp file: %w", err)
	}

	if err = os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}

	return nil
}
