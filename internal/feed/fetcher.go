package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rssgram/internal/models"

	"github.com/mmcdole/gofeed"
)

// Fetcher downloads and parses syndication feeds with a bounded
// per-fetch timeout.
type Fetcher struct {
	parser *gofeed.Parser
	log    *slog.Logger
}

func NewFetcher(timeout time.Duration, log *slog.Logger) *Fetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}

	return &Fetcher{
		parser: parser,
		log:    log,
	}
}

// Fetch downloads one feed and returns its normalized entries in feed
// order. Entries without any usable identifier are skipped.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (*models.Feed, error) {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return nil, fmt.Errorf("feed URL is empty")
	}

	parsed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed (URL = %s): %w", feedURL, err)
	}

	title := strings.TrimSpace(parsed.Title)
	if title == "" {
		f.log.WarnContext(ctx, "Empty feed title",
			"feedURL", feedURL,
			"fallbackTitle", feedURL)

		title = feedURL
	}

	entries := make([]models.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entry, ok := normalizeItem(item)
		if !ok {
			f.log.WarnContext(ctx, "Skipping feed item without identifier",
				"feedURL", feedURL,
				"itemTitle", strings.TrimSpace(item.Title))

			continue
		}

		entries = append(entries, entry)
	}

	return &models.Feed{
		URL:     feedURL,
		Title:   title,
		Entries: entries,
	}, nil
}
