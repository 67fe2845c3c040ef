package monitor

import (
	"context"
	"log/slog"

	"rssgram/internal/feed"
	"rssgram/internal/feedlist"
	"rssgram/internal/history"
	"rssgram/internal/models"
)

const startupMessage = "🤖 *RSS monitoring bot started\\!*\nActive feed monitoring\\."

// Notifier is the delivery client boundary consumed by the monitor.
type Notifier interface {
	SendText(ctx context.Context, text string) error
	SendPhoto(ctx context.Context, photoURL, caption string) error
}

// Fetcher downloads and normalizes one feed.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) (*models.Feed, error)
}

// Monitor drives the poll cycle: load the feed list, diff each feed
// against the history store, deliver new entries oldest-first, and
// persist history after every successful delivery. Feeds are polled
// strictly sequentially so at most one delivery is ever in flight.
type Monitor struct {
	feedsFile string
	store     history.Store
	fetcher   Fetcher
	formatter *feed.Formatter
	notifier  Notifier
	log       *slog.Logger
}

func New(
	feedsFile string,
	store history.Store,
	fetcher Fetcher,
	formatter *feed.Formatter,
	notifier Notifier,
	log *slog.Logger,
) *Monitor {
	return &Monitor{
		feedsFile: feedsFile,
		store:     store,
		fetcher:   fetcher,
		formatter: formatter,
		notifier:  notifier,
		log:       log,
	}
}

// Announce sends the one-time startup message. Failure is logged but
// never aborts startup.
func (m *Monitor) Announce(ctx context.Context) {
	if err := m.notifier.SendText(ctx, startupMessage); err != nil {
		m.log.ErrorContext(ctx, "Failed to send startup announcement",
			"error", err)
	}
}

// RunCycle performs one full pass over all configured feeds. Failures
// are isolated per feed and per entry; only context cancellation stops
// the pass early.
func (m *Monitor) RunCycle(ctx context.Context) {
	feeds, err := feedlist.Load(ctx, m.feedsFile, m.log)
	if err != nil {
		m.log.ErrorContext(ctx, "Failed to load feed list",
			"error", err,
			"feedsFile", m.feedsFile)

		return
	}

	if len(feeds) == 0 {
		m.log.WarnContext(ctx, "No feeds to check, add feeds to the list file",
			"feedsFile", m.feedsFile)

		return
	}

	for _, feedURL := range feeds {
		if ctx.Err() != nil {
			m.log.InfoContext(ctx, "Cycle context is done",
				"error", ctx.Err())

			return
		}

		m.checkFeed(ctx, feedURL)
	}

	// Defensive re-save: every Record already persisted.
	if err = m.store.Flush(ctx); err != nil {
		m.log.ErrorContext(ctx, "Failed to flush history store",
			"error", err)
	}
}

func (m *Monitor) checkFeed(ctx context.Context, feedURL string) {
	m.log.InfoContext(ctx, "Checking feed",
		"feedURL", feedURL)

	parsed, err := m.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		m.log.ErrorContext(ctx, "Failed to fetch feed",
			"error", err,
			"feedURL", feedURL)

		return
	}

	if err = m.store.Touch(ctx, feedURL); err != nil {
		m.log.ErrorContext(ctx, "Failed to touch history record",
			"error", err,
			"feedURL", feedURL)
	}

	if len(parsed.Entries) == 0 {
		m.log.WarnContext(ctx, "No entries found in feed",
			"feedURL", feedURL)

		return
	}

	newEntries := m.diffEntries(ctx, feedURL, parsed.Entries)

	// Feeds are assumed newest-first; deliver the oldest new entry
	// first to restore chronological order.
	for i := len(newEntries) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			return
		}

		m.deliverEntry(ctx, feedURL, parsed.Title, newEntries[i])
	}
}

func (m *Monitor) diffEntries(
	ctx context.Context,
	feedURL string,
	entries []models.Entry,
) []models.Entry {
	var newEntries []models.Entry

	for _, entry := range entries {
		delivered, err := m.store.Contains(ctx, feedURL, entry.ID)
		if err != nil {
			// Favor redelivery over a lost article.
			m.log.WarnContext(ctx, "Failed to check history, treating entry as new",
				"error", err,
				"feedURL", feedURL,
				"entryID", entry.ID)
		}

		if !delivered {
			newEntries = append(newEntries, entry)
		}
	}

	return newEntries
}

func (m *Monitor) deliverEntry(
	ctx context.Context,
	feedURL string,
	feedTitle string,
	entry models.Entry,
) {
	m.log.InfoContext(ctx, "New entry found",
		"feedURL", feedURL,
		"entryID", entry.ID,
		"entryTitle", entry.Title)

	text := m.formatter.Format(ctx, entry, feedTitle)

	if err := m.send(ctx, entry, text); err != nil {
		// Not recorded: the entry stays eligible for retry on the
		// next poll cycle.
		m.log.ErrorContext(ctx, "Failed to deliver entry",
			"error", err,
			"feedURL", feedURL,
			"entryID", entry.ID)

		return
	}

	if err := m.store.Record(ctx, feedURL, entry.ID); err != nil {
		// The message already went out; a persist failure risks a
		// future duplicate, which is why it is surfaced separately
		// from delivery failures.
		m.log.ErrorContext(ctx, "Delivered entry but failed to persist history",
			"error", err,
			"feedURL", feedURL,
			"entryID", entry.ID)
	}
}

// send attempts a photo message when the entry has an image and falls
// back to plain text with the same caption, so an unreachable image
// never suppresses an otherwise-deliverable article.
func (m *Monitor) send(ctx context.Context, entry models.Entry, text string) error {
	if entry.ImageURL != "" {
		err := m.notifier.SendPhoto(ctx, entry.ImageURL, text)
		if err == nil {
			return nil
		}

		m.log.ErrorContext(ctx, "Failed to send photo, falling back to text",
			"error", err,
			"imageURL", entry.ImageURL,
			"entryID", entry.ID)
	}

	return m.notifier.SendText(ctx, text)
}
