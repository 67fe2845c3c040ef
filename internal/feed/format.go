package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rssgram/internal/markdown"
	"rssgram/internal/models"
	"rssgram/internal/summarizer"
)

const (
	telegramMessageMaxLength = 4096
	telegramCaptionMaxLength = 1024
	ellipsis                 = "..."
)

// Formatter builds the outbound Telegram message for one entry. Title,
// feed title, description, and the link URL are all MarkdownV2-escaped.
type Formatter struct {
	includeDescription   bool
	maxDescriptionLength int
	summarizer           summarizer.Summarizer
	log                  *slog.Logger
}

func NewFormatter(
	includeDescription bool,
	maxDescriptionLength int,
	s summarizer.Summarizer,
	log *slog.Logger,
) *Formatter {
	return &Formatter{
		includeDescription:   includeDescription,
		maxDescriptionLength: maxDescriptionLength,
		summarizer:           s,
		log:                  log,
	}
}

// Format renders the message text: a bullet-styled hyperlinked title, an
// italicized feed-title line, and optionally the plain-text description
// bounded by the configured length. Entries with an image are clamped to
// the photo-caption ceiling so the caption stays sendable.
func (f *Formatter) Format(ctx context.Context, entry models.Entry, feedTitle string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "• [%s](%s)\n_%s_",
		markdown.EscapeV2(entry.Title),
		markdown.EscapeV2URL(entry.Link),
		markdown.EscapeV2(feedTitle))

	if f.includeDescription {
		if description := f.renderDescription(ctx, entry); description != "" {
			b.WriteString("\n\n")
			b.WriteString(markdown.EscapeV2(description))
		}
	}

	limit := telegramMessageMaxLength
	if entry.ImageURL != "" {
		limit = telegramCaptionMaxLength
	}

	return clampMessage(b.String(), limit)
}

func (f *Formatter) renderDescription(ctx context.Context, entry models.Entry) string {
	description := stripHTML(entry.Description)
	if description == "" {
		return ""
	}

	if len([]rune(description)) <= f.maxDescriptionLength {
		return description
	}

	if f.summarizer != nil {
		summary, err := f.summarizer.Summarize(ctx, summarizer.Input{
			Text:      description,
			SourceURL: entry.Link,
		})
		if err != nil {
			f.log.ErrorContext(ctx, "Failed to summarize description, truncating",
				"error", err,
				"entryLink", entry.Link,
				"descriptionLen", len(description))
		} else if summary = strings.TrimSpace(summary); summary != "" {
			return truncateRunes(summary, f.maxDescriptionLength)
		}
	}

	return truncateRunes(description, f.maxDescriptionLength)
}

// truncateRunes bounds s to max runes, replacing the tail with an
// ellipsis marker so the result is exactly max runes long.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= len(ellipsis) {
		return string(runes[:limit])
	}

	return string(runes[:limit-len(ellipsis)]) + ellipsis
}

// clampMessage enforces the destination's total message-length ceiling.
// The cut lands on a rune boundary and never leaves a dangling escape
// backslash.
func clampMessage(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	runes = runes[:limit]

	trailing := 0
	for i := len(runes) - 1; i >= 0 && runes[i] == '\\'; i-- {
		trailing++
	}
	if trailing%2 == 1 {
		runes = runes[:len(runes)-1]
	}

	return string(runes)
}
