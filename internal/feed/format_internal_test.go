package feed

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"rssgram/internal/models"
	"rssgram/internal/summarizer"
)

type stubSummarizer struct {
	summary string
	err     error
	calls   int
}

func (s *stubSummarizer) Summarize(
	_ context.Context,
	_ summarizer.Input,
) (string, error) {
	s.calls++

	return s.summary, s.err
}

func TestRenderDescriptionTruncatesExactly(t *testing.T) {
	formatter := NewFormatter(true, 800, nil, slog.Default())

	entry := models.Entry{
		ID:          "id",
		Description: strings.Repeat("a", 1000),
	}

	got := formatter.renderDescription(context.Background(), entry)

	if len([]rune(got)) != 800 {
		t.Fatalf("expected description of exactly 800 runes, got %d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis marker suffix, got %q", got[len(got)-10:])
	}
	if got[:797] != strings.Repeat("a", 797) {
		t.Fatalf("expected first 797 runes preserved")
	}
}

func TestRenderDescriptionShortUntouched(t *testing.T) {
	formatter := NewFormatter(true, 800, nil, slog.Default())

	entry := models.Entry{ID: "id", Description: "<p>short text</p>"}

	if got := formatter.renderDescription(context.Background(), entry); got != "short text" {
		t.Fatalf("unexpected description: %q", got)
	}
}

func TestFormatStructure(t *testing.T) {
	formatter := NewFormatter(false, 800, nil, slog.Default())

	entry := models.Entry{
		ID:    "id",
		Title: "Hello world",
		Link:  "https://example.com/article",
	}

	got := formatter.Format(context.Background(), entry, "Example feed")
	want := "• [Hello world](https://example.com/article)\n_Example feed_"

	if got != want {
		t.Fatalf("unexpected message:\ngot  %q\nwant %q", got, want)
	}
}

func TestFormatEscapesUntrustedText(t *testing.T) {
	formatter := NewFormatter(false, 800, nil, slog.Default())

	entry := models.Entry{
		ID:    "id",
		Title: "a_b*c[d]",
		Link:  "https://example.com/article",
	}

	got := formatter.Format(context.Background(), entry, "feed.name")

	if !strings.Contains(got, `a\_b\*c\[d\]`) {
		t.Fatalf("expected escaped title, got %q", got)
	}
	if !strings.Contains(got, `_feed\.name_`) {
		t.Fatalf("expected escaped feed title, got %q", got)
	}
}

func TestFormatEscapesParenthesizedLink(t *testing.T) {
	formatter := NewFormatter(false, 800, nil, slog.Default())

	entry := models.Entry{
		ID:    "id",
		Title: "Go",
		Link:  "https://en.wikipedia.org/wiki/Go_(programming_language)",
	}

	got := formatter.Format(context.Background(), entry, "Wiki")
	want := "• [Go](https://en.wikipedia.org/wiki/Go_\\(programming_language\\))\n_Wiki_"

	if got != want {
		t.Fatalf("unexpected message:\ngot  %q\nwant %q", got, want)
	}
}

func TestFormatClampsCaptionForImageEntry(t *testing.T) {
	formatter := NewFormatter(true, 800, nil, slog.Default())

	entry := models.Entry{
		ID:          "id",
		Title:       "Title",
		Link:        "https://example.com/article",
		Description: strings.Repeat("a.b!c ", 300),
		ImageURL:    "https://example.com/image.jpg",
	}

	got := formatter.Format(context.Background(), entry, "Feed")

	if n := len([]rune(got)); n > telegramCaptionMaxLength {
		t.Fatalf("expected caption within %d runes, got %d", telegramCaptionMaxLength, n)
	}
}

func TestFormatKeepsMessageCeilingWithoutImage(t *testing.T) {
	formatter := NewFormatter(true, 800, nil, slog.Default())

	entry := models.Entry{
		ID:          "id",
		Title:       "Title",
		Link:        "https://example.com/article",
		Description: strings.Repeat("a.b!c ", 300),
	}

	got := formatter.Format(context.Background(), entry, "Feed")

	if n := len([]rune(got)); n <= telegramCaptionMaxLength {
		t.Fatalf("expected escaped message past the caption ceiling, got %d runes", n)
	}
	if n := len([]rune(got)); n > telegramMessageMaxLength {
		t.Fatalf("expected message within %d runes, got %d", telegramMessageMaxLength, n)
	}
}

func TestFormatOmitsDescriptionWhenDisabled(t *testing.T) {
	formatter := NewFormatter(false, 800, nil, slog.Default())

	entry := models.Entry{
		ID:          "id",
		Title:       "Title",
		Link:        "https://example.com/article",
		Description: "<p>should not appear</p>",
	}

	got := formatter.Format(context.Background(), entry, "Feed")

	if strings.Contains(got, "should not appear") {
		t.Fatalf("expected description to be omitted, got %q", got)
	}
}

func TestFormatIncludesDescription(t *testing.T) {
	formatter := NewFormatter(true, 800, nil, slog.Default())

	entry := models.Entry{
		ID:          "id",
		Title:       "Title",
		Link:        "https://example.com/article",
		Description: "<p>visible text</p>",
	}

	got := formatter.Format(context.Background(), entry, "Feed")

	if !strings.Contains(got, "visible text") {
		t.Fatalf("expected description paragraph, got %q", got)
	}
}

func TestRenderDescriptionUsesSummarizerForLongText(t *testing.T) {
	stub := &stubSummarizer{summary: "a concise summary"}
	formatter := NewFormatter(true, 100, stub, slog.Default())

	entry := models.Entry{ID: "id", Description: strings.Repeat("b", 500)}

	got := formatter.renderDescription(context.Background(), entry)

	if got != "a concise summary" {
		t.Fatalf("expected summarizer output, got %q", got)
	}
	if stub.calls != 1 {
		t.Fatalf("expected one summarizer call, got %d", stub.calls)
	}
}

func TestRenderDescriptionSummarizerNotCalledForShortText(t *testing.T) {
	stub := &stubSummarizer{summary: "unused"}
	formatter := NewFormatter(true, 100, stub, slog.Default())

	entry := models.Entry{ID: "id", Description: "short enough"}

	if got := formatter.renderDescription(context.Background(), entry); got != "short enough" {
		t.Fatalf("unexpected description: %q", got)
	}
	if stub.calls != 0 {
		t.Fatalf("expected no summarizer calls, got %d", stub.calls)
	}
}

func TestRenderDescriptionFallsBackOnSummarizerError(t *testing.T) {
	stub := &stubSummarizer{err: errors.New("api down")}
	formatter := NewFormatter(true, 100, stub, slog.Default())

	entry := models.Entry{ID: "id", Description: strings.Repeat("c", 500)}

	got := formatter.renderDescription(context.Background(), entry)

	if len([]rune(got)) != 100 {
		t.Fatalf("expected truncated fallback of 100 runes, got %d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis marker suffix, got %q", got)
	}
}

func TestTruncateRunesMultibyte(t *testing.T) {
	got := truncateRunes(strings.Repeat("é", 10), 8)

	if len([]rune(got)) != 8 {
		t.Fatalf("expected 8 runes, got %d", len([]rune(got)))
	}
	if got != strings.Repeat("é", 5)+"..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestClampMessageCeiling(t *testing.T) {
	long := strings.Repeat("x", telegramMessageMaxLength+100)

	got := clampMessage(long, telegramMessageMaxLength)

	if len([]rune(got)) != telegramMessageMaxLength {
		t.Fatalf("expected clamp at %d runes, got %d", telegramMessageMaxLength, len([]rune(got)))
	}
}

func TestClampMessageNoDanglingEscape(t *testing.T) {
	got := clampMessage(`ab\.`, 3)

	if strings.HasSuffix(got, `\`) {
		t.Fatalf("expected no dangling escape backslash, got %q", got)
	}
	if got != "ab" {
		t.Fatalf("unexpected clamp result: %q", got)
	}
}
