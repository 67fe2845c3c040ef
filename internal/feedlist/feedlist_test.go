package feedlist

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadSkipsCommentsAndBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.txt")
	content := strings.Join([]string{
		"# comment",
		"",
		"https://example.com/feed.xml",
		"   ",
		"  https://example.org/rss  ",
		"# another comment",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write feeds file: %v", err)
	}

	feeds, err := Load(context.Background(), path, slog.Default())
	if err != nil {
		t.Fatalf("failed to load feeds: %v", err)
	}

	want := []string{"https://example.com/feed.xml", "https://example.org/rss"}
	if len(feeds) != len(want) {
		t.Fatalf("expected %d feeds, got %d: %v", len(want), len(feeds), feeds)
	}
	for i := range want {
		if feeds[i] != want[i] {
			t.Fatalf("unexpected feed at index %d: got %q want %q", i, feeds[i], want[i])
		}
	}
}

func TestLoadSkipsNonURLLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.txt")
	content := "not a url\nhttps://example.com/feed.xml\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write feeds file: %v", err)
	}

	feeds, err := Load(context.Background(), path, slog.Default())
	if err != nil {
		t.Fatalf("failed to load feeds: %v", err)
	}

	if len(feeds) != 1 || feeds[0] != "https://example.com/feed.xml" {
		t.Fatalf("expected only the URL line, got %v", feeds)
	}
}

func TestLoadCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "feeds.txt")

	feeds, err := Load(context.Background(), path, slog.Default())
	if err != nil {
		t.Fatalf("failed to load feeds: %v", err)
	}
	if len(feeds) != 0 {
		t.Fatalf("expected zero feeds for a missing file, got %v", feeds)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected feed list file to be created: %v", err)
	}
	if !strings.HasPrefix(string(data), "#") {
		t.Fatalf("expected comment header in created file, got %q", string(data))
	}

	// Next load finds the created file and still yields zero feeds.
	feeds, err = Load(context.Background(), path, slog.Default())
	if err != nil {
		t.Fatalf("failed to reload feeds: %v", err)
	}
	if len(feeds) != 0 {
		t.Fatalf("expected zero feeds from header-only file, got %v", feeds)
	}
}
