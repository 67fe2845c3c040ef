package feedlist

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/xurls/v2"
)

const fileHeader = "# Add your RSS feeds here, one per line\n"

// Load reads the newline-delimited feed list. Blank lines and lines
// starting with # are ignored; surviving lines must be a strict URL or
// they are skipped with a warning. An absent file is created with a
// comment header and yields zero feeds.
func Load(ctx context.Context, path string, log *slog.Logger) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.WarnContext(ctx, "Feed list file not found, creating empty one",
			"path", path)

		if createErr := createEmpty(path); createErr != nil {
			return nil, fmt.Errorf("create feed list file: %w", createErr)
		}

		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open feed list file: %w", err)
	}
	defer func() {
		if err = f.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close feed list file",
				"error", err,
				"path", path)
		}
	}()

	strictURLRe := xurls.Strict()

	var feeds []string
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strictURLRe.FindString(line) != line {
			log.WarnContext(ctx, "Skipping feed list line that is not a URL",
				"path", path,
				"line", line)

			continue
		}

		feeds = append(feeds, line)
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("read feed list file: %w", err)
	}

	log.InfoContext(ctx, "Feed list is loaded",
		"path", path,
		"feedCount", len(feeds))

	return feeds, nil
}

func createEmpty(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	return os.WriteFile(path, []byte(fileHeader), 0o644)
}
