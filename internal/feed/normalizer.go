package feed

import (
	"strings"

	"rssgram/internal/models"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

const noTitlePlaceholder = "No title"

const (
	mediaExtensionPrefix = "media"
	imageMIMEPrefix      = "image/"
)

// normalizeItem extracts the stable identifier, title, link, description
// and image URL from a raw feed item, tolerating missing fields. The
// second return value is false when the item carries neither an
// identifier nor a link and therefore cannot take part in dedup.
func normalizeItem(item *gofeed.Item) (models.Entry, bool) {
	id := strings.TrimSpace(item.GUID)
	link := strings.TrimSpace(item.Link)
	if id == "" {
		id = link
	}
	if id == "" {
		return models.Entry{}, false
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = noTitlePlaceholder
	}

	description := strings.TrimSpace(item.Description)
	if description == "" {
		description = strings.TrimSpace(item.Content)
	}

	return models.Entry{
		ID:          id,
		Title:       title,
		Link:        link,
		Description: description,
		ImageURL:    extractImage(item),
	}, true
}

// extractImage resolves an image URL for the item, preferring structured
// fields over markup scraped from description or content:
// media:content, then enclosures, then media:thumbnail, then the first
// <img> in the description, then the first <img> in the content.
func extractImage(item *gofeed.Item) string {
	for _, content := range mediaExtensions(item, "content") {
		mime := content.Attrs["type"]
		if strings.HasPrefix(mime, imageMIMEPrefix) || content.Attrs["medium"] == "image" {
			if u := strings.TrimSpace(content.Attrs["url"]); u != "" {
				return u
			}
		}
	}

	for _, enclosure := range item.Enclosures {
		if enclosure == nil {
			continue
		}
		if strings.HasPrefix(enclosure.Type, imageMIMEPrefix) {
			if u := strings.TrimSpace(enclosure.URL); u != "" {
				return u
			}
		}
	}

	for _, thumbnail := range mediaExtensions(item, "thumbnail") {
		if u := strings.TrimSpace(thumbnail.Attrs["url"]); u != "" {
			return u
		}
	}

	if src := firstImageSrc(item.Description); src != "" {
		return src
	}

	return firstImageSrc(item.Content)
}

func mediaExtensions(item *gofeed.Item, name string) []ext.Extension {
	namespace, ok := item.Extensions[mediaExtensionPrefix]
	if !ok {
		return nil
	}

	return namespace[name]
}
