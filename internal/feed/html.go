package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// stripHTML converts feed markup to plain text: tags removed, entities
// unescaped, whitespace runs collapsed to single spaces. Used only for
// description rendering, never for titles or links.
func stripHTML(markup string) string {
	markup = strings.TrimSpace(markup)
	if markup == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return strings.Join(strings.Fields(markup), " ")
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}

// firstImageSrc returns the src of the first <img> in the given markup,
// or an empty string.
func firstImageSrc(markup string) string {
	markup = strings.TrimSpace(markup)
	if markup == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(doc.Find("img[src]").First().AttrOr("src", ""))
}
