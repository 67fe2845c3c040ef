package models

// Entry is one article drawn from a feed, normalized once by the feed
// package. Downstream code never inspects raw parser structures.
type Entry struct {
	// ID is the feed-provided identifier, falling back to the link.
	// It is unique only within its feed, never globally.
	ID          string
	Title       string
	Link        string
	Description string
	ImageURL    string
}

// Feed is the parsed result of one fetch: the feed title plus its
// entries in feed order (assumed newest-first).
type Feed struct {
	URL     string
	Title   string
	Entries []Entry
}
