package entity

import "time"

// NewsItem represents a single news article candidate for a security.
// Two items are duplicates iff their URLs are equal; near-duplicate titles
// are kept as separate items.
type NewsItem struct {
	Title       string
	URL         string
	PublishedAt time.Time
}
