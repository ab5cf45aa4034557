package vault

import "time"

// Note is the unit of storage. It is JSON-encoded as the store value; the
// title doubles as the store key, which is why titles are unique.
type Note struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Tags         []string  `json:"tags,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}
