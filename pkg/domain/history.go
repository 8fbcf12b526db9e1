package domain

import "time"

// HistoryEntry is a saved diagram source.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	Preview   string    `json:"preview,omitempty"`
}
