package summary

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SummaryItem is one generated summary. Immutable once created.
type SummaryItem struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewSummaryItem creates an item for freshly generated summary text
func NewSummaryItem(text string) SummaryItem {
	return SummaryItem{
		ID:        uuid.New().String(),
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}

// History is an append-only sequence of summaries ordered newest first.
// It is unbounded; callers that need a cap trim the slice they receive.
type History struct {
	mu    sync.RWMutex
	items []SummaryItem
}

// NewHistory creates an empty history
func NewHistory() *History {
	return &History{}
}

// Prepend adds a summary to the front of the history
func (h *History) Prepend(item SummaryItem) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = append([]SummaryItem{item}, h.items...)
}

// Items returns a copy of the history, newest first
func (h *History) Items() []SummaryItem {
	h.mu.RLock()
	defer h.mu.RUnlock()

	items := make([]SummaryItem, len(h.items))
	copy(items, h.items)
	return items
}

// Latest returns the most recent summary, if any
func (h *History) Latest() (SummaryItem, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.items) == 0 {
		return SummaryItem{}, false
	}
	return h.items[0], true
}

// Len returns the number of summaries recorded
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}
