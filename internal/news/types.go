package news

import (
	"time"

	"github.com/google/uuid"
)

// Event is a detected S&P 500 membership change, ready for the decision
// engine and the NATS bus
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	Link        string    `json:"link,omitempty"`
	Added       []string  `json:"added,omitempty"`
	Removed     []string  `json:"removed,omitempty"`
	Confidence  float64   `json:"confidence"`
	PublishedAt time.Time `json:"published_at"`
	DetectedAt  time.Time `json:"detected_at"`
}

// NewEvent stamps a classified headline into a bus event
func NewEvent(item Item, feed Feed, change *IndexChange) Event {
	return Event{
		ID:          uuid.NewString(),
		Title:       item.Title,
		Source:      feed.Name,
		Link:        item.Link,
		Added:       change.Added,
		Removed:     change.Removed,
		Confidence:  change.Confidence * feed.Reliability,
		PublishedAt: item.Published,
		DetectedAt:  time.Now().UTC(),
	}
}

// Tickers returns every ticker the event names, additions first
func (e Event) Tickers() []string {
	out := make([]string, 0, len(e.Added)+len(e.Removed))
	out = append(out, e.Added...)
	out = append(out, e.Removed...)
	return out
}
