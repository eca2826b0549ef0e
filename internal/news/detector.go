package news

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/config"
)

const (
	defaultCheckInterval = 30 * time.Second
	defaultDedupWindow   = time.Hour
	defaultMaxEntryAge   = 24 * time.Hour
	feedFetchTimeout     = 15 * time.Second
)

// Detector polls RSS feeds and classifies membership-change headlines
type Detector struct {
	feeds         []Feed
	http          *resty.Client
	checkInterval time.Duration
	dedupWindow   time.Duration
	maxEntryAge   time.Duration
	logger        zerolog.Logger

	mu   sync.Mutex
	seen map[string]time.Time
}

// NewDetector builds a detector from config and a loaded feed list
func NewDetector(cfg config.NewsConfig, feeds []Feed) *Detector {
	checkInterval := cfg.CheckInterval
	if checkInterval <= 0 {
		checkInterval = defaultCheckInterval
	}
	dedupWindow := cfg.DedupWindow
	if dedupWindow <= 0 {
		dedupWindow = defaultDedupWindow
	}
	maxEntryAge := cfg.MaxEntryAge
	if maxEntryAge <= 0 {
		maxEntryAge = defaultMaxEntryAge
	}

	client := resty.New().
		SetTimeout(feedFetchTimeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("User-Agent", "spxbot/1.0")

	return &Detector{
		feeds:         feeds,
		http:          client,
		checkInterval: checkInterval,
		dedupWindow:   dedupWindow,
		maxEntryAge:   maxEntryAge,
		logger:        config.NewLogger("news"),
		seen:          make(map[string]time.Time),
	}
}

// Run polls every feed on the check interval until the context is cancelled,
// sending classified events on the channel
func (d *Detector) Run(ctx context.Context, events chan<- Event) error {
	d.logger.Info().
		Int("feeds", len(d.feeds)).
		Dur("check_interval", d.checkInterval).
		Msg("News detector started")

	ticker := time.NewTicker(d.checkInterval)
	defer ticker.Stop()

	for {
		for _, event := range d.Poll(ctx) {
			select {
			case events <- event:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			d.logger.Info().Msg("News detector stopped")
			return ctx.Err()
		}
	}
}

// Poll fetches every feed once and returns the new events it found. Feed
// failures are logged and skipped so one dead source cannot stall the rest.
func (d *Detector) Poll(ctx context.Context) []Event {
	d.expireSeen()

	var events []Event
	for _, feed := range d.feeds {
		feedEvents, err := d.pollFeed(ctx, feed)
		if err != nil {
			d.logger.Warn().
				Err(err).
				Str("feed", feed.Name).
				Msg("Feed poll failed")
			continue
		}
		events = append(events, feedEvents...)
	}
	return events
}

func (d *Detector) pollFeed(ctx context.Context, feed Feed) ([]Event, error) {
	resp, err := d.http.R().SetContext(ctx).Get(feed.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", feed.URL, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("feed %s returned status %d", feed.Name, resp.StatusCode())
	}

	items, err := parseRSS(resp.Body())
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, item := range items {
		if !item.Published.IsZero() && time.Since(item.Published) > d.maxEntryAge {
			continue
		}
		if !d.markSeen(item) {
			continue
		}
		change, ok := Classify(item.Title, item.Description)
		if !ok {
			continue
		}
		event := NewEvent(item, feed, change)
		d.logger.Info().
			Str("source", feed.Name).
			Str("title", item.Title).
			Strs("added", event.Added).
			Strs("removed", event.Removed).
			Float64("confidence", event.Confidence).
			Msg("Index change detected")
		events = append(events, event)
	}
	return events, nil
}

// markSeen records an item in the dedup cache, returning false when it was
// already recorded inside the window
func (d *Detector) markSeen(item Item) bool {
	key := itemKey(item)
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.seen[key]; ok && now.Sub(last) < d.dedupWindow {
		return false
	}
	d.seen[key] = now
	return true
}

func (d *Detector) expireSeen() {
	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, last := range d.seen {
		if now.Sub(last) >= d.dedupWindow {
			delete(d.seen, key)
		}
	}
}

func itemKey(item Item) string {
	sum := sha256.Sum256([]byte(strings.ToLower(item.Title) + "|" + item.Link))
	return hex.EncodeToString(sum[:8])
}
