package news

import (
	"encoding/xml"
	"fmt"
	"time"
)

// Item is one entry from an RSS feed
type Item struct {
	Title       string
	Link        string
	Description string
	Published   time.Time
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// pubDateFormats covers the date layouts seen in the wild across finance feeds
var pubDateFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// parseRSS decodes an RSS payload into items. Entries with an unparseable
// pubDate keep a zero Published time rather than failing the batch.
func parseRSS(payload []byte) ([]Item, error) {
	var doc rssDocument
	if err := xml.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode rss payload: %w", err)
	}

	items := make([]Item, 0, len(doc.Channel.Items))
	for _, raw := range doc.Channel.Items {
		items = append(items, Item{
			Title:       raw.Title,
			Link:        raw.Link,
			Description: raw.Description,
			Published:   parsePubDate(raw.PubDate),
		})
	}
	return items, nil
}

func parsePubDate(value string) time.Time {
	for _, layout := range pubDateFormats {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
