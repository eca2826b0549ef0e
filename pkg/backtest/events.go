package backtest

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Action marks which side of the index change a ticker is on
type Action string

const (
	ActionAdded   Action = "ADDED"
	ActionRemoved Action = "REMOVED"
)

// IndexEvent is one historical S&P 500 membership change
type IndexEvent struct {
	Date   time.Time
	Ticker string
	Action Action
}

// LoadEventsCSV reads historical index changes from a CSV file with a
// date,ticker,action header. Rows are returned sorted by date ascending.
func LoadEventsCSV(path string) ([]IndexEvent, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open events file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse events file: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("events file %s has no data rows", path)
	}

	events := make([]IndexEvent, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < 3 {
			return nil, fmt.Errorf("row %d has %d columns, need 3", i+2, len(record))
		}

		date, err := time.Parse("2006-01-02", record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d has invalid date %q: %w", i+2, record[0], err)
		}

		action := Action(strings.ToUpper(strings.TrimSpace(record[2])))
		if action != ActionAdded && action != ActionRemoved {
			return nil, fmt.Errorf("row %d has invalid action %q", i+2, record[2])
		}

		events = append(events, IndexEvent{
			Date:   date,
			Ticker: strings.ToUpper(strings.TrimSpace(record[1])),
			Action: action,
		})
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events, nil
}
