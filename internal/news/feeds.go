package news

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Feed is a single RSS source with a reliability weight applied to the
// confidence of anything it produces
type Feed struct {
	Name        string  `yaml:"name"`
	URL         string  `yaml:"url"`
	Reliability float64 `yaml:"reliability"`
}

type feedsFile struct {
	Feeds []Feed `yaml:"feeds"`
}

// LoadFeeds reads the feed list from a YAML file
func LoadFeeds(path string) ([]Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds file: %w", err)
	}

	var file feedsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse feeds file: %w", err)
	}
	if len(file.Feeds) == 0 {
		return nil, fmt.Errorf("feeds file %s lists no feeds", path)
	}

	for i, feed := range file.Feeds {
		if feed.Name == "" || feed.URL == "" {
			return nil, fmt.Errorf("feed %d is missing a name or url", i)
		}
		if feed.Reliability <= 0 || feed.Reliability > 1 {
			file.Feeds[i].Reliability = 1.0
		}
	}
	return file.Feeds, nil
}
