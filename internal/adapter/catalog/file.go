package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/srgjo27/ticketchief/internal/core/domain"
)

type entry struct {
	Count    int    `json:"count"`
	Artist   string `json:"artist"`
	Venue    string `json:"venue"`
	Datetime string `json:"datetime"`
}

// FileCatalog reads events from a JSON array on disk. Line and block
// comments and trailing commas are accepted.
type FileCatalog struct {
	path string
}

func NewFileCatalog(path string) *FileCatalog {
	return &FileCatalog{path: path}
}

func (c *FileCatalog) Load(ctx context.Context) ([]domain.Event, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	events, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.path, err)
	}
	return events, nil
}

// Parse decodes a catalog document. Event ids follow array order.
func Parse(data []byte) ([]domain.Event, error) {
	var entries []entry
	if err := json.Unmarshal(jsonc.ToJSON(data), &entries); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("parsing catalog: no events")
	}

	events := make([]domain.Event, 0, len(entries))
	for i, e := range entries {
		if e.Count < 0 {
			return nil, fmt.Errorf("parsing catalog: event %d: negative count %d", i, e.Count)
		}
		starts, err := time.Parse(time.RFC3339, e.Datetime)
		if err != nil {
			return nil, fmt.Errorf("parsing catalog: event %d: %w", i, err)
		}
		events = append(events, domain.Event{
			ID:        i,
			Artist:    e.Artist,
			Venue:     e.Venue,
			Datetime:  starts,
			Remaining: e.Count,
		})
	}
	return events, nil
}
