package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"nodegraph/internal/codec"
)

// timeLayout is used for the TEXT timestamp columns.
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target any) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// documentCounts tallies the entities of a serialized store.
type documentCounts struct {
	flowCharts int
	nodes      int
	connectors int
}

func countElements(doc *codec.Element) documentCounts {
	var c documentCounts
	var walk func(e *codec.Element)
	walk = func(e *codec.Element) {
		switch e.Name {
		case "FlowChart":
			c.flowCharts++
		case "Node":
			c.nodes++
		case "Connector":
			c.connectors++
		}
		for _, child := range e.Children {
			walk(child)
		}
	}
	if doc != nil {
		walk(doc)
	}
	return c
}
