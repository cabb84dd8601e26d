package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"housingprice/internal"
)

var ErrNoTables = errors.New("no recognizable tables")

type TableResult struct {
	Index  int
	Topic  internal.Topic
	Layout Layout
	Rows   []internal.Row
}

// topicQueue hands out topics in publication order per layout kind, so a stray
// decorative table cannot shift the topic of the data tables that follow it.
type topicQueue map[LayoutKind][]internal.Topic

func newTopicQueue() topicQueue {
	q := topicQueue{}
	for _, topic := range internal.Topics() {
		kind := LayoutSimple
		if topic.IsCategory() {
			kind = LayoutCategory
		}
		q[kind] = append(q[kind], topic)
	}
	return q
}

func (q topicQueue) next(kind LayoutKind) (internal.Topic, bool) {
	pending := q[kind]
	if len(pending) == 0 {
		return 0, false
	}
	q[kind] = pending[1:]
	return pending[0], true
}

// ParseBulletin extracts and normalizes every data table of a bulletin page.
// Tables that cannot be parsed are skipped; ErrNoTables is returned when none
// is left.
func ParseBulletin(html []byte, month string) ([]TableResult, error) {
	grids, err := ExtractTables(html)
	if err != nil {
		return nil, fmt.Errorf("extract tables: %w", err)
	}

	queue := newTopicQueue()
	out := []TableResult{}
	for i, grid := range grids {
		layout := DetectLayout(grid)
		if layout.Kind == LayoutUnrecognized {
			slog.Debug("skipping table", "month", month, "table", i, "columns", layout.Width)
			continue
		}
		topic, ok := queue.next(layout.Kind)
		if !ok {
			slog.Debug("extra table ignored", "month", month, "table", i, "layout", layout.Kind.String())
			continue
		}

		rows, _ := NormalizeTable(grid, month, topic)
		if len(rows) == 0 {
			slog.Warn("table yielded no rows", "month", month, "table", i, "topic", topic.String())
			continue
		}
		out = append(out, TableResult{Index: i, Topic: topic, Layout: layout, Rows: rows})
	}

	if len(out) == 0 {
		return nil, ErrNoTables
	}
	return out, nil
}
