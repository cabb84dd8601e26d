package pipeline

import (
	"housingprice/internal"
)

// DatasetCombined names the dataset that holds every topic.
const DatasetCombined = "all"

// KeyFunc returns the natural key a dataset deduplicates on.
type KeyFunc func(internal.Row) string

// TopicKey is the key inside a single-topic dataset, where the topic is implied.
func TopicKey(r internal.Row) string {
	return r.Month + "\x1f" + r.City
}

// CombinedKey is the key of the combined dataset.
func CombinedKey(r internal.Row) string {
	return r.Month + "\x1f" + r.Topic.String() + "\x1f" + r.City
}

// MergeRows appends incoming to existing and keeps only the last row for every
// key, at the position of that last row. Re-merging a batch is therefore a no-op
// and a corrected bulletin replaces the rows it was first ingested with.
func MergeRows(existing, incoming []internal.Row, key KeyFunc) []internal.Row {
	if len(incoming) == 0 {
		return existing
	}

	all := make([]internal.Row, 0, len(existing)+len(incoming))
	all = append(all, existing...)
	all = append(all, incoming...)

	last := make(map[string]int, len(all))
	for i, row := range all {
		last[key(row)] = i
	}

	out := make([]internal.Row, 0, len(last))
	for i, row := range all {
		if last[key(row)] == i {
			out = append(out, row)
		}
	}
	return out
}

// MergeTopic merges a batch into the per-topic dataset. Rows of other topics are ignored.
func MergeTopic(topic internal.Topic) func([]internal.Row, []internal.Row) []internal.Row {
	return func(existing, incoming []internal.Row) []internal.Row {
		filtered := make([]internal.Row, 0, len(incoming))
		for _, row := range incoming {
			if row.Topic == topic {
				filtered = append(filtered, row)
			}
		}
		return MergeRows(existing, filtered, TopicKey)
	}
}

func MergeCombined(existing, incoming []internal.Row) []internal.Row {
	return MergeRows(existing, incoming, CombinedKey)
}
