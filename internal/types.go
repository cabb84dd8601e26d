package internal

// CityLabel is the header text of the city column in every bulletin table.
const CityLabel = "城市"

const (
	MetricMoM = "环比"
	MetricYoY = "同比"
	MetricAvg = "平均"
)

// SegmentOverall is the chart segment used for the non-category tables.
const SegmentOverall = "overall"

type HouseType string

const (
	HouseNew        HouseType = "new_home"
	HouseSecondHand HouseType = "second_hand"
)

// Topic identifies one of the six tables a bulletin publishes, in document order.
type Topic int

const (
	TopicNewHome Topic = iota
	TopicSecondHand
	TopicNewHomeCategory1
	TopicNewHomeCategory2
	TopicSecondHandCategory1
	TopicSecondHandCategory2
)

var topicNames = [...]string{
	"new_home",
	"second_hand",
	"new_home_category_1",
	"new_home_category_2",
	"second_hand_category_1",
	"second_hand_category_2",
}

// Topics lists every topic in document order.
func Topics() []Topic {
	return []Topic{
		TopicNewHome,
		TopicSecondHand,
		TopicNewHomeCategory1,
		TopicNewHomeCategory2,
		TopicSecondHandCategory1,
		TopicSecondHandCategory2,
	}
}

// ParseTopic is the inverse of Topic.String.
func ParseTopic(name string) (Topic, bool) {
	for i, n := range topicNames {
		if n == name {
			return Topic(i), true
		}
	}
	return 0, false
}

func (t Topic) String() string {
	if t < 0 || int(t) >= len(topicNames) {
		return "unknown"
	}
	return topicNames[t]
}

func (t Topic) HouseType() HouseType {
	switch t {
	case TopicSecondHand, TopicSecondHandCategory1, TopicSecondHandCategory2:
		return HouseSecondHand
	default:
		return HouseNew
	}
}

func (t Topic) IsCategory() bool {
	return t >= TopicNewHomeCategory1
}

type Bulletin struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	DocDate string `json:"docDate"`
	Month   string `json:"-"`
}

// Row is one normalized table row. Values is keyed by column label; Columns keeps
// the order the labels had in the source table.
type Row struct {
	Month   string
	Topic   Topic
	City    string
	Columns []string
	Values  map[string]string
}

func (r Row) Value(column string) string {
	if r.Values == nil {
		return ""
	}
	return r.Values[column]
}

type ProcessedEntry struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	DocDate string `json:"docDate"`
}

// ProcessedIndex maps bulletin month (YYYY-MM) to the bulletin it was ingested from.
type ProcessedIndex struct {
	Processed map[string]ProcessedEntry `json:"processed"`
}

func NewProcessedIndex() ProcessedIndex {
	return ProcessedIndex{Processed: map[string]ProcessedEntry{}}
}

func (idx ProcessedIndex) Has(month string) bool {
	_, ok := idx.Processed[month]
	return ok
}

type FailureRecord struct {
	Month string `json:"month"`
	URL   string `json:"url"`
	Error string `json:"error"`
}

type RunSummary struct {
	TraceID    string
	StartedAt  string
	FinishedAt string
	Candidates int
	Processed  int
	Skipped    int
	Failures   int
}

// ChartPoint is one long-form chart observation. Value is nil when the source cell
// was not numeric.
type ChartPoint struct {
	Month     string    `json:"month"`
	City      string    `json:"city"`
	HouseType HouseType `json:"houseType"`
	Segment   string    `json:"segment"`
	Metric    string    `json:"metric"`
	Value     *float64  `json:"value"`
}

type IndexPoint struct {
	Month     string    `json:"month"`
	City      string    `json:"city"`
	HouseType HouseType `json:"houseType"`
	Segment   string    `json:"segment"`
	Index     float64   `json:"index"`
}
