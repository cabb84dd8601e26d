package pipeline

import (
	"strings"

	"housingprice/internal"
	"housingprice/internal/util"
)

var simpleColumns = []string{internal.MetricMoM, internal.MetricYoY, internal.MetricAvg}

type parsedRow struct {
	city   string
	values []string
}

// tableParser turns the data area of a grid into value columns and raw rows.
type tableParser func(g Grid, l Layout) ([]string, []parsedRow)

var parsers = map[LayoutKind]tableParser{
	LayoutSimple:   parseSimple,
	LayoutCategory: parseCategory,
}

// NormalizeTable converts one bulletin table into canonical rows for month and
// topic. Unrecognized layouts yield no rows.
func NormalizeTable(g Grid, month string, topic internal.Topic) ([]internal.Row, Layout) {
	layout := DetectLayout(g)
	parse, ok := parsers[layout.Kind]
	if !ok {
		return nil, layout
	}

	columns, parsed := parse(g, layout)
	out := make([]internal.Row, 0, len(parsed))
	for _, p := range parsed {
		city := util.CompactCity(p.city)
		if city == "" || city == internal.CityLabel {
			continue
		}
		row := internal.Row{
			Month:  month,
			Topic:  topic,
			City:   city,
			Values: map[string]string{},
		}
		for i, col := range columns {
			if i >= len(p.values) {
				break
			}
			value := util.CleanText(p.values[i])
			if value == "" {
				continue
			}
			row.Columns = append(row.Columns, col)
			row.Values[col] = value
		}
		out = append(out, row)
	}
	return out, layout
}

// parseSimple reads the {city, 环比, 同比, 平均} block. Wide tables carry a second
// city group in the next four columns; its rows follow the first group's.
func parseSimple(g Grid, l Layout) ([]string, []parsedRow) {
	starts := []int{0}
	if l.Width >= 2*simpleBlockWidth {
		starts = append(starts, simpleBlockWidth)
	}

	first := dataStart(g, l)
	out := []parsedRow{}
	for _, start := range starts {
		for r := first; r < len(g); r++ {
			values := make([]string, 0, len(simpleColumns))
			for c := 1; c < simpleBlockWidth; c++ {
				values = append(values, g.Cell(r, start+c))
			}
			out = append(out, parsedRow{city: g.Cell(r, start), values: values})
		}
	}
	return simpleColumns, out
}

// parseCategory reads tables whose area-segment header sits above a metric
// header; the two rows are fused into "segment-metric" labels.
func parseCategory(g Grid, l Layout) ([]string, []parsedRow) {
	labels := fuseHeaders(g, l)

	keep := []int{}
	columns := []string{}
	seen := map[string]struct{}{internal.CityLabel: {}}
	for i := 1; i < len(labels); i++ {
		if labels[i] == "" {
			continue
		}
		if _, dup := seen[labels[i]]; dup {
			continue
		}
		seen[labels[i]] = struct{}{}
		keep = append(keep, i)
		columns = append(columns, labels[i])
	}

	out := []parsedRow{}
	for r := dataStart(g, l); r < len(g); r++ {
		values := make([]string, 0, len(keep))
		for _, c := range keep {
			values = append(values, g.Cell(r, c))
		}
		out = append(out, parsedRow{city: g.Cell(r, 0), values: values})
	}
	return columns, out
}

func fuseHeaders(g Grid, l Layout) []string {
	top := l.HeaderOffset
	bottom := l.HeaderOffset + 1

	labels := make([]string, l.Width)
	labels[0] = internal.CityLabel
	for i := 1; i < l.Width; i++ {
		h0 := util.CompactLabel(g.Cell(top, i))
		h1 := util.CompactLabel(g.Cell(bottom, i))
		switch {
		case h0 == h1:
			labels[i] = h0
		case h0 != "" && h1 != "":
			labels[i] = h0 + "-" + canonicalMetric(h1)
		case h0 != "":
			labels[i] = h0
		default:
			labels[i] = canonicalMetric(h1)
		}
	}
	return labels
}

// canonicalMetric maps month-dependent labels such as "1-2月平均" onto a fixed name.
func canonicalMetric(label string) string {
	for _, metric := range simpleColumns {
		if strings.Contains(label, metric) {
			return metric
		}
	}
	return label
}

// dataStart is the first row after the header. The row directly below the header
// is a units row ("上月=100") in published tables and is skipped unless it
// already carries numbers.
func dataStart(g Grid, l Layout) int {
	start := l.HeaderOffset + l.headerRows()
	if start < len(g) && !hasNumericValue(g[start]) {
		start++
	}
	return start
}

func hasNumericValue(row []string) bool {
	for i := 1; i < len(row); i++ {
		if _, ok := util.ParseNumber(row[i]); ok {
			return true
		}
	}
	return false
}
