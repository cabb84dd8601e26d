package pipeline

import (
	"sort"
	"strings"

	"housingprice/internal"
	"housingprice/internal/util"
)

const indexBase = 100.0

// BuildChart reshapes dataset rows into one point per (row, column).
func BuildChart(rows []internal.Row) []internal.ChartPoint {
	out := []internal.ChartPoint{}
	for _, row := range rows {
		for _, col := range row.Columns {
			segment, metric := splitColumn(row.Topic, col)
			out = append(out, internal.ChartPoint{
				Month:     row.Month,
				City:      row.City,
				HouseType: row.Topic.HouseType(),
				Segment:   segment,
				Metric:    metric,
				Value:     util.ParseNumberPtr(row.Values[col]),
			})
		}
	}
	return out
}

// splitColumn separates a fused "segment-metric" label. Segment labels may
// themselves contain dashes ("90-144m2"), so the split is on the last one.
func splitColumn(topic internal.Topic, column string) (string, string) {
	if !topic.IsCategory() {
		return internal.SegmentOverall, column
	}
	idx := strings.LastIndex(column, "-")
	if idx <= 0 {
		return internal.SegmentOverall, column
	}
	return column[:idx], column[idx+1:]
}

type indexGroup struct {
	city      string
	houseType internal.HouseType
	segment   string
}

// BuildPriceIndex chains month-over-month changes into a base-100 index per
// (city, house type, segment). Points without a numeric 环比 value do not move
// the index and produce no entry.
func BuildPriceIndex(points []internal.ChartPoint) []internal.IndexPoint {
	byGroup := map[indexGroup]map[string]float64{}
	for _, p := range points {
		if p.Metric != internal.MetricMoM || p.Value == nil {
			continue
		}
		g := indexGroup{city: p.City, houseType: p.HouseType, segment: p.Segment}
		if byGroup[g] == nil {
			byGroup[g] = map[string]float64{}
		}
		byGroup[g][p.Month] = *p.Value
	}

	groups := make([]indexGroup, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.city != b.city {
			return a.city < b.city
		}
		if a.houseType != b.houseType {
			return a.houseType < b.houseType
		}
		return a.segment < b.segment
	})

	out := []internal.IndexPoint{}
	for _, g := range groups {
		series := byGroup[g]
		months := make([]string, 0, len(series))
		for m := range series {
			months = append(months, m)
		}
		sort.Strings(months)

		index := indexBase
		for _, m := range months {
			index *= series[m] / 100
			out = append(out, internal.IndexPoint{
				Month:     m,
				City:      g.city,
				HouseType: g.houseType,
				Segment:   g.segment,
				Index:     util.Round(index, 4),
			})
		}
	}
	return out
}
