package util

import (
	"math"
	"strconv"
	"strings"
)

var numberReplacer = strings.NewReplacer(",", "", "，", "", " ", "", "－", "-", "％", "", "%", "")

// ParseNumber reads a numeric table cell. Blank cells, dashes and any other
// non-numeric text report false.
func ParseNumber(input string) (float64, bool) {
	token := numberReplacer.Replace(CleanText(input))
	if token == "" || token == "-" || token == "--" || token == "—" {
		return 0, false
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

func ParseNumberPtr(input string) *float64 {
	value, ok := ParseNumber(input)
	if !ok {
		return nil
	}
	return FloatPtr(value)
}

func Round(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
