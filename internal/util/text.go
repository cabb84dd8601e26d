package util

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// CleanText drops markup tags, decodes entities, turns non-breaking spaces into
// plain spaces and trims the result.
func CleanText(input string) string {
	if input == "" {
		return ""
	}
	text := input
	if strings.ContainsAny(input, "<&") {
		text = stripMarkup(input)
	}
	text = strings.ReplaceAll(text, "\u00a0", " ")
	return strings.TrimSpace(text)
}

func CleanTextPtr(input *string) string {
	if input == nil {
		return ""
	}
	return CleanText(*input)
}

// CompactCity cleans a city cell and removes every whitespace rune, so that
// "北 京" and " 北京 " compare equal.
func CompactCity(input string) string {
	cleaned := CleanText(input)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, cleaned)
}

// CompactLabel removes plain spaces from a header label.
func CompactLabel(input string) string {
	return strings.ReplaceAll(CleanText(input), " ", "")
}

func stripMarkup(input string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(input))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

func StringPtr(v string) *string {
	return &v
}

func FloatPtr(v float64) *float64 {
	return &v
}
