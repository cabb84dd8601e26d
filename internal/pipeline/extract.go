package pipeline

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxSpan = 64

// Grid is a table as a rectangular matrix of cell texts.
type Grid [][]string

func (g Grid) Width() int {
	width := 0
	for _, row := range g {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// Cell returns "" for coordinates outside the grid.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// ExtractTables returns every innermost <table> of the document as a Grid, in
// document order. Spanned cells are repeated into each position they cover.
func ExtractTables(html []byte) ([]Grid, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	out := []Grid{}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		if table.Find("table").Length() > 0 {
			return
		}
		grid := tableToGrid(table)
		if len(grid) > 0 {
			out = append(out, grid)
		}
	})
	return out, nil
}

type pendingSpan struct {
	text      string
	remaining int
}

func tableToGrid(table *goquery.Selection) Grid {
	grid := Grid{}
	pending := map[int]*pendingSpan{}

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		row := []string{}
		fillPending := func() {
			for {
				span, ok := pending[len(row)]
				if !ok || span.remaining == 0 {
					return
				}
				row = append(row, span.text)
				span.remaining--
				if span.remaining == 0 {
					delete(pending, len(row)-1)
				}
			}
		}

		tr.ChildrenFiltered("th,td").Each(func(_ int, cell *goquery.Selection) {
			fillPending()
			text := cell.Text()
			colspan := spanAttr(cell, "colspan")
			rowspan := spanAttr(cell, "rowspan")
			for i := 0; i < colspan; i++ {
				if rowspan > 1 {
					pending[len(row)] = &pendingSpan{text: text, remaining: rowspan - 1}
				}
				row = append(row, text)
			}
		})
		fillPending()

		// Row spans reaching past the last cell of this row.
		lastCol := -1
		for col := range pending {
			if col > lastCol {
				lastCol = col
			}
		}
		for col := len(row); col <= lastCol; col++ {
			if _, ok := pending[col]; !ok {
				continue
			}
			for len(row) < col {
				row = append(row, "")
			}
			fillPending()
		}
		grid = append(grid, row)
	})

	width := grid.Width()
	for i := range grid {
		for len(grid[i]) < width {
			grid[i] = append(grid[i], "")
		}
	}
	if width == 0 {
		return nil
	}
	return grid
}

func spanAttr(cell *goquery.Selection, name string) int {
	raw, ok := cell.Attr(name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	if n > maxSpan {
		return maxSpan
	}
	return n
}
