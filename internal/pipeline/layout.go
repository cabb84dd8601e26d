package pipeline

import (
	"housingprice/internal"
	"housingprice/internal/util"
)

const (
	minTableColumns    = 4
	categoryMinColumns = 10
	simpleBlockWidth   = 4
)

type LayoutKind int

const (
	LayoutUnrecognized LayoutKind = iota
	LayoutSimple
	LayoutCategory
)

func (k LayoutKind) String() string {
	switch k {
	case LayoutSimple:
		return "simple"
	case LayoutCategory:
		return "category"
	default:
		return "unrecognized"
	}
}

// Layout describes where the header of a table starts and which parser applies.
type Layout struct {
	Kind         LayoutKind
	HeaderOffset int
	Width        int
}

// DetectLayout classifies a grid. Bulletins sometimes prepend a caption row, in
// which case cell (0,0) is not the city label and the header starts one row lower.
func DetectLayout(g Grid) Layout {
	width := g.Width()
	if len(g) == 0 || width < minTableColumns {
		return Layout{Kind: LayoutUnrecognized, Width: width}
	}

	offset := 1
	if util.CleanText(g.Cell(0, 0)) == internal.CityLabel {
		offset = 0
	}

	kind := LayoutSimple
	if width >= categoryMinColumns {
		kind = LayoutCategory
	}
	return Layout{Kind: kind, HeaderOffset: offset, Width: width}
}

// headerRows is the number of label rows that precede the units row.
func (l Layout) headerRows() int {
	if l.Kind == LayoutCategory {
		return 2
	}
	return 1
}
