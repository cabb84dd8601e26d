package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractTablesExpandsSpans(t *testing.T) {
	html := `<html><body>
<table>
  <tr><td rowspan="2">城市</td><td colspan="2">新建商品住宅</td></tr>
  <tr><td>环比</td><td>同比</td></tr>
  <tr><td>北 京</td><td>100.2</td><td>&nbsp;98.1</td></tr>
</table>
</body></html>`

	grids, err := ExtractTables([]byte(html))
	if err != nil {
		t.Fatal(err)
	}
	if len(grids) != 1 {
		t.Fatalf("len=%d", len(grids))
	}
	want := Grid{
		{"城市", "新建商品住宅", "新建商品住宅"},
		{"城市", "环比", "同比"},
		{"北 京", "100.2", "\u00a098.1"},
	}
	if diff := cmp.Diff(want, grids[0]); diff != "" {
		t.Fatalf("grid mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractTablesTrailingRowspan(t *testing.T) {
	html := `<table>
<tr><td>a</td><td>b</td><td rowspan="3">c</td></tr>
<tr><td>d</td><td>e</td></tr>
<tr><td>f</td></tr>
</table>`

	grids, err := ExtractTables([]byte(html))
	if err != nil {
		t.Fatal(err)
	}
	want := Grid{
		{"a", "b", "c"},
		{"d", "e", "c"},
		{"f", "", "c"},
	}
	if diff := cmp.Diff(want, grids[0]); diff != "" {
		t.Fatalf("grid mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractTablesSkipsLayoutWrappers(t *testing.T) {
	html := `<table><tr><td>
  <table><tr><td>城市</td><td>环比</td></tr></table>
  <table><tr><td>城市</td><td>同比</td></tr></table>
</td></tr></table>`

	grids, err := ExtractTables([]byte(html))
	if err != nil {
		t.Fatal(err)
	}
	if len(grids) != 2 {
		t.Fatalf("len=%d", len(grids))
	}
	if grids[1].Cell(0, 1) != "同比" {
		t.Fatalf("second grid=%v", grids[1])
	}
}

func TestGridCellOutOfRange(t *testing.T) {
	g := Grid{{"a"}}
	if g.Cell(3, 0) != "" || g.Cell(0, 5) != "" || g.Cell(-1, 0) != "" {
		t.Fatal("expected empty cells outside the grid")
	}
}
