package pipeline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"housingprice/internal"
)

func TestRenderStatus(t *testing.T) {
	store := seedStore(t)
	require.NoError(t, store.MarkProcessed("2024-02", internal.ProcessedEntry{Title: title("2024年2月"), URL: "u", DocDate: "2024-03-15"}))
	require.NoError(t, store.WriteFailures([]internal.FailureRecord{{Month: "2024-03", URL: "u3", Error: "status=404"}}))

	var buf bytes.Buffer
	require.NoError(t, RenderStatus(&buf, store))

	out := buf.String()
	for _, want := range []string{"Processed bulletins", "2024-03-15", "new_home_category_1", "status=404"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q:\n%s", want, out)
		}
	}
}
