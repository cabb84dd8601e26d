package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseLocalFileMonthFromName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2024-03.html")
	if err := os.WriteFile(path, bulletinPage("2024年3月", "北京"), 0o644); err != nil {
		t.Fatal(err)
	}

	tables, month, err := ParseLocalFile(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if month != "2024-03" || len(tables) != 3 {
		t.Fatalf("month=%s tables=%d", month, len(tables))
	}
}

func TestParseLocalFileNeedsMonth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, bulletinPage("2024年3月", "北京"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := ParseLocalFile(path, ""); err == nil {
		t.Fatal("expected error")
	}
	if _, month, err := ParseLocalFile(path, "2024-03"); err != nil || month != "2024-03" {
		t.Fatalf("month=%s err=%v", month, err)
	}
}
