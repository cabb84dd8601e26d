package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"housingprice/internal/util"
)

// ParseLocalFile parses a saved bulletin page. When month is empty it is taken
// from a YYYY-MM file name, the way the raw cache names its files, or from a
// month phrase in the file name.
func ParseLocalFile(path, month string) ([]TableResult, string, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(month) == "" {
		month = monthFromFileName(path)
	}
	if month == "" {
		return nil, "", fmt.Errorf("cannot infer month from %s, pass --month", filepath.Base(path))
	}
	tables, err := ParseBulletin(blob, month)
	if err != nil {
		return nil, month, err
	}
	return tables, month, nil
}

func monthFromFileName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if len(name) == 7 && name[4] == '-' {
		if m, ok := util.ParseMonth(name[:4] + "年" + name[5:] + "月"); ok {
			return m
		}
	}
	if m, ok := util.ParseMonth(name); ok {
		return m
	}
	return ""
}
