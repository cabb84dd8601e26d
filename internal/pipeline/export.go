package pipeline

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"housingprice/internal"
	"housingprice/internal/storage"
	"housingprice/internal/util"
)

const (
	siteDataFile   = "data.json"
	siteChartFile  = "chart.json"
	siteIndexFile  = "price_index.json"
	siteXLSXFile   = "data.xlsx"
	siteCSVDirName = "csv"
)

type ExportResult struct {
	Rows        int
	ChartPoints int
	IndexPoints int
	Files       []string
}

// ExportSite writes the static-site artifacts derived from the combined dataset
// into outDir.
func ExportSite(store storage.Store, outDir string) (ExportResult, error) {
	result := ExportResult{}
	rows, err := store.ReadDataset(DatasetCombined)
	if err != nil {
		return result, fmt.Errorf("read %s: %w", DatasetCombined, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return result, err
	}

	chart := BuildChart(rows)
	index := BuildPriceIndex(chart)
	result.Rows = len(rows)
	result.ChartPoints = len(chart)
	result.IndexPoints = len(index)

	outputs := []struct {
		name  string
		value any
	}{
		{siteDataFile, SiteRecords(rows)},
		{siteChartFile, chart},
		{siteIndexFile, index},
	}
	for _, out := range outputs {
		blob, err := storage.MarshalJSON(out.value)
		if err != nil {
			return result, fmt.Errorf("encode %s: %w", out.name, err)
		}
		path := filepath.Join(outDir, out.name)
		if err := os.WriteFile(path, blob, 0o644); err != nil {
			return result, err
		}
		result.Files = append(result.Files, path)
	}

	xlsxPath := filepath.Join(outDir, siteXLSXFile)
	if err := ExportRowsToXLSX(store, xlsxPath); err != nil {
		return result, fmt.Errorf("export xlsx: %w", err)
	}
	result.Files = append(result.Files, xlsxPath)

	csvFiles, err := exportCSV(store, filepath.Join(outDir, siteCSVDirName))
	if err != nil {
		return result, fmt.Errorf("export csv: %w", err)
	}
	result.Files = append(result.Files, csvFiles...)

	slog.Info("site exported", "dir", outDir, "rows", result.Rows, "chart", result.ChartPoints, "index", result.IndexPoints)
	return result, nil
}

// SiteRecords flattens rows into JSON records keyed month, table, city and one
// key per value column. Numeric cells become numbers; cells a row lacks are null.
func SiteRecords(rows []internal.Row) []map[string]any {
	columns := storage.DatasetColumns(rows)
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		rec := map[string]any{
			"month": row.Month,
			"table": row.Topic.String(),
			"city":  row.City,
		}
		for _, col := range columns {
			raw, ok := row.Values[col]
			switch {
			case !ok || raw == "":
				rec[col] = nil
			default:
				if v, ok := util.ParseNumber(raw); ok {
					rec[col] = v
				} else {
					rec[col] = raw
				}
			}
		}
		out = append(out, rec)
	}
	return out
}

// ExportRowsToXLSX writes one sheet per topic dataset that has rows.
func ExportRowsToXLSX(store storage.Store, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	firstSheet := f.GetSheetName(0)
	written := 0
	for _, topic := range internal.Topics() {
		rows, err := store.ReadDataset(topic.String())
		if err != nil {
			return fmt.Errorf("read %s: %w", topic, err)
		}
		if len(rows) == 0 {
			continue
		}

		sheet := topic.String()
		if written == 0 {
			if err := f.SetSheetName(firstSheet, sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		written++

		columns := storage.DatasetColumns(rows)
		headers := append([]string{"month", internal.CityLabel}, columns...)
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			_ = f.SetCellValue(sheet, cell, h)
		}
		for i, row := range rows {
			r := i + 2
			set := func(col int, value any) {
				cell, _ := excelize.CoordinatesToCellName(col, r)
				_ = f.SetCellValue(sheet, cell, value)
			}
			set(1, row.Month)
			set(2, row.City)
			for j, col := range columns {
				set(3+j, cellValue(row.Value(col)))
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func cellValue(raw string) any {
	if v, ok := util.ParseNumber(raw); ok {
		return v
	}
	return raw
}

func exportCSV(store storage.Store, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	names := []string{DatasetCombined}
	for _, topic := range internal.Topics() {
		names = append(names, topic.String())
	}

	files := []string{}
	for _, name := range names {
		rows, err := store.ReadDataset(name)
		if err != nil {
			return files, fmt.Errorf("read %s: %w", name, err)
		}
		if len(rows) == 0 {
			continue
		}
		var buf bytes.Buffer
		if err := storage.WriteRowsCSV(&buf, rows); err != nil {
			return files, err
		}
		path := filepath.Join(dir, name+".csv")
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}
