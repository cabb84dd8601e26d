package storage

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"housingprice/internal"
)

const (
	colMonth = "month"
	colTable = "table"
)

// WriteRowsCSV writes rows as "month,table,城市,<value columns...>".
func WriteRowsCSV(w io.Writer, rows []internal.Row) error {
	columns := DatasetColumns(rows)
	cw := csv.NewWriter(w)

	header := append([]string{colMonth, colTable, internal.CityLabel}, columns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, 0, len(header))
		record = append(record, row.Month, row.Topic.String(), row.City)
		for _, col := range columns {
			record = append(record, row.Value(col))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadRowsCSV(r io.Reader) ([]internal.Row, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && string(bom) == "\xef\xbb\xbf" {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(header) < 3 || header[0] != colMonth || header[1] != colTable || header[2] != internal.CityLabel {
		return nil, fmt.Errorf("unexpected dataset header: %s", strings.Join(header, ","))
	}
	columns := header[3:]

	out := []internal.Row{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < 3 {
			continue
		}
		topic, ok := internal.ParseTopic(record[1])
		if !ok {
			return nil, fmt.Errorf("line %d: unknown table %q", line, record[1])
		}
		row := internal.Row{Month: record[0], Topic: topic, City: record[2], Values: map[string]string{}}
		for i, col := range columns {
			if 3+i >= len(record) || record[3+i] == "" {
				continue
			}
			row.Columns = append(row.Columns, col)
			row.Values[col] = record[3+i]
		}
		out = append(out, row)
	}
	return out, nil
}
