package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// RowFunc returns the fields of a row reference.
type RowFunc func(i int) []string

// Write exports rows in format "csv" or "json" (NDJSON keyed by header).
func Write(format, path string, headers []string, rowAt RowFunc, rows []int) error {
	switch format {
	case "csv":
		return ToCSV(path, headers, rowAt, rows)
	case "json":
		return ToNDJSON(path, headers, rowAt, rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func ToCSV(path string, headers []string, rowAt RowFunc, rows []int) error {
	if len(rows) == 0 {
		return errors.New("no rows")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(rowAt(r)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func ToNDJSON(path string, headers []string, rowAt RowFunc, rows []int) error {
	if len(rows) == 0 {
		return errors.New("no rows")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	for _, r := range rows {
		row := rowAt(r)
		obj := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				obj[h] = row[i]
			}
		}
		if err := enc.Encode(obj); err != nil {
			return err
		}
	}
	return bw.Flush()
}
