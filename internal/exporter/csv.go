// Package exporter writes report tables to CSV files and Excel workbooks.
package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"lessonpulse/internal/reports"
)

// utf8BOM is prepended so Excel opens the CSV with the right encoding
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes a single table to path, creating parent directories.
func WriteCSV(table *reports.Table, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(table.Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range table.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

// WriteCSVDir writes each table to dir as <name>.csv.
func WriteCSVDir(tables []*reports.Table, dir string) error {
	for _, t := range tables {
		path := filepath.Join(dir, t.Name+".csv")
		if err := WriteCSV(t, path); err != nil {
			return err
		}
	}
	return nil
}
