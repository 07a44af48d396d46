package ingest

import (
	"fmt"
	"io"
	"os"
)

func loadFile[T any](path string, fromCSV, fromExcel func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open extract: %w", err)
	}
	defer f.Close()

	if IsExcelName(path) {
		return fromExcel(f)
	}
	return fromCSV(f)
}
