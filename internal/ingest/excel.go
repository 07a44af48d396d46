package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"lessonpulse/internal/lesson"
)

// ReadClassExcel reads the class extract from an xlsx workbook
func ReadClassExcel(r io.Reader) ([]lesson.ClassRow, error) {
	rows, err := readExcel(r, classColumns)
	if err != nil {
		return nil, fmt.Errorf("read class workbook: %w", err)
	}
	return parseClassRows(rows)
}

// ReadParticipantExcel reads the participant extract from an xlsx workbook
func ReadParticipantExcel(r io.Reader) ([]lesson.ParticipantRow, error) {
	rows, err := readExcel(r, participantColumns)
	if err != nil {
		return nil, fmt.Errorf("read participant workbook: %w", err)
	}
	return parseParticipantRows(rows)
}

// readExcel opens the workbook and picks the first sheet whose leading rows
// satisfy the schema; extracts occasionally arrive with cover sheets first
func readExcel(r io.Reader, specs []columnSpec) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var lastErr error
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) == 0 {
			continue
		}
		if _, _, err := findHeader(rows, specs); err != nil {
			lastErr = err
			continue
		}
		return rows, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("no sheet matches the extract schema: %w", lastErr)
	}
	return nil, fmt.Errorf("workbook contains no data sheets")
}

// LoadClassFile reads the class extract from a path, dispatching on extension
func LoadClassFile(path string) ([]lesson.ClassRow, error) {
	return loadFile(path, ReadClassCSV, ReadClassExcel)
}

// LoadParticipantFile reads the participant extract from a path
func LoadParticipantFile(path string) ([]lesson.ParticipantRow, error) {
	return loadFile(path, ReadParticipantCSV, ReadParticipantExcel)
}

// IsExcelName reports whether the filename looks like an xlsx workbook
func IsExcelName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm")
}
