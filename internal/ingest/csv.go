package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"

	"lessonpulse/internal/lesson"
)

// ReadClassCSV reads the class extract from CSV
func ReadClassCSV(r io.Reader) ([]lesson.ClassRow, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, fmt.Errorf("read class CSV: %w", err)
	}
	return parseClassRows(rows)
}

// ReadParticipantCSV reads the participant extract from CSV
func ReadParticipantCSV(r io.Reader) ([]lesson.ParticipantRow, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, fmt.Errorf("read participant CSV: %w", err)
	}
	return parseParticipantRows(rows)
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1 // ragged rows are handled by the schema layer

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV records: %w", err)
	}
	return records, nil
}

// stripBOM drops a UTF-8 byte order mark so the first header cell matches
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, err := br.Peek(3)
	if err == nil && len(head) == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		br.Discard(3)
	}
	return br
}
