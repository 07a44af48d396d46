package ingest

import (
	"fmt"
	"log/slog"

	"lessonpulse/internal/lesson"
	"lessonpulse/internal/metrics"
)

// parseClassRows turns raw sheet rows into class rows. The header row is
// located first; empty rows after it are skipped with a warning counter.
func parseClassRows(rows [][]string) ([]lesson.ClassRow, error) {
	headerIdx, columnMap, err := findHeader(rows, classColumns)
	if err != nil {
		return nil, fmt.Errorf("class extract: %w", err)
	}

	var out []lesson.ClassRow
	skipped := 0

	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			skipped++
			continue
		}

		out = append(out, lesson.ClassRow{
			SessionID:             cell(row, columnMap, colSessionID),
			CourseID:              cell(row, columnMap, colCourseID),
			Company:               cell(row, columnMap, colCompany),
			Description:           cell(row, columnMap, colDescription),
			Subject:               cell(row, columnMap, colSubject),
			Level:                 cell(row, columnMap, colLevel),
			TeacherSummary:        cell(row, columnMap, colTeacherSummary),
			SeatCapacity:          cellInt(row, columnMap, colSeatCapacity),
			Start:                 cell(row, columnMap, colStart),
			End:                   cell(row, columnMap, colEnd),
			ActualDurationMinutes: cellFloat(row, columnMap, colActualDuration),
			CancelledBy:           cell(row, columnMap, colCancelledBy),
			CancelledAt:           cell(row, columnMap, colCancelledAt),
		})
	}

	if skipped > 0 {
		metrics.IngestRowsSkipped.Add(float64(skipped))
		slog.Warn("skipped empty class rows", slog.Int("count", skipped))
	}

	return out, nil
}

// parseParticipantRows turns raw sheet rows into participant rows
func parseParticipantRows(rows [][]string) ([]lesson.ParticipantRow, error) {
	headerIdx, columnMap, err := findHeader(rows, participantColumns)
	if err != nil {
		return nil, fmt.Errorf("participant extract: %w", err)
	}

	var out []lesson.ParticipantRow
	skipped := 0

	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			skipped++
			continue
		}

		out = append(out, lesson.ParticipantRow{
			SessionID:     cell(row, columnMap, colSessionID),
			Username:      cell(row, columnMap, colUsername),
			FirstName:     cell(row, columnMap, colFirstName),
			LastName:      cell(row, columnMap, colLastName),
			IsTeacher:     cellBool(row, columnMap, colIsTeacher),
			Attended:      cellBool(row, columnMap, colAttended),
			ScheduledJoin: cell(row, columnMap, colScheduledJoin),
			ActualJoin:    cell(row, columnMap, colActualJoin),
			Cancelled:     cellBool(row, columnMap, colCancelled),
			CancelledBy:   cell(row, columnMap, colCancelledBy),
			CancelledAt:   cell(row, columnMap, colCancelledAt),
			EnrolledAt:    cell(row, columnMap, colEnrolledAt),
			Rating:        cell(row, columnMap, colRating),
			Feedback:      cell(row, columnMap, colFeedback),
		})
	}

	if skipped > 0 {
		metrics.IngestRowsSkipped.Add(float64(skipped))
		slog.Warn("skipped empty participant rows", slog.Int("count", skipped))
	}

	return out, nil
}
