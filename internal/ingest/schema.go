// Package ingest reads the two raw tabular extracts (classes and
// participants) into named-field rows. Column positions are resolved from the
// header row by name, never by index, and rows that do not fit the schema
// shape are flagged instead of silently misread.
package ingest

import (
	"fmt"
	"strconv"
	"strings"
)

// columnSpec describes one extract column: its canonical name and the header
// spellings the extracts have been seen to use
type columnSpec struct {
	name     string
	aliases  []string
	required bool
}

const (
	colSessionID      = "session_id"
	colCourseID       = "course_id"
	colCompany        = "company"
	colDescription    = "description"
	colSubject        = "subject"
	colLevel          = "level"
	colTeacherSummary = "teacher_summary"
	colSeatCapacity   = "seat_capacity"
	colStart          = "start"
	colEnd            = "end"
	colActualDuration = "actual_duration"
	colCancelledBy    = "cancelled_by"
	colCancelledAt    = "cancelled_at"

	colUsername      = "username"
	colFirstName     = "first_name"
	colLastName      = "last_name"
	colIsTeacher     = "is_teacher"
	colAttended      = "attended"
	colScheduledJoin = "scheduled_join"
	colActualJoin    = "actual_join"
	colCancelled     = "cancelled"
	colEnrolledAt    = "enrolled_at"
	colRating        = "rating"
	colFeedback      = "feedback"
)

var classColumns = []columnSpec{
	{name: colSessionID, aliases: []string{"session id", "session_id", "class id", "id"}, required: true},
	{name: colStart, aliases: []string{"start", "start time", "start_time", "scheduled start"}},
	{name: colEnd, aliases: []string{"end", "end time", "end_time", "scheduled end"}},
	{name: colActualDuration, aliases: []string{"actual duration", "actual_duration", "duration (min)", "duration"}},
	{name: colCompany, aliases: []string{"company", "company id", "company_id"}},
	{name: colDescription, aliases: []string{"description"}},
	{name: colSeatCapacity, aliases: []string{"seat capacity", "seat_capacity", "seats", "capacity"}},
	{name: colSubject, aliases: []string{"subject"}},
	{name: colLevel, aliases: []string{"level"}},
	{name: colTeacherSummary, aliases: []string{"teacher", "teacher summary", "teacher_summary"}},
	{name: colCourseID, aliases: []string{"course id", "course_id", "course"}},
	{name: colCancelledBy, aliases: []string{"cancelled by", "cancelled_by", "canceled by", "cancellation actor"}},
	{name: colCancelledAt, aliases: []string{"cancelled at", "cancelled_at", "canceled at", "cancellation time"}},
}

var participantColumns = []columnSpec{
	{name: colSessionID, aliases: []string{"session id", "session_id", "class id"}, required: true},
	{name: colUsername, aliases: []string{"username", "user name", "user"}, required: true},
	{name: colFirstName, aliases: []string{"first name", "first_name", "firstname"}},
	{name: colLastName, aliases: []string{"last name", "last_name", "lastname"}},
	{name: colIsTeacher, aliases: []string{"is teacher", "is_teacher", "teacher", "teacher marker"}},
	{name: colAttended, aliases: []string{"attended", "attendance"}},
	{name: colScheduledJoin, aliases: []string{"scheduled join", "scheduled_join", "scheduled join time"}},
	{name: colActualJoin, aliases: []string{"actual join", "actual_join", "joined at", "join time"}},
	{name: colCancelled, aliases: []string{"cancelled", "canceled"}},
	{name: colCancelledBy, aliases: []string{"cancelled by", "cancelled_by", "canceled by", "cancellation actor"}},
	{name: colCancelledAt, aliases: []string{"cancelled at", "cancelled_at", "canceled at", "cancellation time"}},
	{name: colEnrolledAt, aliases: []string{"enrolled at", "enrolled_at", "enrollment time", "enrolment time"}},
	{name: colRating, aliases: []string{"rating", "score"}},
	{name: colFeedback, aliases: []string{"feedback", "comment", "comments"}},
}

// mapHeader resolves column positions from a header row. An error names the
// first required column that could not be found.
func mapHeader(header []string, specs []columnSpec) (map[string]int, error) {
	columnMap := make(map[string]int)

	for i, raw := range header {
		h := strings.ToLower(strings.TrimSpace(raw))
		if h == "" {
			continue
		}
		for _, spec := range specs {
			if _, taken := columnMap[spec.name]; taken {
				continue
			}
			for _, alias := range spec.aliases {
				if h == alias {
					columnMap[spec.name] = i
					break
				}
			}
		}
	}

	for _, spec := range specs {
		if spec.required {
			if _, ok := columnMap[spec.name]; !ok {
				return nil, fmt.Errorf("required column not found: %s", spec.name)
			}
		}
	}

	return columnMap, nil
}

// findHeader scans the leading rows for one that satisfies the schema.
// Excel extracts in particular may carry title rows above the real header.
func findHeader(rows [][]string, specs []columnSpec) (int, map[string]int, error) {
	limit := len(rows)
	if limit > 10 {
		limit = 10
	}
	var lastErr error
	for i := 0; i < limit; i++ {
		columnMap, err := mapHeader(rows[i], specs)
		if err == nil {
			return i, columnMap, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("empty extract")
	}
	return 0, nil, fmt.Errorf("locate header row: %w", lastErr)
}

func cell(row []string, columnMap map[string]int, name string) string {
	idx, ok := columnMap[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func cellBool(row []string, columnMap map[string]int, name string) bool {
	switch strings.ToLower(cell(row, columnMap, name)) {
	case "true", "1", "yes", "y":
		return true
	default:
		return false
	}
}

func cellInt(row []string, columnMap map[string]int, name string) int {
	v, _ := strconv.Atoi(cell(row, columnMap, name))
	return v
}

func cellFloat(row []string, columnMap map[string]int, name string) float64 {
	v, _ := strconv.ParseFloat(strings.ReplaceAll(cell(row, columnMap, name), ",", ""), 64)
	return v
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
