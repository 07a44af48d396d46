// Package reports implements the aggregate report engines that turn a
// normalized lesson snapshot into tabular metrics. Every engine is a pure
// function of (snapshot, settings): the snapshot is never mutated and
// re-running an engine with the same inputs yields the same table.
package reports

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"lessonpulse/internal/lesson"
)

// Table is the header+rows structure every engine produces. It is the whole
// contract with the export and transport layers: column order and cell
// content, nothing about presentation.
type Table struct {
	Name    string     `json:"name"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// AddRow appends a data row
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// round2 rounds to exactly two decimal places
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatFixed2 renders a value with two decimals, the net-count format
func formatFixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatInt renders an integer cell
func formatInt(v int) string {
	return strconv.Itoa(v)
}

// formatMean renders the mean of the collected values, blank when none were
// collected. Absent values must stay blank, never a zero posing as data.
func formatMean(values []float64) string {
	m, ok := mean(values)
	if !ok {
		return ""
	}
	return formatFixed2(m)
}

// formatTime renders a session start for report cells
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

// mean averages the values, reporting false for an empty slice
func mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// percentRounded computes numerator/denominator as a whole percentage,
// blank when the denominator is zero
func percentRounded(numerator, denominator int) string {
	if denominator == 0 {
		return ""
	}
	return formatInt(int(math.Round(float64(numerator) / float64(denominator) * 100)))
}

// fraction computes numerator/denominator as a two-decimal fraction,
// blank when the denominator is zero
func fraction(numerator, denominator int) string {
	if denominator == 0 {
		return ""
	}
	return formatFixed2(float64(numerator) / float64(denominator))
}

// bucketLabel names a duration bucket column
func bucketLabel(durationMinutes int, class lesson.ClassType) string {
	return fmt.Sprintf("%dmin %s", durationMinutes, class)
}

// sortedSessions returns the sessions ordered chronologically by scheduled
// start, with the snapshot's first-seen order as the tie break
func sortedSessions(sessions []*lesson.Session) []*lesson.Session {
	out := make([]*lesson.Session, len(sessions))
	copy(out, sessions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledStart.Before(out[j].ScheduledStart)
	})
	return out
}

// meanGapHours averages the hours between consecutive starts, sorted
// chronologically, over n-1 gaps. Needs at least two timestamps.
func meanGapHours(starts []time.Time) (float64, bool) {
	if len(starts) < 2 {
		return 0, false
	}
	sorted := make([]time.Time, len(starts))
	copy(sorted, starts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	total := 0.0
	for i := 1; i < len(sorted); i++ {
		total += sorted[i].Sub(sorted[i-1]).Hours()
	}
	return total / float64(len(sorted)-1), true
}
