package reports

import (
	"sort"
	"time"

	"lessonpulse/internal/lesson"
)

// overviewBucket tallies session outcomes for one (class type, duration) pair
type overviewBucket struct {
	total                int
	completed            int
	cancelled            int
	cancelledByStudent   int
	cancelledByTeacher   int
	cancelledByAdmin     int
	studentCancelledLate int
	teacherNoShow        int
	studentNoShow        int
	bothNoShow           int
}

// BuildOverviewBuckets partitions sessions by class type and rounded duration
// and tallies their outcomes. Buckets are emitted private before group,
// durations ascending.
func BuildOverviewBuckets(snap *lesson.Snapshot, settings OverviewSettings) (*Table, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	buckets := make(map[durationBucketKey]*overviewBucket)

	for _, sess := range snap.Ordered() {
		key := durationBucketKey{DurationMinutes: sess.DurationMinutes(), Class: sess.Type()}
		b, ok := buckets[key]
		if !ok {
			b = &overviewBucket{}
			buckets[key] = b
		}

		b.total++
		cancelled := sess.IsCancelled()

		if sess.TeacherAttended() && !cancelled {
			b.completed++
		}
		if cancelled {
			b.cancelled++
			switch {
			case sess.CancelledByStudent:
				b.cancelledByStudent++
				if sess.CancelledIntervalHours != nil && *sess.CancelledIntervalHours < settings.CancellationWindowHours {
					b.studentCancelledLate++
				}
			case sess.CancelledByTeacher:
				b.cancelledByTeacher++
			case sess.CancelledByAdmin:
				b.cancelledByAdmin++
			}
		}
		if !sess.TeacherAttended() && !cancelled {
			b.teacherNoShow++
		}

		allAbsent := sess.AllStudentsAbsent()
		if sess.IsPrivate() {
			if sess.TeacherAttended() && allAbsent {
				b.studentNoShow++
			}
		} else if allAbsent {
			b.studentNoShow++
		}

		if !sess.TeacherAttended() && !cancelled && allAbsent {
			b.bothNoShow++
		}
	}

	keys := make([]durationBucketKey, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Class != keys[j].Class {
			return keys[i].Class < keys[j].Class
		}
		return keys[i].DurationMinutes < keys[j].DurationMinutes
	})

	table := &Table{
		Name: "overview-buckets",
		Headers: []string{
			"Class Type", "Duration (min)", "Total", "Completed", "Cancelled",
			"Cancelled by Student", "Cancelled by Teacher", "Cancelled by Admin",
			"Student Cancelled Late", "Teacher No Show", "Student No Show",
			"Both No Show",
		},
	}

	for _, key := range keys {
		b := buckets[key]
		table.AddRow(
			key.Class.String(),
			formatInt(key.DurationMinutes),
			formatInt(b.total),
			formatInt(b.completed),
			formatInt(b.cancelled),
			formatInt(b.cancelledByStudent),
			formatInt(b.cancelledByTeacher),
			formatInt(b.cancelledByAdmin),
			formatInt(b.studentCancelledLate),
			formatInt(b.teacherNoShow),
			formatInt(b.studentNoShow),
			formatInt(b.bothNoShow),
		)
	}

	return table, nil
}

// entityAverages collects the per-entity metric values used by the averages
// comparison. Count metrics contribute their count; mean metrics contribute
// the entity's own mean, so the table reports a mean of means.
type entityAverages struct {
	sessions           int
	cancelledByStudent int
	cancelledByTeacher int
	cancelledByAdmin   int
	noShows            int

	cancellationIntervals []float64
	tardiness             []float64 // minutes
	enrolmentIntervals    []float64
	starts                []time.Time
}

// BuildOverviewAverages compares students against teachers over private
// sessions only. Each cell is the mean of the metric across all entities of
// that kind.
func BuildOverviewAverages(snap *lesson.Snapshot, settings OverviewSettings) (*Table, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	teachers := make(map[string]*entityAverages)
	students := make(map[string]*entityAverages)

	for _, sess := range snap.Ordered() {
		if !sess.IsPrivate() {
			continue
		}

		if sess.Teacher != nil && sess.Teacher.Username != "" {
			a := entityFor(teachers, sess.Teacher.Username)
			a.sessions++
			accumulateSessionAverages(a, sess)
			if !sess.TeacherAttended() && !sess.IsCancelled() {
				a.noShows++
			}
			if minutes, ok := sess.Teacher.TardinessMinutes(); ok {
				a.tardiness = append(a.tardiness, minutes)
			}
			if sess.IsCancelled() && sess.CancelledIntervalHours != nil {
				a.cancellationIntervals = append(a.cancellationIntervals, *sess.CancelledIntervalHours)
			}
		}

		for _, st := range sess.Students {
			if st.Username == "" {
				continue
			}
			a := entityFor(students, st.Username)
			a.sessions++
			accumulateSessionAverages(a, sess)
			if !st.Attended && !st.Cancelled {
				a.noShows++
			}
			if minutes, ok := st.TardinessMinutes(); ok {
				a.tardiness = append(a.tardiness, minutes)
			}
			if st.Cancelled && st.CancelledIntervalHours != nil {
				a.cancellationIntervals = append(a.cancellationIntervals, *st.CancelledIntervalHours)
			}
			if st.EnrolmentIntervalHours != nil {
				a.enrolmentIntervals = append(a.enrolmentIntervals, *st.EnrolmentIntervalHours)
			}
		}
	}

	table := &Table{
		Name:    "overview-averages",
		Headers: []string{"Metric", "Students", "Teachers"},
	}

	table.AddRow("Sessions", meanOfCounts(students, func(a *entityAverages) int { return a.sessions }), meanOfCounts(teachers, func(a *entityAverages) int { return a.sessions }))
	table.AddRow("Cancelled by Student", meanOfCounts(students, func(a *entityAverages) int { return a.cancelledByStudent }), meanOfCounts(teachers, func(a *entityAverages) int { return a.cancelledByStudent }))
	table.AddRow("Cancelled by Teacher", meanOfCounts(students, func(a *entityAverages) int { return a.cancelledByTeacher }), meanOfCounts(teachers, func(a *entityAverages) int { return a.cancelledByTeacher }))
	table.AddRow("Cancelled by Admin", meanOfCounts(students, func(a *entityAverages) int { return a.cancelledByAdmin }), meanOfCounts(teachers, func(a *entityAverages) int { return a.cancelledByAdmin }))
	table.AddRow("Avg Cancellation Interval (h)", meanOfMeans(students, func(a *entityAverages) []float64 { return a.cancellationIntervals }), meanOfMeans(teachers, func(a *entityAverages) []float64 { return a.cancellationIntervals }))
	table.AddRow("No Shows", meanOfCounts(students, func(a *entityAverages) int { return a.noShows }), meanOfCounts(teachers, func(a *entityAverages) int { return a.noShows }))
	table.AddRow("Avg Tardiness (min)", meanOfMeans(students, func(a *entityAverages) []float64 { return a.tardiness }), meanOfMeans(teachers, func(a *entityAverages) []float64 { return a.tardiness }))
	table.AddRow("Avg Enrolment Interval (h)", meanOfMeans(students, func(a *entityAverages) []float64 { return a.enrolmentIntervals }), meanOfMeans(teachers, func(a *entityAverages) []float64 { return a.enrolmentIntervals }))
	table.AddRow("Avg Gap Between Sessions (h)", meanOfGaps(students), meanOfGaps(teachers))

	return table, nil
}

func entityFor(m map[string]*entityAverages, name string) *entityAverages {
	a, ok := m[name]
	if !ok {
		a = &entityAverages{}
		m[name] = a
	}
	return a
}

func accumulateSessionAverages(a *entityAverages, sess *lesson.Session) {
	switch {
	case sess.CancelledByStudent:
		a.cancelledByStudent++
	case sess.CancelledByTeacher:
		a.cancelledByTeacher++
	case sess.CancelledByAdmin:
		a.cancelledByAdmin++
	}
	if !sess.ScheduledStart.IsZero() {
		a.starts = append(a.starts, sess.ScheduledStart)
	}
}

// meanOfCounts averages a count metric across all entities
func meanOfCounts(entities map[string]*entityAverages, metric func(*entityAverages) int) string {
	if len(entities) == 0 {
		return ""
	}
	sum := 0.0
	for _, a := range entities {
		sum += float64(metric(a))
	}
	return formatFixed2(sum / float64(len(entities)))
}

// meanOfMeans averages per-entity means; entities without values for the
// metric are excluded from the outer mean
func meanOfMeans(entities map[string]*entityAverages, metric func(*entityAverages) []float64) string {
	var perEntity []float64
	for _, a := range entities {
		if m, ok := mean(metric(a)); ok {
			perEntity = append(perEntity, m)
		}
	}
	return formatMean(perEntity)
}

func meanOfGaps(entities map[string]*entityAverages) string {
	var perEntity []float64
	for _, a := range entities {
		if g, ok := meanGapHours(a.starts); ok {
			perEntity = append(perEntity, g)
		}
	}
	return formatMean(perEntity)
}
