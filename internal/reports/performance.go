package reports

import (
	"lessonpulse/internal/lesson"
)

// performanceAccumulator collects one teacher's statistics for one class type
type performanceAccumulator struct {
	teacher string

	booked             int
	cancelledByStudent int
	cancelledByTeacher int
	cancelledByAdmin   int
	remaining          int
	teacherNoShows     int

	studentNoShowSessions  int
	studentNoShowInstances int

	teacherTardiness []float64 // minutes
	studentTardiness []float64 // minutes
	ratings          []float64
	feedbackCount    int
}

// BuildPerformancePrivate computes the per-teacher statistics over private
// sessions (seat capacity exactly 1)
func BuildPerformancePrivate(snap *lesson.Snapshot) *Table {
	accs, order := accumulatePerformance(snap, lesson.ClassPrivate)

	table := &Table{
		Name: "performance-private",
		Headers: []string{
			"Teacher", "Booked", "Cancelled by Student", "Cancelled by Teacher",
			"Cancelled by Admin", "Remaining", "Teacher No Shows",
			"Student No Show Sessions", "Avg Teacher Tardiness (min)",
			"Avg Student Tardiness (min)", "Avg Rating", "Feedback Rate (%)",
		},
	}

	for _, name := range order {
		a := accs[name]
		table.AddRow(
			a.teacher,
			formatInt(a.booked),
			formatInt(a.cancelledByStudent),
			formatInt(a.cancelledByTeacher),
			formatInt(a.cancelledByAdmin),
			formatInt(a.remaining),
			formatInt(a.teacherNoShows),
			formatInt(a.studentNoShowSessions),
			formatMean(a.teacherTardiness),
			formatMean(a.studentTardiness),
			formatMean(a.ratings),
			a.feedbackRate(),
		)
	}

	return table
}

// BuildPerformanceGroup computes the per-teacher statistics over group
// sessions (seat capacity above 1). The group table additionally carries the
// total count of no-show student instances across sessions.
func BuildPerformanceGroup(snap *lesson.Snapshot) *Table {
	accs, order := accumulatePerformance(snap, lesson.ClassGroup)

	table := &Table{
		Name: "performance-group",
		Headers: []string{
			"Teacher", "Booked", "Cancelled by Student", "Cancelled by Teacher",
			"Cancelled by Admin", "Remaining", "Teacher No Shows",
			"Student No Show Sessions", "Student No Show Instances",
			"Avg Teacher Tardiness (min)", "Avg Student Tardiness (min)",
			"Avg Rating", "Feedback Rate (%)",
		},
	}

	for _, name := range order {
		a := accs[name]
		table.AddRow(
			a.teacher,
			formatInt(a.booked),
			formatInt(a.cancelledByStudent),
			formatInt(a.cancelledByTeacher),
			formatInt(a.cancelledByAdmin),
			formatInt(a.remaining),
			formatInt(a.teacherNoShows),
			formatInt(a.studentNoShowSessions),
			formatInt(a.studentNoShowInstances),
			formatMean(a.teacherTardiness),
			formatMean(a.studentTardiness),
			formatMean(a.ratings),
			a.feedbackRate(),
		)
	}

	return table
}

func accumulatePerformance(snap *lesson.Snapshot, class lesson.ClassType) (map[string]*performanceAccumulator, []string) {
	accs := make(map[string]*performanceAccumulator)
	var order []string

	for _, sess := range snap.Ordered() {
		if sess.Type() != class {
			continue
		}
		// Group aggregation covers capacity above 1 only; capacity 0 or
		// unset sessions classify as group for bucketing but carry no
		// teacher statistics weight here when capacity is below 2.
		if class == lesson.ClassGroup && sess.SeatCapacity <= 1 {
			continue
		}
		if sess.Teacher == nil || sess.Teacher.Username == "" {
			continue
		}

		name := sess.Teacher.Username
		a, ok := accs[name]
		if !ok {
			a = &performanceAccumulator{teacher: name}
			accs[name] = a
			order = append(order, name)
		}

		a.booked++

		switch {
		case sess.CancelledByStudent:
			a.cancelledByStudent++
		case sess.CancelledByTeacher:
			a.cancelledByTeacher++
		case sess.CancelledByAdmin:
			a.cancelledByAdmin++
		default:
			a.remaining++
			if !sess.Teacher.Attended {
				a.teacherNoShows++
			}
		}

		if class == lesson.ClassPrivate {
			if sess.Teacher.Attended && !sess.IsCancelled() && sess.AllStudentsAbsent() {
				a.studentNoShowSessions++
			}
		} else {
			anyAbsent := false
			for _, st := range sess.Students {
				if !st.Attended && !st.Cancelled {
					anyAbsent = true
					a.studentNoShowInstances++
				}
			}
			if anyAbsent {
				a.studentNoShowSessions++
			}
		}

		if minutes, ok := sess.Teacher.TardinessMinutes(); ok {
			a.teacherTardiness = append(a.teacherTardiness, minutes)
		}

		for _, st := range sess.Students {
			if minutes, ok := st.TardinessMinutes(); ok {
				a.studentTardiness = append(a.studentTardiness, minutes)
			}
			if rating, ok := st.RatingValue(); ok {
				a.ratings = append(a.ratings, rating)
			}
			if st.HasFeedback() {
				a.feedbackCount++
			}
		}
	}

	return accs, order
}

// feedbackRate is the share of booked sessions that produced feedback,
// counting participations with feedback text or a parseable rating
func (a *performanceAccumulator) feedbackRate() string {
	if a.booked == 0 {
		return ""
	}
	return formatFixed2(float64(a.feedbackCount) / float64(a.booked) * 100)
}

// BuildFeedback lists one row per (session, student) pair that submitted
// feedback text or a rating, in snapshot and extract order
func BuildFeedback(snap *lesson.Snapshot) *Table {
	table := &Table{
		Name:    "feedback",
		Headers: []string{"Teacher", "Student", "Session Start", "Feedback", "Rating"},
	}

	for _, sess := range snap.Ordered() {
		teacher := ""
		if sess.Teacher != nil {
			teacher = sess.Teacher.Username
		}
		for _, st := range sess.Students {
			if !st.HasFeedback() {
				continue
			}
			table.AddRow(teacher, st.Username, formatTime(sess.ScheduledStart), st.Feedback, st.Rating)
		}
	}

	return table
}
