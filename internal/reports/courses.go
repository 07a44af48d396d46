package reports

import (
	"fmt"
	"strings"

	"lessonpulse/internal/lesson"
)

// CourseNone is the sentinel group for sessions lacking a course id
const CourseNone = "(no course)"

// ErrCourseNotFound reports an unknown course id
type ErrCourseNotFound struct {
	CourseID string
}

func (e *ErrCourseNotFound) Error() string {
	return fmt.Sprintf("course not found: %s", e.CourseID)
}

// courseGroup holds one course's sessions in first-seen order
type courseGroup struct {
	id       string
	sessions []*lesson.Session
}

func groupByCourse(snap *lesson.Snapshot) ([]*courseGroup, map[string]*courseGroup) {
	groups := make(map[string]*courseGroup)
	var order []*courseGroup

	for _, sess := range snap.Ordered() {
		id := sess.CourseID
		if id == "" {
			id = CourseNone
		}
		g, ok := groups[id]
		if !ok {
			g = &courseGroup{id: id}
			groups[id] = g
			order = append(order, g)
		}
		g.sessions = append(g.sessions, sess)
	}

	return order, groups
}

// courseSummary carries the aggregate metrics shared by the overview row and
// the single-course detail header
type courseSummary struct {
	id               string
	level            string
	subject          string
	description      string
	teachers         []string
	firstStart       string
	lastStart        string
	sessionCount     int
	seatCapacity     int
	studentsEnrolled int
	attendanceRate   string
}

func summarizeCourse(g *courseGroup) courseSummary {
	chrono := sortedSessions(g.sessions)
	earliest := chrono[0]

	summary := courseSummary{
		id:           g.id,
		level:        earliest.Level,
		subject:      earliest.Subject,
		description:  earliest.Description,
		firstStart:   formatTime(chrono[0].ScheduledStart),
		lastStart:    formatTime(chrono[len(chrono)-1].ScheduledStart),
		sessionCount: len(chrono),
		seatCapacity: earliest.SeatCapacity,
	}

	teacherSeen := make(map[string]struct{})
	studentSeen := make(map[string]struct{})
	participations := 0
	attended := 0

	for _, sess := range chrono {
		if sess.Teacher != nil && sess.Teacher.Username != "" {
			if _, ok := teacherSeen[sess.Teacher.Username]; !ok {
				teacherSeen[sess.Teacher.Username] = struct{}{}
				summary.teachers = append(summary.teachers, sess.Teacher.Username)
			}
		}
		for _, st := range sess.Students {
			if st.Username == "" {
				continue
			}
			studentSeen[st.Username] = struct{}{}
			participations++
			if st.Attended {
				attended++
			}
		}
	}

	summary.studentsEnrolled = len(studentSeen)
	summary.attendanceRate = percentRounded(attended, participations)

	return summary
}

var courseSummaryHeaders = []string{
	"Course", "Level", "Subject", "Description", "Teachers",
	"First Session", "Last Session", "Sessions", "Seat Capacity",
	"Students Enrolled", "Attendance Rate (%)",
}

func (cs courseSummary) row() []string {
	return []string{
		cs.id, cs.level, cs.subject, cs.description, strings.Join(cs.teachers, ", "),
		cs.firstStart, cs.lastStart, formatInt(cs.sessionCount),
		formatInt(cs.seatCapacity), formatInt(cs.studentsEnrolled),
		cs.attendanceRate,
	}
}

// BuildCourseOverview computes the cross-course overview, one row per course
// in first-seen order
func BuildCourseOverview(snap *lesson.Snapshot) *Table {
	order, _ := groupByCourse(snap)

	table := &Table{Name: "course-overview", Headers: courseSummaryHeaders}
	for _, g := range order {
		table.Rows = append(table.Rows, summarizeCourse(g).row())
	}
	return table
}

// CourseDetail is the single-course report: a one-row summary plus the
// session-by-student attendance matrix
type CourseDetail struct {
	Summary *Table `json:"summary"`
	Matrix  *Table `json:"matrix"`
}

// BuildCourseDetail computes the detail report for one course. Matrix rows
// are chronologically ordered sessions; columns are the distinct students
// appearing anywhere in the course, in first-seen order.
func BuildCourseDetail(snap *lesson.Snapshot, courseID string) (*CourseDetail, error) {
	_, groups := groupByCourse(snap)
	g, ok := groups[courseKey(courseID)]
	if !ok {
		return nil, &ErrCourseNotFound{CourseID: courseID}
	}

	summary := &Table{Name: "course-detail-summary", Headers: courseSummaryHeaders}
	summary.Rows = append(summary.Rows, summarizeCourse(g).row())

	chrono := sortedSessions(g.sessions)
	students := distinctStudents(chrono)

	matrix := &Table{Name: "course-detail-matrix"}
	matrix.Headers = append([]string{"Session Start", "Status"}, students...)

	for _, sess := range chrono {
		status := "completed"
		if sess.IsCancelled() {
			status = "cancelled"
		}
		row := []string{formatTime(sess.ScheduledStart), status}

		byName := make(map[string]*lesson.Participant, len(sess.Students))
		for _, st := range sess.Students {
			if _, seen := byName[st.Username]; !seen {
				byName[st.Username] = st
			}
		}

		for _, name := range students {
			st, ok := byName[name]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, participationCell(st))
		}

		matrix.Rows = append(matrix.Rows, row)
	}

	return &CourseDetail{Summary: summary, Matrix: matrix}, nil
}

// BuildCourseStudents computes the per-course student summary
func BuildCourseStudents(snap *lesson.Snapshot, courseID string) (*Table, error) {
	_, groups := groupByCourse(snap)
	g, ok := groups[courseKey(courseID)]
	if !ok {
		return nil, &ErrCourseNotFound{CourseID: courseID}
	}

	type studentCounts struct {
		enrolled  int
		attended  int
		noShow    int
		cancelled int
	}

	counts := make(map[string]*studentCounts)
	chrono := sortedSessions(g.sessions)
	students := distinctStudents(chrono)

	for _, sess := range chrono {
		for _, st := range sess.Students {
			if st.Username == "" {
				continue
			}
			c, ok := counts[st.Username]
			if !ok {
				c = &studentCounts{}
				counts[st.Username] = c
			}
			c.enrolled++
			switch {
			case st.Cancelled:
				c.cancelled++
			case st.Attended:
				c.attended++
			default:
				c.noShow++
			}
		}
	}

	table := &Table{
		Name:    "course-students",
		Headers: []string{"Student", "Enrolled", "Attended", "No Shows", "Cancelled", "Attendance Rate (%)"},
	}

	for _, name := range students {
		c := counts[name]
		table.AddRow(
			name,
			formatInt(c.enrolled),
			formatInt(c.attended),
			formatInt(c.noShow),
			formatInt(c.cancelled),
			percentRounded(c.attended, c.enrolled),
		)
	}

	return table, nil
}

func courseKey(courseID string) string {
	if courseID == "" {
		return CourseNone
	}
	return courseID
}

// distinctStudents returns usernames in first appearance order across the
// chronologically sorted sessions
func distinctStudents(sessions []*lesson.Session) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, sess := range sessions {
		for _, st := range sess.Students {
			if st.Username == "" {
				continue
			}
			if _, ok := seen[st.Username]; ok {
				continue
			}
			seen[st.Username] = struct{}{}
			out = append(out, st.Username)
		}
	}
	return out
}

// participationCell maps a participation to its matrix cell value
func participationCell(st *lesson.Participant) string {
	switch {
	case st.Cancelled:
		return "cancelled"
	case st.Attended:
		return "attended"
	default:
		return "no show"
	}
}
