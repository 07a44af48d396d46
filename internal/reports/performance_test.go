package reports

import (
	"testing"
	"time"

	"lessonpulse/internal/lesson"
)

func TestPerformancePrivateCancellationBreakdown(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	sessions := []*lesson.Session{
		// completed, teacher attended
		privateSession("s1", start, &lesson.Participant{Username: "teacher1", Attended: true},
			&lesson.Participant{Username: "a", Attended: true}),
		// cancelled by student
		func() *lesson.Session {
			s := privateSession("s2", start, &lesson.Participant{Username: "teacher1"},
				&lesson.Participant{Username: "a"})
			s.CancelledBy = "a"
			s.CancelledByStudent = true
			return s
		}(),
		// cancelled by teacher
		func() *lesson.Session {
			s := privateSession("s3", start, &lesson.Participant{Username: "teacher1"},
				&lesson.Participant{Username: "a"})
			s.CancelledBy = "teacher1"
			s.CancelledByTeacher = true
			return s
		}(),
		// not cancelled, teacher absent
		privateSession("s4", start, &lesson.Participant{Username: "teacher1"},
			&lesson.Participant{Username: "a", Attended: true}),
	}

	table := BuildPerformancePrivate(snapshotOf(sessions...))

	if len(table.Rows) != 1 {
		t.Fatalf("expected one teacher row, got %d", len(table.Rows))
	}
	row := table.Rows[0]

	// Teacher, Booked, CxStudent, CxTeacher, CxAdmin, Remaining, TeacherNoShows
	want := []string{"teacher1", "4", "1", "1", "0", "2", "1"}
	for i, w := range want {
		if row[i] != w {
			t.Errorf("cell %d = %q, want %q", i, row[i], w)
		}
	}
}

func TestPerformancePrivateStudentNoShowSessions(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// Teacher attended, session not cancelled, every student absent.
	noShow := privateSession("s1", start,
		&lesson.Participant{Username: "teacher1", Attended: true},
		&lesson.Participant{Username: "a"})
	// Teacher absent too: does not count.
	teacherAbsent := privateSession("s2", start,
		&lesson.Participant{Username: "teacher1"},
		&lesson.Participant{Username: "a"})

	table := BuildPerformancePrivate(snapshotOf(noShow, teacherAbsent))
	row := table.Rows[0]

	if got := row[7]; got != "1" {
		t.Errorf("student no-show sessions = %q, want 1", got)
	}
}

func TestPerformanceGroupSkipsPrivateCapacity(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	private := privateSession("s1", start,
		&lesson.Participant{Username: "teacher1", Attended: true},
		&lesson.Participant{Username: "a", Attended: true})
	zeroCapacity := &lesson.Session{
		ID: "s2", ScheduledStart: start, ScheduledDurationSeconds: 3600, SeatCapacity: 0,
		Teacher:  &lesson.Participant{Username: "teacher1", Attended: true},
		Students: []*lesson.Participant{{Username: "a", Attended: true}},
	}
	group := &lesson.Session{
		ID: "s3", ScheduledStart: start, ScheduledDurationSeconds: 3600, SeatCapacity: 6,
		Teacher:  &lesson.Participant{Username: "teacher1", Attended: true},
		Students: []*lesson.Participant{{Username: "a", Attended: true}},
	}

	table := BuildPerformanceGroup(snapshotOf(private, zeroCapacity, group))

	if len(table.Rows) != 1 {
		t.Fatalf("expected one row, got %d", len(table.Rows))
	}
	if got := table.Rows[0][1]; got != "1" {
		t.Errorf("booked = %q, want 1 (capacity 0 and 1 excluded)", got)
	}
}

func TestPerformanceGroupNoShowInstances(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	sess := &lesson.Session{
		ID: "g1", ScheduledStart: start, ScheduledDurationSeconds: 3600, SeatCapacity: 8,
		Teacher: &lesson.Participant{Username: "teacher1", Attended: true},
		Students: []*lesson.Participant{
			{Username: "a"},                  // absent, counts
			{Username: "b"},                  // absent, counts
			{Username: "c", Attended: true},  // attended
			{Username: "d", Cancelled: true}, // cancelled, not a no-show
		},
	}

	table := BuildPerformanceGroup(snapshotOf(sess))
	row := table.Rows[0]

	if got := row[7]; got != "1" {
		t.Errorf("no-show sessions = %q, want 1", got)
	}
	if got := row[8]; got != "2" {
		t.Errorf("no-show instances = %q, want 2", got)
	}
}

func TestPerformanceAveragesAndFeedbackRate(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	s1 := privateSession("s1", start,
		&lesson.Participant{Username: "teacher1", Attended: true, TardinessSeconds: floatPtr(120)},
		&lesson.Participant{Username: "a", Attended: true, TardinessSeconds: floatPtr(60), Rating: "4", Feedback: "good"})
	s2 := privateSession("s2", start,
		&lesson.Participant{Username: "teacher1", Attended: true, TardinessSeconds: floatPtr(240)},
		&lesson.Participant{Username: "a", Attended: true, TardinessSeconds: floatPtr(180), Rating: "5"})

	table := BuildPerformancePrivate(snapshotOf(s1, s2))
	row := table.Rows[0]

	if got := row[8]; got != "3.00" {
		t.Errorf("avg teacher tardiness = %q, want 3.00", got)
	}
	if got := row[9]; got != "2.00" {
		t.Errorf("avg student tardiness = %q, want 2.00", got)
	}
	if got := row[10]; got != "4.50" {
		t.Errorf("avg rating = %q, want 4.50", got)
	}
	if got := row[11]; got != "100.00" {
		t.Errorf("feedback rate = %q, want 100.00", got)
	}
}

func TestPerformanceBlankAveragesWhenNoData(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	sess := privateSession("s1", start,
		&lesson.Participant{Username: "teacher1", Attended: true},
		&lesson.Participant{Username: "a"})

	table := BuildPerformancePrivate(snapshotOf(sess))
	row := table.Rows[0]

	for _, i := range []int{8, 9, 10} {
		if row[i] != "" {
			t.Errorf("cell %d = %q, want blank for absent data", i, row[i])
		}
	}
}

func TestBuildFeedbackListsOnlyFeedback(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	sess := privateSession("s1", start,
		&lesson.Participant{Username: "teacher1", Attended: true},
		&lesson.Participant{Username: "a", Attended: true, Feedback: "helpful", Rating: "5"},
		&lesson.Participant{Username: "b", Attended: true},
		&lesson.Participant{Username: "c", Attended: true, Rating: "3"},
	)

	table := BuildFeedback(snapshotOf(sess))

	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 feedback rows, got %d", len(table.Rows))
	}
	if table.Rows[0][1] != "a" || table.Rows[1][1] != "c" {
		t.Errorf("feedback students = %q, %q; want a, c", table.Rows[0][1], table.Rows[1][1])
	}
	if table.Rows[0][2] != "2026-03-02 09:00" {
		t.Errorf("session start cell = %q", table.Rows[0][2])
	}
}
