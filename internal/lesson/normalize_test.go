package lesson

import (
	"testing"
	"time"
)

func TestNormalizeSkipsBlankSessionID(t *testing.T) {
	classes := []ClassRow{
		{SessionID: "", Start: "2026-03-01 10:00:00", End: "2026-03-01 11:00:00"},
		{SessionID: "  ", Start: "2026-03-01 10:00:00", End: "2026-03-01 11:00:00"},
		{SessionID: "s1", Start: "2026-03-01 10:00:00", End: "2026-03-01 11:00:00"},
	}

	snap := Normalize(classes, nil)

	if snap.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", snap.Len())
	}
	if _, ok := snap.Sessions["s1"]; !ok {
		t.Error("expected session s1 to survive")
	}
}

func TestNormalizeDuplicateKeepsFirstSeenPosition(t *testing.T) {
	classes := []ClassRow{
		{SessionID: "s1", SeatCapacity: 1, Start: "2026-03-01 10:00:00", End: "2026-03-01 11:00:00"},
		{SessionID: "s2", SeatCapacity: 4, Start: "2026-03-02 10:00:00", End: "2026-03-02 11:00:00"},
		{SessionID: "s1", SeatCapacity: 8, Start: "2026-03-01 10:00:00", End: "2026-03-01 11:00:00"},
	}

	snap := Normalize(classes, nil)

	if snap.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", snap.Len())
	}
	ordered := snap.Ordered()
	if ordered[0].ID != "s1" || ordered[1].ID != "s2" {
		t.Errorf("expected first-seen order [s1 s2], got [%s %s]", ordered[0].ID, ordered[1].ID)
	}
	if got := snap.Sessions["s1"].SeatCapacity; got != 8 {
		t.Errorf("expected later row to win, seat capacity = %d", got)
	}
}

func TestNormalizeDurationDegradesToZero(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  float64
	}{
		{"both present", "2026-03-01 10:00:00", "2026-03-01 11:00:00", 3600},
		{"missing end", "2026-03-01 10:00:00", "", 0},
		{"missing start", "", "2026-03-01 11:00:00", 0},
		{"unparseable end", "2026-03-01 10:00:00", "not a time", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Normalize([]ClassRow{{SessionID: "s1", Start: tt.start, End: tt.end}}, nil)
			got := snap.Sessions["s1"].ScheduledDurationSeconds
			if got != tt.want {
				t.Errorf("duration = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeTardinessClamping(t *testing.T) {
	classes := []ClassRow{{SessionID: "s1", Start: "2026-03-01 10:00:00", End: "2026-03-01 11:00:00"}}

	tests := []struct {
		name       string
		scheduled  string
		actual     string
		want       float64
		wantAbsent bool
	}{
		{"on time", "2026-03-01 10:00:00", "2026-03-01 10:00:00", 0, false},
		{"five minutes late", "2026-03-01 10:00:00", "2026-03-01 10:05:00", 300, false},
		{"very early clamps to floor", "2026-03-01 10:00:00", "2026-03-01 08:00:00", -3600, false},
		{"very late clamps to duration", "2026-03-01 10:00:00", "2026-03-01 13:00:00", 3600, false},
		{"never joined", "2026-03-01 10:00:00", "", 0, true},
		{"missing scheduled falls back to session start", "", "2026-03-01 10:10:00", 600, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			participants := []ParticipantRow{{
				SessionID:     "s1",
				Username:      "student1",
				ScheduledJoin: tt.scheduled,
				ActualJoin:    tt.actual,
			}}
			snap := Normalize(classes, participants)
			st := snap.Sessions["s1"].Students[0]

			if tt.wantAbsent {
				if st.TardinessSeconds != nil {
					t.Fatalf("expected nil tardiness, got %v", *st.TardinessSeconds)
				}
				return
			}
			if st.TardinessSeconds == nil {
				t.Fatal("expected tardiness, got nil")
			}
			if *st.TardinessSeconds != tt.want {
				t.Errorf("tardiness = %v, want %v", *st.TardinessSeconds, tt.want)
			}
		})
	}
}

func TestAttributeCancellationExclusive(t *testing.T) {
	tests := []struct {
		name        string
		cancelledBy string
		wantTeacher bool
		wantStudent bool
		wantAdmin   bool
	}{
		{"teacher actor", "teacher1", true, false, false},
		{"student actor", "student1", false, true, false},
		{"unknown actor falls back to admin", "ops-desk", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classes := []ClassRow{{
				SessionID:   "s1",
				Start:       "2026-03-01 10:00:00",
				End:         "2026-03-01 11:00:00",
				CancelledBy: tt.cancelledBy,
				CancelledAt: "2026-02-28 10:00:00",
			}}
			participants := []ParticipantRow{
				{SessionID: "s1", Username: "teacher1", IsTeacher: true},
				{SessionID: "s1", Username: "student1"},
			}
			snap := Normalize(classes, participants)
			sess := snap.Sessions["s1"]

			if sess.CancelledByTeacher != tt.wantTeacher ||
				sess.CancelledByStudent != tt.wantStudent ||
				sess.CancelledByAdmin != tt.wantAdmin {
				t.Errorf("attribution = teacher:%v student:%v admin:%v, want teacher:%v student:%v admin:%v",
					sess.CancelledByTeacher, sess.CancelledByStudent, sess.CancelledByAdmin,
					tt.wantTeacher, tt.wantStudent, tt.wantAdmin)
			}

			flags := 0
			for _, f := range []bool{sess.CancelledByTeacher, sess.CancelledByStudent, sess.CancelledByAdmin} {
				if f {
					flags++
				}
			}
			if flags != 1 {
				t.Errorf("expected exactly one attribution flag, got %d", flags)
			}
		})
	}
}

func TestCancellationIntervalSign(t *testing.T) {
	classes := []ClassRow{{
		SessionID:   "s1",
		Start:       "2026-03-01 10:00:00",
		End:         "2026-03-01 11:00:00",
		CancelledBy: "admin",
		CancelledAt: "2026-02-28 10:00:00",
	}}

	snap := Normalize(classes, nil)
	sess := snap.Sessions["s1"]

	if sess.CancelledIntervalHours == nil {
		t.Fatal("expected a cancellation interval")
	}
	if got := *sess.CancelledIntervalHours; got != 24 {
		t.Errorf("interval = %v hours, want 24", got)
	}
}

func TestIntervalAbsentStaysNil(t *testing.T) {
	classes := []ClassRow{{SessionID: "s1", Start: "2026-03-01 10:00:00", End: "2026-03-01 11:00:00"}}
	participants := []ParticipantRow{
		{SessionID: "s1", Username: "student1", EnrolledAt: ""},
		{SessionID: "s1", Username: "student2", EnrolledAt: "2026-02-20 09:00:00"},
	}

	snap := Normalize(classes, participants)
	students := snap.Sessions["s1"].Students

	if students[0].EnrolmentIntervalHours != nil {
		t.Error("missing enrolment timestamp must yield a nil interval, not zero")
	}
	if students[1].EnrolmentIntervalHours == nil {
		t.Fatal("expected an enrolment interval")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	classes := []ClassRow{
		{SessionID: "s1", SeatCapacity: 1, Start: "2026-03-01 10:00:00", End: "2026-03-01 11:00:00"},
		{SessionID: "s2", SeatCapacity: 6, Start: "2026-03-02 10:00:00", End: "2026-03-02 11:30:00", CancelledBy: "teacher1", CancelledAt: "2026-03-01 09:00:00"},
	}
	participants := []ParticipantRow{
		{SessionID: "s1", Username: "teacher1", IsTeacher: true, Attended: true, ActualJoin: "2026-03-01 09:58:00", ScheduledJoin: "2026-03-01 10:00:00"},
		{SessionID: "s1", Username: "student1", Attended: true, ActualJoin: "2026-03-01 10:07:00", ScheduledJoin: "2026-03-01 10:00:00", Rating: "4.5", Feedback: "great"},
		{SessionID: "s2", Username: "teacher1", IsTeacher: true},
	}

	a := Normalize(classes, participants)
	b := Normalize(classes, participants)

	if a.Len() != b.Len() {
		t.Fatalf("session counts differ: %d vs %d", a.Len(), b.Len())
	}
	for i := range a.Order {
		if a.Order[i] != b.Order[i] {
			t.Fatalf("order differs at %d: %s vs %s", i, a.Order[i], b.Order[i])
		}
	}
	for id, sa := range a.Sessions {
		sb := b.Sessions[id]
		if sa.DurationMinutes() != sb.DurationMinutes() || sa.IsCancelled() != sb.IsCancelled() {
			t.Errorf("session %s differs between runs", id)
		}
	}
}

func TestSessionClassification(t *testing.T) {
	tests := []struct {
		capacity int
		want     ClassType
	}{
		{1, ClassPrivate},
		{0, ClassGroup},
		{2, ClassGroup},
		{12, ClassGroup},
	}

	for _, tt := range tests {
		s := &Session{SeatCapacity: tt.capacity}
		if got := s.Type(); got != tt.want {
			t.Errorf("capacity %d: type = %s, want %s", tt.capacity, got, tt.want)
		}
	}
}

func TestAllStudentsAbsentRequiresStudents(t *testing.T) {
	empty := &Session{}
	if empty.AllStudentsAbsent() {
		t.Error("session without students must not count as all-absent")
	}

	absent := &Session{Students: []*Participant{{Username: "a"}, {Username: "b"}}}
	if !absent.AllStudentsAbsent() {
		t.Error("expected all-absent")
	}

	mixed := &Session{Students: []*Participant{{Username: "a", Attended: true}, {Username: "b"}}}
	if mixed.AllStudentsAbsent() {
		t.Error("one attendee defeats all-absent")
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for _, raw := range []string{
		"2026-03-01T10:00:00Z",
		"2026-03-01 10:00:00",
		"2026-03-01 10:00",
		"01/03/2026 10:00",
	} {
		if got := parseTimestamp(raw); !got.Equal(want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", raw, got, want)
		}
	}

	if !parseTimestamp("garbage").IsZero() {
		t.Error("unparseable timestamp must yield the zero time")
	}
}
