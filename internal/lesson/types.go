package lesson

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ClassType distinguishes private and group sessions
type ClassType int

const (
	// ClassPrivate represents one-on-one sessions (seat capacity exactly 1)
	ClassPrivate ClassType = iota
	// ClassGroup represents every other session, including capacity 0 or unset
	ClassGroup
)

// String returns the string representation of the class type
func (ct ClassType) String() string {
	switch ct {
	case ClassPrivate:
		return "private"
	case ClassGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Constants for tardiness clamping
const (
	// TardinessFloorSeconds is the lower clamp bound for join-time differences
	TardinessFloorSeconds = -3600
)

// ClassRow is one raw row of the class extract. Timestamps stay raw strings;
// parsing and the degrade-to-zero rules happen during normalization.
type ClassRow struct {
	SessionID             string
	CourseID              string
	Company               string
	Description           string
	Subject               string
	Level                 string
	TeacherSummary        string
	SeatCapacity          int
	Start                 string
	End                   string
	ActualDurationMinutes float64
	CancelledBy           string
	CancelledAt           string
}

// ParticipantRow is one raw row of the participant extract
type ParticipantRow struct {
	SessionID     string
	Username      string
	FirstName     string
	LastName      string
	IsTeacher     bool
	Attended      bool
	ScheduledJoin string
	ActualJoin    string
	Cancelled     bool
	CancelledBy   string
	CancelledAt   string
	EnrolledAt    string
	Rating        string
	Feedback      string
}

// Participant is a teacher's or student's per-session record
type Participant struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsTeacher bool   `json:"is_teacher"`
	Attended  bool   `json:"attended"`

	Cancelled               bool      `json:"cancelled"`
	CancelledBy             string    `json:"cancelled_by"`
	CancelledAt             time.Time `json:"cancelled_at"`
	CancelledIntervalHours  *float64  `json:"cancelled_interval_hours"`

	// TardinessSeconds is the clamped difference between scheduled and
	// actual join time. Nil when the participant never joined.
	TardinessSeconds *float64 `json:"tardiness_seconds"`

	// Student-only fields
	EnrolledAt             time.Time `json:"enrolled_at"`
	EnrolmentIntervalHours *float64  `json:"enrolment_interval_hours"`
	Rating                 string    `json:"rating"`
	Feedback               string    `json:"feedback"`
}

// RatingValue parses the free-text rating field
func (p *Participant) RatingValue() (float64, bool) {
	r := strings.TrimSpace(p.Rating)
	if r == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(r, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// HasFeedback reports whether the participant submitted feedback text or a
// parseable rating
func (p *Participant) HasFeedback() bool {
	if strings.TrimSpace(p.Feedback) != "" {
		return true
	}
	_, ok := p.RatingValue()
	return ok
}

// TardinessMinutes returns the tardiness in minutes when one was recorded
func (p *Participant) TardinessMinutes() (float64, bool) {
	if p.TardinessSeconds == nil {
		return 0, false
	}
	return *p.TardinessSeconds / 60, true
}

// Session is one scheduled lesson instance
type Session struct {
	ID                       string    `json:"id"`
	ScheduledStart           time.Time `json:"scheduled_start"`
	ScheduledDurationSeconds float64   `json:"scheduled_duration_seconds"`
	ActualDurationMinutes    float64   `json:"actual_duration_minutes"`
	Company                  string    `json:"company"`
	CourseID                 string    `json:"course_id"`
	SeatCapacity             int       `json:"seat_capacity"`
	Subject                  string    `json:"subject"`
	Level                    string    `json:"level"`
	Description              string    `json:"description"`
	TeacherSummary           string    `json:"teacher_summary"`

	// CancelledBy holds the raw cancellation actor; empty means not cancelled
	CancelledBy            string    `json:"cancelled_by"`
	CancelledAt            time.Time `json:"cancelled_at"`
	CancelledByStudent     bool      `json:"cancelled_by_student"`
	CancelledByTeacher     bool      `json:"cancelled_by_teacher"`
	CancelledByAdmin       bool      `json:"cancelled_by_admin"`
	CancelledIntervalHours *float64  `json:"cancelled_interval_hours"`

	Teacher  *Participant   `json:"teacher"`
	Students []*Participant `json:"students"`
}

// IsPrivate reports whether the session is a private lesson.
// Strict equality: capacity 0 or unset classifies as group.
func (s *Session) IsPrivate() bool {
	return s.SeatCapacity == 1
}

// Type returns the session's class type
func (s *Session) Type() ClassType {
	if s.IsPrivate() {
		return ClassPrivate
	}
	return ClassGroup
}

// IsCancelled reports whether the session carries a cancellation actor
func (s *Session) IsCancelled() bool {
	return s.CancelledBy != ""
}

// DurationMinutes returns the scheduled duration rounded to whole minutes,
// the bucketing key shared by several reports
func (s *Session) DurationMinutes() int {
	return int(math.Round(s.ScheduledDurationSeconds / 60))
}

// TeacherAttended reports teacher attendance, false when no teacher was found
func (s *Session) TeacherAttended() bool {
	return s.Teacher != nil && s.Teacher.Attended
}

// AllStudentsAbsent reports whether the session has students and every one
// of them was marked absent
func (s *Session) AllStudentsAbsent() bool {
	if len(s.Students) == 0 {
		return false
	}
	for _, st := range s.Students {
		if st.Attended {
			return false
		}
	}
	return true
}

// Snapshot is the immutable normalized model built from one pair of extracts.
// Order preserves first-seen session ids for deterministic enumeration.
type Snapshot struct {
	Sessions map[string]*Session `json:"sessions"`
	Order    []string            `json:"order"`
}

// Len returns the number of sessions in the snapshot
func (sn *Snapshot) Len() int {
	return len(sn.Sessions)
}

// Ordered returns the sessions in first-seen order
func (sn *Snapshot) Ordered() []*Session {
	out := make([]*Session, 0, len(sn.Order))
	for _, id := range sn.Order {
		if s, ok := sn.Sessions[id]; ok {
			out = append(out, s)
		}
	}
	return out
}
