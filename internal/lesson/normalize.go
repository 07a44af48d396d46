package lesson

import (
	"log/slog"
	"strings"
	"time"
)

// Normalize fuses the two raw extracts into a Snapshot.
//
// Class rows without a session id are skipped (not an error); a later row
// with a duplicate id overwrites the earlier session but keeps its first-seen
// position. Participant rows are partitioned by the teacher marker: the first
// marked row becomes the session's teacher, the rest become students in
// extract order.
func Normalize(classes []ClassRow, participants []ParticipantRow) *Snapshot {
	logger := slog.Default()

	// Group participant rows by session id, preserving extract order
	bySession := make(map[string][]ParticipantRow)
	for _, row := range participants {
		if row.SessionID == "" {
			continue
		}
		bySession[row.SessionID] = append(bySession[row.SessionID], row)
	}

	snap := &Snapshot{Sessions: make(map[string]*Session)}
	skipped := 0

	for _, row := range classes {
		if strings.TrimSpace(row.SessionID) == "" {
			skipped++
			continue
		}

		sess := buildSession(row, bySession[row.SessionID])

		if _, exists := snap.Sessions[sess.ID]; !exists {
			snap.Order = append(snap.Order, sess.ID)
		}
		snap.Sessions[sess.ID] = sess
	}

	logger.Info("normalized extracts",
		slog.Int("class_rows", len(classes)),
		slog.Int("participant_rows", len(participants)),
		slog.Int("sessions", snap.Len()),
		slog.Int("skipped_rows", skipped),
	)

	return snap
}

func buildSession(row ClassRow, participantRows []ParticipantRow) *Session {
	start := parseTimestamp(row.Start)
	end := parseTimestamp(row.End)

	// Missing endpoint degrades the difference to zero rather than failing
	var durationSeconds float64
	if !start.IsZero() && !end.IsZero() {
		durationSeconds = end.Sub(start).Seconds()
	}

	sess := &Session{
		ID:                       row.SessionID,
		ScheduledStart:           start,
		ScheduledDurationSeconds: durationSeconds,
		ActualDurationMinutes:    row.ActualDurationMinutes,
		Company:                  row.Company,
		CourseID:                 row.CourseID,
		SeatCapacity:             row.SeatCapacity,
		Subject:                  row.Subject,
		Level:                    row.Level,
		Description:              row.Description,
		TeacherSummary:           row.TeacherSummary,
		CancelledBy:              strings.TrimSpace(row.CancelledBy),
	}

	if sess.CancelledBy != "" {
		sess.CancelledAt = parseTimestamp(row.CancelledAt)
		sess.CancelledIntervalHours = intervalHours(start, sess.CancelledAt)
	}

	for _, pr := range participantRows {
		p := buildParticipant(pr, sess)
		if pr.IsTeacher {
			// At most one teacher per session; extra marked rows are dropped
			if sess.Teacher == nil {
				sess.Teacher = p
			}
			continue
		}
		sess.Students = append(sess.Students, p)
	}

	attributeCancellation(sess)

	return sess
}

func buildParticipant(row ParticipantRow, sess *Session) *Participant {
	p := &Participant{
		Username:    row.Username,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		IsTeacher:   row.IsTeacher,
		Attended:    row.Attended,
		Cancelled:   row.Cancelled,
		CancelledBy: strings.TrimSpace(row.CancelledBy),
		Rating:      row.Rating,
		Feedback:    row.Feedback,
	}

	p.TardinessSeconds = computeTardiness(row, sess)

	if p.CancelledBy != "" || row.Cancelled {
		p.CancelledAt = parseTimestamp(row.CancelledAt)
		p.CancelledIntervalHours = intervalHours(sess.ScheduledStart, p.CancelledAt)
	}

	if !row.IsTeacher {
		p.EnrolledAt = parseTimestamp(row.EnrolledAt)
		p.EnrolmentIntervalHours = intervalHours(sess.ScheduledStart, p.EnrolledAt)
	}

	return p
}

// computeTardiness clamps the join-time difference to
// [TardinessFloorSeconds, scheduledDuration]. A participant without an
// actual-join timestamp never joined and carries no tardiness; a missing
// scheduled-join timestamp falls back to the session's scheduled start.
func computeTardiness(row ParticipantRow, sess *Session) *float64 {
	actual := parseTimestamp(row.ActualJoin)
	if actual.IsZero() {
		return nil
	}

	baseline := parseTimestamp(row.ScheduledJoin)
	if baseline.IsZero() {
		baseline = sess.ScheduledStart
	}
	if baseline.IsZero() {
		return nil
	}

	diff := actual.Sub(baseline).Seconds()
	clamped := clamp(diff, TardinessFloorSeconds, sess.ScheduledDurationSeconds)
	return &clamped
}

// attributeCancellation derives the three mutually exclusive actor flags.
// Admin is the fallback when the actor matches neither the teacher's nor any
// student's username.
func attributeCancellation(sess *Session) {
	if sess.CancelledBy == "" {
		return
	}

	if sess.Teacher != nil && sess.Teacher.Username != "" && sess.CancelledBy == sess.Teacher.Username {
		sess.CancelledByTeacher = true
		return
	}

	for _, st := range sess.Students {
		if st.Username != "" && sess.CancelledBy == st.Username {
			sess.CancelledByStudent = true
			return
		}
	}

	sess.CancelledByAdmin = true
}

// intervalHours computes hours between an event and the scheduled start.
// Nil marks an absent interval; a zero value never stands in for missing data.
func intervalHours(start, event time.Time) *float64 {
	if start.IsZero() || event.IsZero() {
		return nil
	}
	h := start.Sub(event).Hours()
	return &h
}

// timestampFormats lists the layouts the extracts have been seen to use
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

// parseTimestamp attempts the known layouts, returning the zero time on
// failure so the degrade rules above can apply
func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
