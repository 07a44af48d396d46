package reports

import (
	"time"

	"lessonpulse/internal/lesson"
)

// studentAccumulator collects one student's cross-session statistics
type studentAccumulator struct {
	username string

	private int
	group   int

	attended  int
	noShow    int
	cancelled int

	lateCancellations int

	cancellationIntervals []float64
	enrolmentIntervals    []float64
	starts                []time.Time
}

func (a *studentAccumulator) total() int {
	return a.private + a.group
}

// BuildStudents computes the per-student cross-session statistics.
//
// Filtering per the settings: company mode excludes whole sessions whose
// company does not match; custom mode excludes individual participations
// whose username is not on the allowlist; all applies no filtering.
func BuildStudents(snap *lesson.Snapshot, settings StudentSettings) (*Table, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	accs := make(map[string]*studentAccumulator)
	var order []string

	for _, sess := range snap.Ordered() {
		if settings.FilterMode == FilterModeCompany &&
			settings.CompanyID != CompanyWildcard &&
			sess.Company != settings.CompanyID {
			continue
		}

		for _, st := range sess.Students {
			if st.Username == "" {
				continue
			}
			if settings.FilterMode == FilterModeCustom {
				if _, ok := settings.CustomAllowlist[st.Username]; !ok {
					continue
				}
			}

			a, ok := accs[st.Username]
			if !ok {
				a = &studentAccumulator{username: st.Username}
				accs[st.Username] = a
				order = append(order, st.Username)
			}

			if sess.IsPrivate() {
				a.private++
			} else {
				a.group++
			}

			switch {
			case st.Cancelled:
				a.cancelled++
			case st.Attended:
				a.attended++
			default:
				a.noShow++
			}

			if st.Cancelled && st.CancelledIntervalHours != nil {
				a.cancellationIntervals = append(a.cancellationIntervals, *st.CancelledIntervalHours)
				if *st.CancelledIntervalHours < settings.CancellationWindowHours {
					a.lateCancellations++
				}
			}

			if st.EnrolmentIntervalHours != nil {
				a.enrolmentIntervals = append(a.enrolmentIntervals, *st.EnrolmentIntervalHours)
			}

			if !sess.ScheduledStart.IsZero() {
				a.starts = append(a.starts, sess.ScheduledStart)
			}
		}
	}

	table := &Table{
		Name: "students",
		Headers: []string{
			"Student", "Private Sessions", "Group Sessions", "Total",
			"Attended", "No Shows", "Cancelled",
			"Attended Rate", "No Show Rate", "Cancelled Rate",
			"Late Cancellations", "Avg Cancellation Interval (h)",
			"Avg Enrolment Interval (h)", "Avg Gap Between Sessions (h)",
		},
	}

	for _, name := range order {
		a := accs[name]

		gap := ""
		if g, ok := meanGapHours(a.starts); ok {
			gap = formatFixed2(g)
		}

		table.AddRow(
			a.username,
			formatInt(a.private),
			formatInt(a.group),
			formatInt(a.total()),
			formatInt(a.attended),
			formatInt(a.noShow),
			formatInt(a.cancelled),
			fraction(a.attended, a.total()),
			fraction(a.noShow, a.total()),
			fraction(a.cancelled, a.total()),
			formatInt(a.lateCancellations),
			formatMean(a.cancellationIntervals),
			formatMean(a.enrolmentIntervals),
			gap,
		)
	}

	return table, nil
}
