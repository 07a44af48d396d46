package reports

import (
	"log/slog"
	"sort"

	"lessonpulse/internal/lesson"
)

// durationBucketKey buckets sessions by rounded duration and class type
type durationBucketKey struct {
	DurationMinutes int
	Class           lesson.ClassType
}

// compensationBucket accumulates the per-bucket counters
type compensationBucket struct {
	Attended      int
	Late          int
	NoShow        int
	Cancelled     int
	StudentNoShow int
}

// netCount applies the pay-adjustment arithmetic:
// attended - late (when penalised) + cancellation credit - discounted
// student no-shows, rounded to exactly two decimals. The counters are only
// accumulated when their policy switch is on, so the sum is unconditional.
func (b *compensationBucket) netCount(s CompensationSettings) float64 {
	factor := 1.0
	if s.PayStudentNoShow {
		factor = 1 - s.StudentNoShowRatePercent/100
	}
	net := float64(b.Attended) - float64(b.Late) + float64(b.Cancelled) - float64(b.StudentNoShow)*factor
	return round2(net)
}

// BuildCompensation computes the per-teacher, duration-bucketed pay report.
// Sessions without a teacher are excluded. The class type filter removes
// bucket columns entirely rather than hiding them.
func BuildCompensation(snap *lesson.Snapshot, settings CompensationSettings) (*Table, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	type teacherBuckets struct {
		name    string
		buckets map[durationBucketKey]*compensationBucket
	}

	byTeacher := make(map[string]*teacherBuckets)
	var teacherOrder []string
	keySet := make(map[durationBucketKey]struct{})

	for _, sess := range snap.Ordered() {
		if sess.Teacher == nil || sess.Teacher.Username == "" {
			continue
		}
		class := sess.Type()
		if !classIncluded(class, settings.ClassTypeFilter) {
			continue
		}

		name := sess.Teacher.Username
		tb, ok := byTeacher[name]
		if !ok {
			tb = &teacherBuckets{name: name, buckets: make(map[durationBucketKey]*compensationBucket)}
			byTeacher[name] = tb
			teacherOrder = append(teacherOrder, name)
		}

		key := durationBucketKey{DurationMinutes: sess.DurationMinutes(), Class: class}
		keySet[key] = struct{}{}
		bucket, ok := tb.buckets[key]
		if !ok {
			bucket = &compensationBucket{}
			tb.buckets[key] = bucket
		}

		accumulateCompensation(bucket, sess, settings)
	}

	keys := sortedCompensationKeys(keySet)

	table := &Table{Name: "compensation"}
	table.Headers = compensationHeaders(keys, settings)

	for _, name := range teacherOrder {
		tb := byTeacher[name]
		row := []string{name}

		totals := make(map[lesson.ClassType]*compensationTotals)

		for _, key := range keys {
			bucket, ok := tb.buckets[key]
			if !ok {
				row = append(row, blankCompensationCells(settings)...)
				continue
			}

			net := bucket.netCount(settings)

			t, ok := totals[key.Class]
			if !ok {
				t = &compensationTotals{}
				totals[key.Class] = t
			}
			t.count += net
			t.minutes += net * float64(key.DurationMinutes)

			if settings.Detailed {
				row = append(row,
					formatInt(bucket.Attended),
					formatInt(bucket.Late),
					formatInt(bucket.NoShow),
					formatInt(bucket.Cancelled),
					formatInt(bucket.StudentNoShow),
					formatFixed2(net),
				)
			} else {
				row = append(row, formatFixed2(net))
			}
		}

		for _, class := range includedClasses(settings.ClassTypeFilter) {
			t, ok := totals[class]
			if !ok {
				row = append(row, "", "")
				continue
			}
			row = append(row, formatFixed2(round2(t.count)), formatFixed2(round2(t.minutes)))
		}

		table.Rows = append(table.Rows, row)
	}

	slog.Default().Info("built compensation report",
		slog.Int("teachers", len(teacherOrder)),
		slog.Int("buckets", len(keys)),
	)

	return table, nil
}

type compensationTotals struct {
	count   float64
	minutes float64
}

func accumulateCompensation(bucket *compensationBucket, sess *lesson.Session, settings CompensationSettings) {
	if sess.Teacher.Attended {
		bucket.Attended++
	} else {
		bucket.NoShow++
	}

	if settings.PenaliseTardiness {
		if minutes, ok := sess.Teacher.TardinessMinutes(); ok && minutes > settings.TardinessLimitMinutes {
			bucket.Late++
		}
	}

	// Last-minute cancellation credit, private sessions only: the first
	// student whose own cancellation was not the teacher's doing and fell
	// inside the window earns the credit. First match in extract order
	// wins; do not double count.
	if settings.PayLastMinuteCancellation && sess.IsPrivate() {
		for _, st := range sess.Students {
			if !st.Cancelled {
				continue
			}
			if sess.Teacher.Username != "" && st.CancelledBy == sess.Teacher.Username {
				continue
			}
			if st.CancelledIntervalHours == nil || *st.CancelledIntervalHours >= settings.CancellationWindowHours {
				continue
			}
			bucket.Cancelled++
			break
		}
	}

	if sess.Teacher.Attended && !sess.IsCancelled() && sess.AllStudentsAbsent() {
		bucket.StudentNoShow++
	}
}

func classIncluded(class lesson.ClassType, filter ClassTypeFilter) bool {
	switch filter {
	case FilterPrivate:
		return class == lesson.ClassPrivate
	case FilterGroup:
		return class == lesson.ClassGroup
	default:
		return true
	}
}

func includedClasses(filter ClassTypeFilter) []lesson.ClassType {
	switch filter {
	case FilterPrivate:
		return []lesson.ClassType{lesson.ClassPrivate}
	case FilterGroup:
		return []lesson.ClassType{lesson.ClassGroup}
	default:
		return []lesson.ClassType{lesson.ClassPrivate, lesson.ClassGroup}
	}
}

// sortedCompensationKeys orders bucket columns: private before group,
// durations ascending within each type
func sortedCompensationKeys(keySet map[durationBucketKey]struct{}) []durationBucketKey {
	keys := make([]durationBucketKey, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Class != keys[j].Class {
			return keys[i].Class < keys[j].Class
		}
		return keys[i].DurationMinutes < keys[j].DurationMinutes
	})
	return keys
}

func compensationHeaders(keys []durationBucketKey, settings CompensationSettings) []string {
	headers := []string{"Teacher"}
	for _, key := range keys {
		label := bucketLabel(key.DurationMinutes, key.Class)
		if settings.Detailed {
			headers = append(headers,
				label+" attended",
				label+" late",
				label+" no show",
				label+" cancelled",
				label+" student no show",
				label+" net",
			)
		} else {
			headers = append(headers, label)
		}
	}
	for _, class := range includedClasses(settings.ClassTypeFilter) {
		headers = append(headers, "total "+class.String()+" count", "total "+class.String()+" minutes")
	}
	return headers
}

func blankCompensationCells(settings CompensationSettings) []string {
	if settings.Detailed {
		return []string{"", "", "", "", "", ""}
	}
	return []string{""}
}
