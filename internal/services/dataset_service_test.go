package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lessonpulse/internal/lesson"
)

func extractFixture() ([]lesson.ClassRow, []lesson.ParticipantRow) {
	classes := []lesson.ClassRow{
		{SessionID: "s1", CourseID: "c1", SeatCapacity: 1, Start: "2026-03-01 10:00:00", End: "2026-03-01 11:00:00"},
		{SessionID: "s2", CourseID: "c1", SeatCapacity: 6, Start: "2026-03-02 10:00:00", End: "2026-03-02 11:00:00"},
	}
	participants := []lesson.ParticipantRow{
		{SessionID: "s1", Username: "teacher1", IsTeacher: true, Attended: true},
		{SessionID: "s1", Username: "alice", Attended: true, Rating: "5"},
		{SessionID: "s2", Username: "teacher1", IsTeacher: true, Attended: true},
		{SessionID: "s2", Username: "alice", Attended: true},
		{SessionID: "s2", Username: "bob"},
	}
	return classes, participants
}

func TestDatasetLifecycle(t *testing.T) {
	svc := NewDatasetService(nil)
	ctx := context.Background()
	classes, participants := extractFixture()

	ds, err := svc.Create(ctx, "march", classes, participants)
	require.NoError(t, err)
	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, 2, ds.Sessions)

	got, err := svc.Get(ds.ID)
	require.NoError(t, err)
	assert.Equal(t, ds, got)

	list := svc.List()
	require.Len(t, list, 1)
	assert.Equal(t, ds.ID, list[0].ID)

	require.NoError(t, svc.Delete(ds.ID))
	_, err = svc.Get(ds.ID)
	assert.ErrorIs(t, err, ErrDatasetNotFound)
	assert.Empty(t, svc.List())
}

func TestDatasetListOrder(t *testing.T) {
	svc := NewDatasetService(nil)
	ctx := context.Background()
	classes, participants := extractFixture()

	first, err := svc.Create(ctx, "first", classes, participants)
	require.NoError(t, err)
	second, err := svc.Create(ctx, "second", classes, participants)
	require.NoError(t, err)

	list := svc.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestCreateRejectsEmptyExtracts(t *testing.T) {
	svc := NewDatasetService(nil)

	_, err := svc.Create(context.Background(), "empty", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestDeleteUnknownDataset(t *testing.T) {
	svc := NewDatasetService(nil)
	assert.ErrorIs(t, svc.Delete("nope"), ErrDatasetNotFound)
}

func TestReportDispatch(t *testing.T) {
	svc := NewDatasetService(nil)
	ctx := context.Background()
	classes, participants := extractFixture()

	ds, err := svc.Create(ctx, "march", classes, participants)
	require.NoError(t, err)

	for _, name := range ReportNames {
		opts := ReportOptions{CourseID: "c1"}
		tables, err := svc.Report(ctx, ds.ID, name, opts)
		require.NoError(t, err, "report %s", name)
		require.NotEmpty(t, tables, "report %s", name)
		for _, table := range tables {
			assert.NotEmpty(t, table.Headers, "report %s", name)
		}
	}

	// course-detail is the only two-table report.
	tables, err := svc.Report(ctx, ds.ID, "course-detail", ReportOptions{CourseID: "c1"})
	require.NoError(t, err)
	assert.Len(t, tables, 2)
}

func TestReportUnknownName(t *testing.T) {
	svc := NewDatasetService(nil)
	ctx := context.Background()
	classes, participants := extractFixture()

	ds, err := svc.Create(ctx, "march", classes, participants)
	require.NoError(t, err)

	_, err = svc.Report(ctx, ds.ID, "nonsense", ReportOptions{})
	assert.ErrorIs(t, err, ErrUnknownReport)
}

func TestReportUnknownDataset(t *testing.T) {
	svc := NewDatasetService(nil)

	_, err := svc.Report(context.Background(), "missing", "compensation", ReportOptions{})
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}
