// Package services holds the in-memory dataset registry and the report
// dispatch layer used by the HTTP transport and the CLI.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"lessonpulse/internal/lesson"
	"lessonpulse/internal/metrics"
	"lessonpulse/internal/reports"
)

var (
	// ErrDatasetNotFound indicates the dataset id is unknown
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrUnknownReport indicates the report name is not registered
	ErrUnknownReport = errors.New("unknown report")

	// ErrEmptyDataset indicates the extracts produced no sessions
	ErrEmptyDataset = errors.New("dataset contains no sessions")
)

// ReportNames lists every report the service can build, in display order.
var ReportNames = []string{
	"compensation",
	"performance-private",
	"performance-group",
	"feedback",
	"course-overview",
	"course-detail",
	"course-students",
	"students",
	"overview-buckets",
	"overview-averages",
}

// Dataset is a normalized snapshot held in memory under a generated id.
type Dataset struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Sessions   int              `json:"sessions"`
	UploadedAt time.Time        `json:"uploaded_at"`
	Snapshot   *lesson.Snapshot `json:"-"`
}

// ReportOptions carries per-request settings. Zero value means defaults.
type ReportOptions struct {
	Compensation *reports.CompensationSettings
	Student      *reports.StudentSettings
	Overview     *reports.OverviewSettings

	// CourseID selects the course for course-detail and course-students.
	CourseID string
}

// DatasetService stores datasets and dispatches report builds.
type DatasetService struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
	order    []string
	logger   *slog.Logger
}

// NewDatasetService creates an empty dataset service.
func NewDatasetService(logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetService{
		datasets: make(map[string]*Dataset),
		logger:   logger,
	}
}

// Create normalizes the extract rows into a snapshot and stores it under a
// fresh id.
func (s *DatasetService) Create(ctx context.Context, name string, classes []lesson.ClassRow, participants []lesson.ParticipantRow) (*Dataset, error) {
	snap := lesson.Normalize(classes, participants)
	if snap.Len() == 0 {
		return nil, ErrEmptyDataset
	}

	ds := &Dataset{
		ID:         uuid.NewString(),
		Name:       name,
		Sessions:   snap.Len(),
		UploadedAt: time.Now().UTC(),
		Snapshot:   snap,
	}

	s.mu.Lock()
	s.datasets[ds.ID] = ds
	s.order = append(s.order, ds.ID)
	s.mu.Unlock()

	metrics.DatasetsIngested.Inc()
	s.logger.InfoContext(ctx, "dataset created",
		slog.String("dataset_id", ds.ID),
		slog.String("name", ds.Name),
		slog.Int("sessions", ds.Sessions),
	)
	return ds, nil
}

// Get returns the dataset for id.
func (s *DatasetService) Get(id string) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.datasets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	return ds, nil
}

// List returns all datasets in creation order.
func (s *DatasetService) List() []*Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Dataset, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.datasets[id])
	}
	return out
}

// Delete removes the dataset for id.
func (s *DatasetService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[id]; !ok {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	delete(s.datasets, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Report builds the named report against the dataset. Reports producing a
// single table return a one-element slice; course-detail returns two.
func (s *DatasetService) Report(ctx context.Context, datasetID, report string, opts ReportOptions) ([]*reports.Table, error) {
	ds, err := s.Get(datasetID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	tables, err := buildReport(ds.Snapshot, report, opts)
	if err != nil {
		return nil, err
	}

	metrics.ReportsGenerated.WithLabelValues(report).Inc()
	s.logger.InfoContext(ctx, "report generated",
		slog.String("dataset_id", datasetID),
		slog.String("report", report),
		slog.Duration("duration", time.Since(start)),
	)
	return tables, nil
}

func buildReport(snap *lesson.Snapshot, report string, opts ReportOptions) ([]*reports.Table, error) {
	switch report {
	case "compensation":
		settings := reports.DefaultCompensationSettings()
		if opts.Compensation != nil {
			settings = *opts.Compensation
		}
		t, err := reports.BuildCompensation(snap, settings)
		if err != nil {
			return nil, err
		}
		return []*reports.Table{t}, nil

	case "performance-private":
		return []*reports.Table{reports.BuildPerformancePrivate(snap)}, nil

	case "performance-group":
		return []*reports.Table{reports.BuildPerformanceGroup(snap)}, nil

	case "feedback":
		return []*reports.Table{reports.BuildFeedback(snap)}, nil

	case "course-overview":
		return []*reports.Table{reports.BuildCourseOverview(snap)}, nil

	case "course-detail":
		detail, err := reports.BuildCourseDetail(snap, opts.CourseID)
		if err != nil {
			return nil, err
		}
		return []*reports.Table{detail.Summary, detail.Matrix}, nil

	case "course-students":
		t, err := reports.BuildCourseStudents(snap, opts.CourseID)
		if err != nil {
			return nil, err
		}
		return []*reports.Table{t}, nil

	case "students":
		settings := reports.DefaultStudentSettings()
		if opts.Student != nil {
			settings = *opts.Student
		}
		t, err := reports.BuildStudents(snap, settings)
		if err != nil {
			return nil, err
		}
		return []*reports.Table{t}, nil

	case "overview-buckets":
		settings := reports.DefaultOverviewSettings()
		if opts.Overview != nil {
			settings = *opts.Overview
		}
		t, err := reports.BuildOverviewBuckets(snap, settings)
		if err != nil {
			return nil, err
		}
		return []*reports.Table{t}, nil

	case "overview-averages":
		settings := reports.DefaultOverviewSettings()
		if opts.Overview != nil {
			settings = *opts.Overview
		}
		t, err := reports.BuildOverviewAverages(snap, settings)
		if err != nil {
			return nil, err
		}
		return []*reports.Table{t}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownReport, report)
}
