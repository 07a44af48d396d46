// Package http exposes the dataset and report API over chi.
package http

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "lessonpulse/internal/errors"
	"lessonpulse/internal/ingest"
	"lessonpulse/internal/reports"
	"lessonpulse/internal/services"
)

// ReportHandler handles dataset upload and report requests.
type ReportHandler struct {
	service        *services.DatasetService
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewReportHandler creates a report handler.
func NewReportHandler(service *services.DatasetService, logger *slog.Logger, maxUploadBytes int64) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &ReportHandler{service: service, logger: logger, maxUploadBytes: maxUploadBytes}
}

// Routes returns the router for dataset endpoints.
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateDataset)
	r.Get("/", h.ListDatasets)
	r.Delete("/{id}", h.DeleteDataset)
	r.Get("/{id}/reports/{report}", h.GetReport)
	return r
}

// CreateDataset accepts a multipart upload with "classes" and "participants"
// extract files (CSV or xlsx, dispatched on filename) and stores the
// normalized dataset.
func (h *ReportHandler) CreateDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		render.Render(w, r, apierrors.ErrBadRequest(err, "expected multipart form with classes and participants files"))
		return
	}

	classes, err := readUpload(r, "classes", ingest.ReadClassCSV, ingest.ReadClassExcel)
	if err != nil {
		render.Render(w, r, apierrors.ErrUnprocessable(err, fmt.Sprintf("classes extract: %v", err)))
		return
	}
	participants, err := readUpload(r, "participants", ingest.ReadParticipantCSV, ingest.ReadParticipantExcel)
	if err != nil {
		render.Render(w, r, apierrors.ErrUnprocessable(err, fmt.Sprintf("participants extract: %v", err)))
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = "dataset"
	}

	ds, err := h.service.Create(r.Context(), name, classes, participants)
	if err != nil {
		if stderrors.Is(err, services.ErrEmptyDataset) {
			render.Render(w, r, apierrors.ErrUnprocessable(err, "extracts contain no sessions"))
			return
		}
		h.logger.ErrorContext(r.Context(), "dataset creation failed", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrInternal(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, ds)
}

// ListDatasets returns all stored datasets.
func (h *ReportHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"datasets": h.service.List(),
		"reports":  services.ReportNames,
	})
}

// DeleteDataset removes a dataset.
func (h *ReportHandler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(id); err != nil {
		render.Render(w, r, apierrors.ErrNotFound(fmt.Sprintf("dataset %s", id)))
		return
	}
	render.NoContent(w, r)
}

// GetReport builds the named report for the dataset, applying settings from
// query parameters.
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report := chi.URLParam(r, "report")

	opts, err := optionsFromQuery(r)
	if err != nil {
		render.Render(w, r, apierrors.ErrValidation(err, err.Error()))
		return
	}

	tables, err := h.service.Report(r.Context(), id, report, opts)
	if err != nil {
		var notFound *reports.ErrCourseNotFound
		switch {
		case stderrors.Is(err, services.ErrDatasetNotFound):
			render.Render(w, r, apierrors.ErrNotFound(fmt.Sprintf("dataset %s", id)))
		case stderrors.Is(err, services.ErrUnknownReport):
			render.Render(w, r, apierrors.ErrNotFound(fmt.Sprintf("report %s", report)))
		case stderrors.As(err, &notFound):
			render.Render(w, r, apierrors.ErrNotFound(fmt.Sprintf("course %s", notFound.CourseID)))
		default:
			h.logger.ErrorContext(r.Context(), "report build failed",
				slog.String("dataset_id", id),
				slog.String("report", report),
				slog.String("error", err.Error()),
			)
			render.Render(w, r, apierrors.ErrValidation(err, err.Error()))
		}
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"dataset_id": id,
		"report":     report,
		"tables":     tables,
	})
}

func readUpload[T any](r *http.Request, field string, fromCSV, fromExcel func(io.Reader) ([]T, error)) ([]T, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing %q file", field)
	}
	defer file.Close()

	if ingest.IsExcelName(header.Filename) {
		return fromExcel(file)
	}
	return fromCSV(file)
}

// optionsFromQuery maps query parameters onto report options. Unknown
// parameters are ignored; malformed values are errors.
func optionsFromQuery(r *http.Request) (services.ReportOptions, error) {
	q := r.URL.Query()
	opts := services.ReportOptions{CourseID: q.Get("course")}

	comp := reports.DefaultCompensationSettings()
	if err := applyFloat(q.Get("tardiness_limit"), &comp.TardinessLimitMinutes); err != nil {
		return opts, fmt.Errorf("tardiness_limit: %w", err)
	}
	if err := applyFloat(q.Get("window"), &comp.CancellationWindowHours); err != nil {
		return opts, fmt.Errorf("window: %w", err)
	}
	if err := applyFloat(q.Get("no_show_rate"), &comp.StudentNoShowRatePercent); err != nil {
		return opts, fmt.Errorf("no_show_rate: %w", err)
	}
	if err := applyBool(q.Get("penalise_tardiness"), &comp.PenaliseTardiness); err != nil {
		return opts, fmt.Errorf("penalise_tardiness: %w", err)
	}
	if err := applyBool(q.Get("pay_cancellation"), &comp.PayLastMinuteCancellation); err != nil {
		return opts, fmt.Errorf("pay_cancellation: %w", err)
	}
	if err := applyBool(q.Get("pay_no_show"), &comp.PayStudentNoShow); err != nil {
		return opts, fmt.Errorf("pay_no_show: %w", err)
	}
	if err := applyBool(q.Get("detailed"), &comp.Detailed); err != nil {
		return opts, fmt.Errorf("detailed: %w", err)
	}
	if v := q.Get("class_type"); v != "" {
		comp.ClassTypeFilter = reports.ClassTypeFilter(v)
	}
	if err := comp.Validate(); err != nil {
		return opts, err
	}
	opts.Compensation = &comp

	student := reports.DefaultStudentSettings()
	if err := applyFloat(q.Get("window"), &student.CancellationWindowHours); err != nil {
		return opts, fmt.Errorf("window: %w", err)
	}
	if v := q.Get("company"); v != "" {
		student.CompanyID = v
		student.FilterMode = reports.FilterModeCompany
	}
	if v := q.Get("students"); v != "" {
		student.FilterMode = reports.FilterModeCustom
		student.CustomAllowlist = make(map[string]struct{})
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				student.CustomAllowlist[name] = struct{}{}
			}
		}
	}
	if err := student.Validate(); err != nil {
		return opts, err
	}
	opts.Student = &student

	overview := reports.DefaultOverviewSettings()
	if err := applyFloat(q.Get("window"), &overview.CancellationWindowHours); err != nil {
		return opts, fmt.Errorf("window: %w", err)
	}
	if err := overview.Validate(); err != nil {
		return opts, err
	}
	opts.Overview = &overview

	return opts, nil
}

func applyFloat(value string, dst *float64) error {
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", value)
	}
	*dst = f
	return nil
}

func applyBool(value string, dst *bool) error {
	if value == "" {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean %q", value)
	}
	*dst = b
	return nil
}
