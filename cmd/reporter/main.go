// Command reporter builds lesson reports from class and participant extracts
// and writes them as CSV files or an Excel workbook.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"lessonpulse/internal/config"
	"lessonpulse/internal/exporter"
	"lessonpulse/internal/infrastructure"
	"lessonpulse/internal/ingest"
	"lessonpulse/internal/reports"
	"lessonpulse/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "reporter: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		classPath       = flag.String("classes", "", "path to the class extract (CSV or xlsx)")
		participantPath = flag.String("participants", "", "path to the participant extract (CSV or xlsx)")
		outDir          = flag.String("out", "", "output directory (default from config)")
		format          = flag.String("format", "csv", "output format: csv or xlsx")
		reportList      = flag.String("reports", "", "comma-separated report names (default: all)")
		courseID        = flag.String("course", "", "course for course-detail and course-students")
		window          = flag.Float64("window", 0, "cancellation window in hours (0 = config default)")
		tardinessLimit  = flag.Float64("tardiness-limit", 0, "tardiness limit in minutes (0 = config default)")
		detailed        = flag.Bool("detailed", false, "detailed compensation columns")
		logLevel        = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	if *classPath == "" || *participantPath == "" {
		flag.Usage()
		return fmt.Errorf("both -classes and -participants are required")
	}
	if *format != "csv" && *format != "xlsx" {
		return fmt.Errorf("unknown format %q", *format)
	}

	cfg := config.Default()
	if loaded, err := config.Load(); err == nil {
		cfg = loaded
	}
	logger, err := infrastructure.InitializeLogger(config.LoggingConfig{Level: *logLevel, Output: "stdout"})
	if err != nil {
		return err
	}

	dir := cfg.Export.OutputDir
	if *outDir != "" {
		dir = *outDir
	}

	classes, err := ingest.LoadClassFile(*classPath)
	if err != nil {
		return err
	}
	participants, err := ingest.LoadParticipantFile(*participantPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc := services.NewDatasetService(logger)
	ds, err := svc.Create(ctx, filepath.Base(*classPath), classes, participants)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded", slog.Int("sessions", ds.Sessions))

	names := services.ReportNames
	if *reportList != "" {
		names = splitReports(*reportList)
	}
	names = filterCourseReports(names, *courseID, logger)

	opts := buildOptions(cfg, *courseID, *window, *tardinessLimit, *detailed)

	tables, err := buildAll(ctx, svc, ds.ID, names, opts)
	if err != nil {
		return err
	}

	if *format == "xlsx" {
		path := filepath.Join(dir, "lesson-reports.xlsx")
		if err := exporter.WriteWorkbook(tables, path); err != nil {
			return err
		}
		logger.Info("workbook written", slog.String("path", path))
		return nil
	}

	if err := exporter.WriteCSVDir(tables, dir); err != nil {
		return err
	}
	logger.Info("reports written", slog.String("dir", dir), slog.Int("tables", len(tables)))
	return nil
}

// buildAll runs the selected report engines concurrently and collects the
// resulting tables in request order.
func buildAll(ctx context.Context, svc *services.DatasetService, datasetID string, names []string, opts services.ReportOptions) ([]*reports.Table, error) {
	results := make([][]*reports.Table, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			tables, err := svc.Report(ctx, datasetID, name, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			results[i] = tables
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var tables []*reports.Table
	for _, group := range results {
		tables = append(tables, group...)
	}
	return tables, nil
}

func splitReports(list string) []string {
	var names []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// filterCourseReports drops the course-scoped reports when no course is
// selected rather than failing the whole run.
func filterCourseReports(names []string, courseID string, logger *slog.Logger) []string {
	if courseID != "" {
		return names
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "course-detail" || name == "course-students" {
			logger.Warn("skipping course report, no -course given", slog.String("report", name))
			continue
		}
		out = append(out, name)
	}
	return out
}

func buildOptions(cfg *config.Config, courseID string, window, tardinessLimit float64, detailed bool) services.ReportOptions {
	comp := reports.DefaultCompensationSettings()
	comp.TardinessLimitMinutes = cfg.Reports.TardinessLimitMinutes
	comp.CancellationWindowHours = cfg.Reports.CancellationWindowHours
	comp.StudentNoShowRatePercent = cfg.Reports.StudentNoShowRatePercent
	comp.Detailed = detailed

	student := reports.DefaultStudentSettings()
	student.CancellationWindowHours = cfg.Reports.CancellationWindowHours

	overview := reports.DefaultOverviewSettings()
	overview.CancellationWindowHours = cfg.Reports.CancellationWindowHours

	if window > 0 {
		comp.CancellationWindowHours = window
		student.CancellationWindowHours = window
		overview.CancellationWindowHours = window
	}
	if tardinessLimit > 0 {
		comp.TardinessLimitMinutes = tardinessLimit
	}

	return services.ReportOptions{
		Compensation: &comp,
		Student:      &student,
		Overview:     &overview,
		CourseID:     courseID,
	}
}
