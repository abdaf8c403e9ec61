package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bikepulse/internal/analytics"
	apierrors "bikepulse/internal/errors"
	"bikepulse/internal/exporter"
	"bikepulse/internal/infrastructure"
	"bikepulse/internal/narrative"
	"bikepulse/internal/validation"
	api "bikepulse/pkg/contracts/api/v1"
	"bikepulse/pkg/contracts/domain"
)

// Dataset is the read-only rental table the dashboard computes from.
type Dataset interface {
	View() []domain.RentalRecord
	Bounds() domain.Bounds
	MinDate() time.Time
	MaxDate() time.Time
	Len() int
}

type callerKey struct{}

// WithCaller tags ctx with the transport that asked for a computation. It
// becomes the "source" attribute of the compute metrics.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func callerFrom(ctx context.Context) string {
	if c, ok := ctx.Value(callerKey{}).(string); ok && c != "" {
		return c
	}
	return "unknown"
}

// ExportInfo describes a written export
type ExportInfo struct {
	FileName    string
	ContentType string
	Bytes       int64
}

// DashboardService computes dashboard views from the shared dataset
type DashboardService struct {
	data      Dataset
	validator *validation.QueryValidator
	exporter  *exporter.Exporter
	metrics   *infrastructure.DashboardMetrics
	tracer    trace.Tracer
	logger    *slog.Logger
	now       func() time.Time
}

// NewDashboardService creates the service. metrics may be nil.
func NewDashboardService(data Dataset, metrics *infrastructure.DashboardMetrics, tracer trace.Tracer, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = otel.Tracer(infrastructure.ServiceName)
	}
	logger = logger.With(slog.String("component", "dashboard_service"))

	return &DashboardService{
		data:      data,
		validator: validation.New(),
		exporter:  exporter.New(logger),
		metrics:   metrics,
		tracer:    tracer,
		logger:    logger,
		now:       time.Now,
	}
}

// Bounds returns the limits of the date and hour controls.
func (s *DashboardService) Bounds(ctx context.Context) (domain.Bounds, error) {
	if s.data == nil {
		return domain.Bounds{}, ErrDatasetUnavailable
	}
	return s.data.Bounds(), nil
}

// Compute validates q and builds the full view. An inverted date range is not
// an error: it yields empty aggregates and a zero summary.
func (s *DashboardService) Compute(ctx context.Context, q api.DashboardQuery) (view *domain.DashboardView, err error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.compute", trace.WithAttributes(
		attribute.String("dashboard.start", q.Start),
		attribute.String("dashboard.end", q.End),
		attribute.String("dashboard.caller", callerFrom(ctx)),
	))
	start := time.Now()
	scanned := 0
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("dashboard.records", scanned))
		span.End()
		s.metrics.RecordCompute(ctx, callerFrom(ctx), scanned, time.Since(start), err)
	}()

	if s.data == nil {
		return nil, ErrDatasetUnavailable
	}
	if err := s.validator.DashboardQuery(q); err != nil {
		return nil, err
	}

	dr, err := s.resolveRange(q)
	if err != nil {
		return nil, err
	}
	hours := q.Hours()

	records := analytics.FilterByDate(s.data.View(), dr.Start, dr.End)
	scanned = len(records)

	hourly := analytics.FilterHours(analytics.HourlyDemand(records), hours)
	seasonal := analytics.SeasonalUsage(records)
	weather := analytics.WeatherImpact(records)

	view = &domain.DashboardView{
		Range:       rangeDTO(dr),
		Hours:       hours,
		Bounds:      s.data.Bounds(),
		Summary:     analytics.Summarize(records),
		Hourly:      hourly,
		Seasonal:    seasonal,
		Weather:     weather,
		Narrative:   narrative.Build(hourly, seasonal, weather),
		GeneratedAt: s.now().UTC(),
	}

	s.logger.DebugContext(ctx, "Dashboard view computed",
		slog.String("start", view.Range.Start),
		slog.String("end", view.Range.End),
		slog.Int("start_hour", hours.Start),
		slog.Int("end_hour", hours.End),
		slog.Int("records", scanned),
		slog.Bool("inverted", dr.Inverted()),
	)

	return view, nil
}

// Export computes the view for req and writes the requested table to w.
func (s *DashboardService) Export(ctx context.Context, req api.ExportRequest, w io.Writer) (info *ExportInfo, err error) {
	defer func() {
		s.metrics.RecordExport(ctx, req.Table, req.Format, err)
	}()

	if err := s.validator.ExportRequest(req); err != nil {
		return nil, err
	}

	view, err := s.Compute(ctx, req.DashboardQuery)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "dashboard.export", trace.WithAttributes(
		attribute.String("export.table", req.Table),
		attribute.String("export.format", req.Format),
	))
	defer span.End()

	n, err := s.exporter.Export(ctx, w, req.Table, req.Format, view)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, apierrors.ExportFailed(err)
	}

	return &ExportInfo{
		FileName:    exporter.FileName(req.Table, req.Format, view.Range),
		ContentType: exporter.ContentType(req.Format),
		Bytes:       n,
	}, nil
}

// resolveRange fills missing dates from the dataset bounds.
func (s *DashboardService) resolveRange(q api.DashboardQuery) (domain.DateRange, error) {
	dr := domain.DateRange{Start: s.data.MinDate(), End: s.data.MaxDate()}

	if q.Start != "" {
		t, err := time.Parse(domain.DateLayout, q.Start)
		if err != nil {
			return dr, apierrors.InvalidDate("start", q.Start)
		}
		dr.Start = t
	}
	if q.End != "" {
		t, err := time.Parse(domain.DateLayout, q.End)
		if err != nil {
			return dr, apierrors.InvalidDate("end", q.End)
		}
		dr.End = t
	}
	return dr, nil
}

// rangeDTO keeps bounds of an empty dataset as empty strings.
func rangeDTO(dr domain.DateRange) domain.DateRangeDTO {
	var dto domain.DateRangeDTO
	if !dr.Start.IsZero() {
		dto.Start = dr.Start.Format(domain.DateLayout)
	}
	if !dr.End.IsZero() {
		dto.End = dr.End.Format(domain.DateLayout)
	}
	return dto
}

// String describes the dataset for startup logs.
func (s *DashboardService) String() string {
	if s.data == nil {
		return "dashboard(no dataset)"
	}
	b := s.data.Bounds()
	return fmt.Sprintf("dashboard(%d records, %s..%s)", b.Records, b.MinDate, b.MaxDate)
}
