package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "bikepulse/internal/errors"
	"bikepulse/internal/services"
	api "bikepulse/pkg/contracts/api/v1"
	"bikepulse/pkg/contracts/domain"
)

// DashboardHandler serves dashboard views and exports
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/", h.GetView)
		r.Get("/bounds", h.GetBounds)
		r.Get("/hourly", h.GetHourly)
		r.Get("/seasonal", h.GetSeasonal)
		r.Get("/weather", h.GetWeather)
		r.Get("/summary", h.GetSummary)
	})

	r.Get("/export/{table}", h.Export)

	return r
}

// GetBounds handles GET /api/dashboard/bounds
func (h *DashboardHandler) GetBounds(w http.ResponseWriter, r *http.Request) {
	bounds, err := h.service.Bounds(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, api.Success(bounds))
}

// GetView handles GET /api/dashboard
func (h *DashboardHandler) GetView(w http.ResponseWriter, r *http.Request) {
	view, ok := h.compute(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, api.Success(view))
}

// GetHourly handles GET /api/dashboard/hourly
func (h *DashboardHandler) GetHourly(w http.ResponseWriter, r *http.Request) {
	view, ok := h.compute(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, api.Success(api.HourlyResponse{
		Range:  view.Range,
		Hours:  view.Hours,
		Hourly: view.Hourly,
	}))
}

// GetSeasonal handles GET /api/dashboard/seasonal
func (h *DashboardHandler) GetSeasonal(w http.ResponseWriter, r *http.Request) {
	view, ok := h.compute(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, api.Success(api.SeasonalResponse{Range: view.Range, Seasonal: view.Seasonal}))
}

// GetWeather handles GET /api/dashboard/weather
func (h *DashboardHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	view, ok := h.compute(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, api.Success(api.WeatherResponse{Range: view.Range, Weather: view.Weather}))
}

// GetSummary handles GET /api/dashboard/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	view, ok := h.compute(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, api.Success(api.SummaryResponse{Range: view.Range, Summary: view.Summary}))
}

// Export handles GET /api/dashboard/export/{table}. The file is built in
// memory so a failed export still gets a problem response.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	req := api.ExportRequest{
		DashboardQuery: q,
		Table:          chi.URLParam(r, "table"),
		Format:         r.URL.Query().Get("format"),
	}
	if req.Format == "" {
		req.Format = api.FormatCSV
	}

	var buf bytes.Buffer
	info, err := h.service.Export(services.WithCaller(r.Context(), "http"), req, &buf)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "export served",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("table", req.Table),
		slog.String("format", req.Format),
		slog.Int64("bytes", info.Bytes),
	)

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, info.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *DashboardHandler) compute(w http.ResponseWriter, r *http.Request) (*domain.DashboardView, bool) {
	q, err := ParseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}

	view, err := h.service.Compute(services.WithCaller(r.Context(), "http"), q)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return view, true
}

func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrDatasetUnavailable) {
		err = apierrors.ErrDatasetUnavailable
	}
	h.errorHandler.HandleError(w, r, err)
}

// ParseQuery reads the dashboard filter from URL query parameters. Only the
// integer syntax of the hours is checked here; the service validates ranges.
func ParseQuery(r *http.Request) (api.DashboardQuery, error) {
	values := r.URL.Query()
	q := api.DashboardQuery{
		Start: values.Get("start"),
		End:   values.Get("end"),
	}

	var err error
	if q.StartHour, err = parseHour(values.Get("start_hour"), "start_hour"); err != nil {
		return q, err
	}
	if q.EndHour, err = parseHour(values.Get("end_hour"), "end_hour"); err != nil {
		return q, err
	}
	return q, nil
}

func parseHour(raw, field string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apierrors.ErrValidation(field, field+" must be an integer between 0 and 23")
	}
	return &v, nil
}
