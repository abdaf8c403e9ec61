package http

import (
	"context"
	"io"

	"bikepulse/internal/services"
	api "bikepulse/pkg/contracts/api/v1"
	"bikepulse/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations used by the handlers
type DashboardServiceInterface interface {
	Bounds(ctx context.Context) (domain.Bounds, error)
	Compute(ctx context.Context, q api.DashboardQuery) (*domain.DashboardView, error)
	Export(ctx context.Context, req api.ExportRequest, w io.Writer) (*services.ExportInfo, error)
}
