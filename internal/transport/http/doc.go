// Package http implements the HTTP handlers of the dashboard. Handlers are
// thin: they parse query parameters, call the dashboard service and render
// either the success envelope or an RFC 7807 problem.
//
// # Routes
//
//	GET /api/dashboard                full view
//	GET /api/dashboard/bounds         date and hour bounds
//	GET /api/dashboard/hourly         hourly demand
//	GET /api/dashboard/seasonal       seasonal usage
//	GET /api/dashboard/weather        weather impact
//	GET /api/dashboard/summary        summary metrics
//	GET /api/dashboard/export/{table} download, ?format=csv|xlsx|parquet
//
// Every view endpoint accepts start, end (YYYY-MM-DD), start_hour and
// end_hour. Missing values fall back to the dataset bounds and the full day.
//
// # Errors
//
// Service errors are passed to apierrors.ErrorHandler, which renders
// RFC 7807 problem bodies with error_code and trace_id extensions.
package http
