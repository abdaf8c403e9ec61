// Package services implements the business logic layer of the dashboard.
// It sits between the transports (HTTP handlers, WebSocket sessions, the
// report CLI) and the pure aggregation packages.
//
// # Services
//
//	- DashboardService: validates a query, filters the shared dataset and
//	  computes the dashboard view and exports
//	- HealthService: liveness, readiness and build information
//
// # Error Handling
//
// Query problems are returned as *errors.APIError values (400) so every
// transport reports them with the same code. ErrDatasetUnavailable signals
// that no dataset was loaded and maps to 503.
//
// # Concurrency
//
// The dataset is immutable after load. Every call recomputes from it without
// locks, so one DashboardService is shared by all requests and sessions.
package services
