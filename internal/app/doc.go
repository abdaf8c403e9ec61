// Package app wires the dashboard server together and owns its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, an optional YAML file and the environment
//	2. Initialize logging and OpenTelemetry
//	3. Load the rental dataset (a failure aborts startup)
//	4. Create the dashboard and health services and the WebSocket hub
//	5. Set up the chi router and its middleware
//	6. Create the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication(frontendFS)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// # Graceful Shutdown
//
// Run returns after SIGINT, SIGTERM, a cancelled context or a server
// failure. Shutdown drains in-flight requests, tells every live session
// the server is going away, flushes telemetry and closes the log file.
//
// The package never calls os.Exit; main decides the exit code.
package app
