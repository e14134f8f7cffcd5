// Package app wires the SheetPulse web service together and runs it.
//
// NewApplication builds every component from a config.Config: telemetry,
// the websocket hub, the workbook service with its dashboard builder and
// exporter, and the chi router. Run serves until the context is cancelled,
// then shuts the server down within Server.ShutdownTimeout and flushes
// telemetry.
//
//	cfg, err := config.Load()
//	...
//	a, err := app.NewApplication(cfg, logger, pages)
//	...
//	err = a.Run(ctx)
//
// /ws and /metrics sit outside the logging and recovery middleware so the
// websocket upgrade sees the raw ResponseWriter. Everything else, including
// the dashboard page at /, runs through the full stack.
//
// Initialization errors are returned; the package never calls os.Exit.
package app
