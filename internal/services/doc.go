// Package services holds the application state of SheetPulse and the
// operations the HTTP and CLI layers run against it.
//
// # Workbook state
//
// WorkbookService owns the one workbook a running instance serves. An upload or
// Google Sheets import goes through validate, parse and normalize; only a fully
// normalized workbook replaces the held one, under a write lock, together with
// its UploadInfo. A failed load leaves the previous workbook in place and
// returns the error. Readers take the read lock just long enough to grab the
// current pointer; the workbook itself is never mutated after it is stored.
//
// Every load outcome is broadcast to websocket clients as workbook:loaded or
// workbook:rejected and counted in the upload metrics.
//
// # Derived views
//
// Dashboards, column roles, table views and exports are computed on demand from
// the held workbook:
//
//	svc.Dashboard(ctx, "")                 // main sheet, six charts, KPIs, summary
//	svc.Table("Sales", domain.TableQuery{Search: "east", Limit: 50})
//	svc.Export(ctx, w, "Sales", query, domain.ExportCSV)
//
// # Health
//
// HealthService reports liveness, readiness (workbook held, websocket hub
// running) and build information for the /health endpoints.
package services
