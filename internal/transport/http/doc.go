// Package http implements the HTTP handlers of the SheetPulse web service.
// Handlers are thin: they bind and validate the request, call the workbook
// service and render the result. Every failure goes through
// errors.ErrorHandler and reaches the client as application/problem+json.
//
// # Routes
//
//	POST /api/workbook/upload          multipart "file" (.xlsx, .xls, .csv)
//	POST /api/workbook/import          {"spreadsheet_id": "..."}
//	GET  /api/workbook                 whole workbook, sheets in source order
//	GET  /api/workbook/status          UploadInfo of the held workbook
//	GET  /api/workbook/sheets          sheet names, row counts and columns
//	GET  /api/workbook/sheets/{sheet}  records of one sheet
//	GET  /api/dashboard?sheet=         KPIs, summary statistics and six charts
//	GET  /api/roles?sheet=             column roles and keyword buckets
//	GET  /api/table?search=&columns=&limit=
//	GET  /api/table/export?format=csv|json|xlsx
//	GET  /api/health, /api/health/ready, /api/health/live, /api/version
//	POST /api/logs                     browser-side error reports
//
// Until a workbook is loaded the read routes answer 404 with the
// no-workbook problem type.
package http
