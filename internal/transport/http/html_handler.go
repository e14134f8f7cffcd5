package http

import (
	"html/template"
	"io/fs"
	"net/http"
)

// PageData is passed to the dashboard page template.
type PageData struct {
	Version       string
	ImportEnabled bool
	MaxUploadMB   int64
}

// ServeDashboardPage renders index.html from pages once and serves it for every request.
func ServeDashboardPage(pages fs.FS, data PageData) (http.HandlerFunc, error) {
	tmpl, err := template.ParseFS(pages, "index.html")
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if err := tmpl.Execute(w, data); err != nil {
			http.Error(w, "Error rendering page", http.StatusInternalServerError)
		}
	}, nil
}
