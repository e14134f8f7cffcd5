// Package frontend embeds the single-page dashboard served at /.
package frontend

import (
	"embed"
	"io/fs"
)

//go:embed index.html
var pages embed.FS

// Pages returns the page templates. index.html is rendered with
// transport/http.PageData.
func Pages() fs.FS {
	return pages
}
