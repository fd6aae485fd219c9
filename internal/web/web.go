// Package web holds the embedded chat page.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed index.html static
var files embed.FS

// Index returns the chat page.
func Index() ([]byte, error) {
	return files.ReadFile("index.html")
}

// Static serves the page's scripts and styles. Mount it with the /static/
// prefix stripped.
func Static() http.Handler {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
