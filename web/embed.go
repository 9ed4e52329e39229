// Package web embeds the static landing page served at the API root.
//
// Usage in the API server:
//
//	r.Handle("/*", http.FileServerFS(web.StaticFS()))
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var static embed.FS

// StaticFS returns a filesystem rooted at the embedded static/ directory.
// This is ready to use with http.FileServerFS or http.FS.
func StaticFS() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic("web.StaticFS: " + err.Error())
	}
	return sub
}
