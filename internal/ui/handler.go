// Package ui serves the embedded service-request page and its WebAssembly client.
package ui

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed dist/*
var content embed.FS

// PageFile is the entry document inside dist.
const PageFile = "index.html"

// Page returns the embedded entry document.
func Page() ([]byte, error) {
	return content.ReadFile("dist/" + PageFile)
}

// Handler serves the embedded UI assets.
func Handler() http.Handler {
	sub, err := fs.Sub(content, "dist")
	if err != nil {
		return http.NotFoundHandler()
	}
	fsys := http.FS(sub)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		p := path.Clean(r.URL.Path)
		if p == "/" || p == "." {
			p = "/" + PageFile
		}
		p = strings.TrimPrefix(p, "/")
		file, err := fsys.Open(p)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer file.Close()
		info, err := file.Stat()
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		if strings.HasSuffix(p, ".wasm") {
			w.Header().Set("Content-Type", "application/wasm")
		}
		http.ServeContent(w, r, info.Name(), info.ModTime(), file)
	})
}
