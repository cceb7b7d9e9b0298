package static

import (
	"embed"
	"net/http"
)

//go:embed index.html
var files embed.FS

// FileSystem exposes the embedded assets for http.FileServer.
func FileSystem() http.FileSystem {
	return http.FS(files)
}
