package handlers

import (
	"net/http"
	"path"
	"strings"
)

// IsochroneFiles serves the isochrone GeoJSON files under dir. Every response
// carries application/json and no-store so the loader never sees a cached copy.
// Only .json files are served; mount with the route prefix stripped.
func IsochroneFiles(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		if !strings.HasSuffix(name, ".json") || name == "/.json" {
			writeError(w, http.StatusNotFound, "Isochrone not found", map[string]interface{}{
				"path": r.URL.Path,
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		files.ServeHTTP(w, r)
	})
}
