package web

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// placeholderIndex is served when no front-end build is configured.
const placeholderIndex = `<!doctype html>
<html><head><meta charset="utf-8"><title>Shepherd</title></head>
<body><div id="app">Shepherd is running. Configure server.static_dir to serve the web app.</div></body></html>
`

// SPA serves a single-page front end from a build directory on disk.
type SPA struct {
	dir string
}

// NewSPA serves the build in dir. An empty dir serves a placeholder page.
func NewSPA(dir string) *SPA {
	return &SPA{dir: dir}
}

// Index writes index.html; the front end's router takes it from there.
// The shell is written directly rather than through http.ServeFile, which
// would reject odd request paths before the front end sees them.
func (s *SPA) Index(c *gin.Context) {
	if s.dir != "" {
		if data, err := os.ReadFile(filepath.Join(s.dir, "index.html")); err == nil {
			c.Header("Cache-Control", "no-cache")
			c.Data(http.StatusOK, "text/html; charset=utf-8", data)
			return
		}
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(placeholderIndex))
}

// Asset serves a static file from the build, or the index for unknown
// paths without an extension so deep links keep working.
func (s *SPA) Asset(c *gin.Context) {
	if s.dir != "" {
		clean := path.Clean("/" + c.Request.URL.Path)
		file := filepath.Join(s.dir, filepath.FromSlash(clean))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
	}
	if path.Ext(c.Request.URL.Path) != "" || strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	s.Index(c)
}
