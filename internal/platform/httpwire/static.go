package httpwire

import (
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/rs/zerolog"
)

// StaticFiles serves regular files below root. "/" maps to /index.html and
// anything that is not a readable file inside root is a 404.
func StaticFiles(root string) HandlerFunc {
	return func(req *Request) *Response {
		if req.Method != "GET" {
			return NotFound(req)
		}

		p := req.Path
		if p == "/" {
			p = "/index.html"
		}
		// Cleaning a rooted path drops any ".." that would climb above root.
		full := filepath.Join(root, filepath.FromSlash(path.Clean("/"+p)))

		info, err := os.Stat(full)
		if err != nil || !info.Mode().IsRegular() {
			return NotFound(req)
		}

		content, err := os.ReadFile(full)
		if err != nil {
			zerolog.Ctx(req.Context()).Error().Err(err).Str("file", full).Msg("failed to read static file")
			return Text(StatusInternalServerError, "failed to read requested file")
		}

		contentType := mime.TypeByExtension(filepath.Ext(full))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return NewResponse(StatusOK, content).SetHeader("Content-Type", contentType)
	}
}
