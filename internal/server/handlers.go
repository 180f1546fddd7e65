package server

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/five82/logmon/internal/catalog"
	"github.com/five82/logmon/internal/discovery"
	"github.com/five82/logmon/internal/logtail"
)

const indexFile = "index.html"

// LogsResponse is the body of /api/logs and /api/refresh.
type LogsResponse struct {
	Logs      []discovery.Entry `json:"logs"`
	Count     int               `json:"count"`
	Timestamp float64           `json:"timestamp"`
}

// TagsResponse is the body of /api/tags.
type TagsResponse struct {
	Tags []catalog.TagCount `json:"tags"`
}

func logsResponse(cat *catalog.Catalog) LogsResponse {
	return LogsResponse{
		Logs:      cat.Entries(),
		Count:     cat.Len(),
		Timestamp: discovery.UnixSeconds(cat.GeneratedAt),
	}
}

// handleLogs lists the catalog. ?tag= narrows the list to one tag.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	cat := s.svc.Catalog()
	resp := logsResponse(cat)
	if tag := r.URL.Query().Get("tag"); tag != "" {
		resp.Logs = cat.Lookup(tag)
		if resp.Logs == nil {
			resp.Logs = []discovery.Entry{}
		}
		resp.Count = len(resp.Logs)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Config().Document())
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TagsResponse{Tags: s.svc.Tags()})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cat, err := s.svc.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set(HeaderCatalogID, cat.ID)
	writeJSON(w, http.StatusOK, logsResponse(cat))
}

// handleFile serves a file under the base directory, or failing that a
// catalogued log file by web path or filename.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, "/")
	if rel == "" {
		rel = indexFile
	}

	target, ok := s.locate(rel)
	if !ok {
		writeError(w, http.StatusNotFound, "file not found: "+rel)
		return
	}

	if logtail.IsLogFile(target) {
		s.serveLog(w, target)
		return
	}
	s.serveStatic(w, r, target)
}

// locate maps a request path to a file on disk. Paths are cleaned against
// the root so they never leave the base directory.
func (s *Server) locate(rel string) (string, bool) {
	base := s.svc.Config().BaseDir
	if base != "" {
		clean := path.Clean("/" + rel)
		candidate := filepath.Join(base, filepath.FromSlash(clean))
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
	}
	if entry, ok := s.svc.Resolve(rel); ok {
		return entry.AbsolutePath, true
	}
	return "", false
}

func (s *Server) serveLog(w http.ResponseWriter, target string) {
	content, err := logtail.Read(target, s.svc.Config().MaxFileReadSize)
	if err != nil {
		s.readFailed(w, target, err)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(content.Data)))
	h.Set(HeaderPartialContent, strconv.FormatBool(content.Truncated))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content.Data)
}

func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request, target string) {
	f, err := os.Open(target)
	if err != nil {
		s.readFailed(w, target, err)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		s.readFailed(w, target, err)
		return
	}

	ctype := mime.TypeByExtension(filepath.Ext(target))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) readFailed(w http.ResponseWriter, target string, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		writeError(w, http.StatusNotFound, "file not found: "+filepath.Base(target))
		return
	}
	s.logger.Warn("read file failed", zap.String("path", target), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "error reading file: "+err.Error())
}
