package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/logmon/internal/catalog"
	"github.com/five82/logmon/internal/config"
	"github.com/five82/logmon/internal/discovery"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestServer(t *testing.T, cfg config.Config) (*Server, *catalog.Service) {
	t.Helper()
	svc := catalog.NewService(cfg, nil)
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	return New(svc, nil), svc
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestLogsEndpoint(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "logs", "service.42.requests.log"), "hello\n")
	writeFile(t, filepath.Join(base, "notes.txt"), "ignored")
	srv, svc := newTestServer(t, config.Default(base))

	rec := do(t, srv, http.MethodGet, "/api/logs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "no-store, no-cache, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, svc.Catalog().ID, rec.Header().Get(HeaderCatalogID))

	body := decode[LogsResponse](t, rec)
	require.Equal(t, 1, body.Count)
	require.Len(t, body.Logs, 1)
	got := body.Logs[0]
	assert.Equal(t, "service.42.requests.log", got.Filename)
	assert.Equal(t, "logs/service.42.requests.log", got.Path)
	assert.Equal(t, "requests", got.Tag)
	assert.Equal(t, "service", got.Name)
	assert.Equal(t, int64(6), got.Size)
	assert.Equal(t, "name.number.tag.log", got.Pattern)
	assert.InDelta(t, discovery.UnixSeconds(svc.Catalog().GeneratedAt), body.Timestamp, 0.001)
}

func TestLogsEndpointUsesWireKeys(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "a.1.b.log"), "x\n")
	srv, _ := newTestServer(t, config.Default(base))

	rec := do(t, srv, http.MethodGet, "/api/logs")
	var raw struct {
		Logs []map[string]any `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw.Logs, 1)
	for _, key := range []string{"filename", "path", "absolutePath", "tag", "name", "size", "modified", "pattern"} {
		assert.Contains(t, raw.Logs[0], key)
	}
	assert.IsType(t, float64(0), raw.Logs[0]["modified"])
}

func TestOptionsPreflight(t *testing.T) {
	srv, _ := newTestServer(t, config.Default(t.TempDir()))

	rec := do(t, srv, http.MethodOptions, "/api/logs")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Empty(t, rec.Body.String())
}

func TestConfigEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, config.Default(t.TempDir()))

	rec := do(t, srv, http.MethodGet, "/api/config")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		ScanPaths   []string `json:"scanPaths"`
		LogPatterns []struct {
			Pattern     string `json:"pattern"`
			Regex       string `json:"regex"`
			TagGroup    int    `json:"tagGroup"`
			NameGroup   int    `json:"nameGroup"`
			Description string `json:"description"`
		} `json:"logPatterns"`
		Port             int   `json:"port"`
		MaxFileReadSize  int64 `json:"maxFileReadSize"`
		UpdateInterval   int   `json:"updateInterval"`
		MaxEntriesPerTag int   `json:"maxEntriesPerTag"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, []string{"."}, doc.ScanPaths)
	require.Len(t, doc.LogPatterns, 1)
	assert.Equal(t, `^(.+?)\.(\d+)\.(.+?)\.log$`, doc.LogPatterns[0].Regex)
	assert.Equal(t, 3, doc.LogPatterns[0].TagGroup)
	assert.Equal(t, 1, doc.LogPatterns[0].NameGroup)
	assert.Equal(t, 8080, doc.Port)
	assert.Equal(t, int64(524288), doc.MaxFileReadSize)
	assert.Equal(t, 2000, doc.UpdateInterval)
	assert.Equal(t, 1000, doc.MaxEntriesPerTag)
}

func TestRefreshEndpointPicksUpNewFiles(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "a.1.one.log"), "x\n")
	srv, svc := newTestServer(t, config.Default(base))
	before := svc.Catalog().ID

	writeFile(t, filepath.Join(base, "b.2.two.log"), "y\n")
	assert.Equal(t, 1, decode[LogsResponse](t, do(t, srv, http.MethodGet, "/api/logs")).Count)

	rec := do(t, srv, http.MethodGet, "/api/refresh")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[LogsResponse](t, rec).Count)
	assert.NotEqual(t, before, rec.Header().Get(HeaderCatalogID))
	assert.Equal(t, svc.Catalog().ID, rec.Header().Get(HeaderCatalogID))

	rec = do(t, srv, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusOK, rec.Code)
}

type failingDiscoverer struct{}

func (failingDiscoverer) Discover(context.Context, []string) (discovery.Result, error) {
	return discovery.Result{}, errors.New("disk on fire")
}

func TestRefreshEndpointFailure(t *testing.T) {
	svc := catalog.NewServiceWithDiscoverer(config.Default(t.TempDir()), failingDiscoverer{}, nil)
	srv := New(svc, nil)

	rec := do(t, srv, http.MethodGet, "/api/refresh")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Contains(t, body["error"], "disk on fire")
	assert.Equal(t, 0, svc.Catalog().Len())
}

func TestTagsEndpoint(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "a.1.web.log"), "")
	writeFile(t, filepath.Join(base, "b.1.db.log"), "")
	writeFile(t, filepath.Join(base, "c.1.web.log"), "")
	srv, _ := newTestServer(t, config.Default(base))

	body := decode[TagsResponse](t, do(t, srv, http.MethodGet, "/api/tags"))
	assert.Equal(t, []catalog.TagCount{{Tag: "web", Count: 2}, {Tag: "db", Count: 1}}, body.Tags)
}

func TestLogsEndpointFiltersByTag(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "a.1.web.log"), "")
	writeFile(t, filepath.Join(base, "b.1.db.log"), "")
	writeFile(t, filepath.Join(base, "c.1.web.log"), "")
	srv, _ := newTestServer(t, config.Default(base))

	body := decode[LogsResponse](t, do(t, srv, http.MethodGet, "/api/logs?tag=web"))
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "a.1.web.log", body.Logs[0].Filename)
	assert.Equal(t, "c.1.web.log", body.Logs[1].Filename)

	rec := do(t, srv, http.MethodGet, "/api/logs?tag=nope")
	assert.JSONEq(t, `[]`, mustField(t, rec, "logs"))
}

func mustField(t *testing.T, rec *httptest.ResponseRecorder, key string) string {
	t.Helper()
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	v, ok := raw[key]
	require.True(t, ok, "missing %q in %s", key, rec.Body.String())
	return string(v)
}

func TestUnknownLogIs404(t *testing.T) {
	srv, _ := newTestServer(t, config.Default(t.TempDir()))

	rec := do(t, srv, http.MethodGet, "/nope.log")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "nope.log")
}

func TestServeLogTail(t *testing.T) {
	base := t.TempDir()
	var b strings.Builder
	for i := 0; i < 100; i++ {
		b.WriteString("line ")
		b.WriteString(strings.Repeat("x", 10))
		b.WriteString("\n")
	}
	writeFile(t, filepath.Join(base, "logs", "app.1.big.log"), b.String())
	writeFile(t, filepath.Join(base, "logs", "app.1.small.log"), "short\n")

	cfg := config.Default(base)
	cfg.MaxFileReadSize = 40
	srv, _ := newTestServer(t, cfg)

	rec := do(t, srv, http.MethodGet, "/logs/app.1.big.log")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "true", rec.Header().Get(HeaderPartialContent))
	// 40-byte window over 16-byte lines: drop the partial one, keep the rest.
	assert.Equal(t, "line xxxxxxxxxx\nline xxxxxxxxxx\n", rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/app.1.small.log")
	require.Equal(t, http.StatusOK, rec.Code, "resolved by filename through the catalog")
	assert.Equal(t, "false", rec.Header().Get(HeaderPartialContent))
	assert.Equal(t, "short\n", rec.Body.String())
	assert.Equal(t, "6", rec.Header().Get("Content-Length"))
}

func TestServeLogOutsideBaseByFilename(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "app")
	external := filepath.Join(root, "var")
	require.NoError(t, os.MkdirAll(base, 0o755))
	writeFile(t, filepath.Join(external, "worker.7.jobs.log"), "job done\n")

	cfg := config.Default(base)
	cfg.ScanPaths = []string{external}
	srv, svc := newTestServer(t, cfg)

	entry, ok := svc.Resolve("worker.7.jobs.log")
	require.True(t, ok)
	assert.Equal(t, "worker.7.jobs.log", entry.Path)

	rec := do(t, srv, http.MethodGet, "/worker.7.jobs.log")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "job done\n", rec.Body.String())
}

func TestServeStaticAssets(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "index.html"), "<h1>logs</h1>")
	writeFile(t, filepath.Join(base, "js", "app.js"), "console.log(1)")
	writeFile(t, filepath.Join(base, "blob.zzunknown"), "raw")
	srv, _ := newTestServer(t, config.Default(base))

	rec := do(t, srv, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Equal(t, "<h1>logs</h1>", rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/js/app.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")

	rec = do(t, srv, http.MethodGet, "/blob.zzunknown")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "raw", rec.Body.String())
}

func TestServeRejectsPathEscape(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "app")
	require.NoError(t, os.MkdirAll(base, 0o755))
	writeFile(t, filepath.Join(root, "secret.txt"), "top secret")
	srv, _ := newTestServer(t, config.Default(base))

	rec := do(t, srv, http.MethodGet, "/../secret.txt")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "top secret")
}

func TestServeDeletedLogIs404(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "gone.1.tmp.log")
	writeFile(t, path, "bye\n")
	srv, _ := newTestServer(t, config.Default(base))
	require.NoError(t, os.Remove(path))

	rec := do(t, srv, http.MethodGet, "/gone.1.tmp.log")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEndToEnd(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "logs", "service.42.requests.log"), "GET /\nGET /health\n")
	srv, _ := newTestServer(t, config.Default(base))

	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/logs")
	require.NoError(t, err)
	var logs LogsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&logs))
	_ = resp.Body.Close()
	require.Len(t, logs.Logs, 1)

	resp, err = http.Get(ts.URL + "/" + logs.Logs[0].Path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "false", resp.Header.Get(HeaderPartialContent))
}
