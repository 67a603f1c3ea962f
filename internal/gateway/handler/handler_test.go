package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"appforge/internal/bundler"
	"appforge/internal/jobs"
	"appforge/internal/metrics"
	"appforge/internal/prototype"
	"appforge/internal/safeio"
)

type staticBundler struct{}

func (staticBundler) Name() string { return "static" }

func (staticBundler) Bundle(ctx context.Context, projectDir, outDir string, progress bundler.ProgressFunc) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, "index.html"), []byte("<html>bundle</html>"), 0o644)
}

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	public := t.TempDir()
	template := t.TempDir()
	if err := os.WriteFile(filepath.Join(template, "app.json"),
		[]byte(`{"expo":{"name":"t","slug":"t"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	publicFS, err := safeio.NewSafeFS(public)
	if err != nil {
		t.Fatal(err)
	}
	queue := jobs.NewQueue()
	mappings := prototype.NewStore(filepath.Join(public, "mappings.json"))
	collector := metrics.NewCollector()

	svc, err := New(Options{
		Queue: queue,
		Prototypes: &prototype.Builder{
			Queue:       queue,
			Mappings:    mappings,
			Bundler:     staticBundler{},
			Metrics:     collector,
			PublicRoot:  public,
			TemplateDir: template,
		},
		Mappings:    mappings,
		Metrics:     collector,
		OutputDir:   t.TempDir(),
		TemplateDir: template,
		PublicFS:    publicFS,
	})
	if err != nil {
		t.Fatal(err)
	}
	return svc, public
}

func validConfig() map[string]any {
	return map[string]any{
		"appName":  "demo",
		"appFrame": map[string]any{"brand": "acme", "mode": "light", "apiBase": "x"},
		"components": []any{
			map[string]any{
				"nodeId":        "1:1",
				"componentName": "Section",
				"properties": map[string]any{
					"id": "summary", "sectionType": "main-carousel",
					"isHome": true, "sectionHomeOption": "summary",
				},
			},
		},
	}
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func getPath(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v: %s", err, rec.Body.String())
	}
	return out
}

func TestBuildEndpoint(t *testing.T) {
	svc, _ := newTestService(t)
	h := svc.Routes()

	rec := postJSON(t, h, "/build", map[string]any{"config": validConfig()})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatalf("success missing: %v", body)
	}
	if body["buildId"] == "" || body["appPath"] == "" {
		t.Fatalf("buildId/appPath missing: %v", body)
	}
}

func TestBuildEndpointValidationFailure(t *testing.T) {
	svc, _ := newTestService(t)
	h := svc.Routes()

	rec := postJSON(t, h, "/build", map[string]any{
		"config": map[string]any{"appName": "demo"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != false {
		t.Fatalf("expected failure body: %v", body)
	}
	if _, ok := body["validationErrors"]; !ok {
		t.Fatal("validationErrors missing")
	}
}

func TestValidateEndpointAlwaysReturns200(t *testing.T) {
	svc, _ := newTestService(t)
	h := svc.Routes()

	rec := postJSON(t, h, "/validate", validConfig())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["valid"] != true {
		t.Fatalf("valid config rejected: %v", body)
	}

	rec = postJSON(t, h, "/validate", map[string]any{"appName": "x"})
	if rec.Code != http.StatusOK {
		t.Fatalf("invalid config must still return 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["valid"] != false {
		t.Fatalf("invalid config accepted: %v", body)
	}
}

func TestPrototypeBuildAndStatus(t *testing.T) {
	svc, public := newTestService(t)
	h := svc.Routes()

	rec := postJSON(t, h, "/prototype/build", map[string]any{
		"figmaFileId":   "fig-1",
		"figmaFileName": "File",
		"figmaPageName": "Page",
		"appName":       "demo",
		"fullAppConfig": validConfig(),
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	accepted := decodeBody(t, rec)
	jobID, _ := accepted["jobId"].(string)
	if jobID == "" || accepted["status"] != "building" {
		t.Fatalf("unexpected 202 body: %v", accepted)
	}

	var final map[string]any
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := getPath(t, h, "/prototype/status/"+jobID)
		if rec.Code != http.StatusOK {
			t.Fatalf("status endpoint: %d", rec.Code)
		}
		final = decodeBody(t, rec)
		if final["status"] == "complete" || final["status"] == "error" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if final["status"] != "complete" {
		t.Fatalf("job did not complete: %v", final)
	}
	result, _ := final["result"].(map[string]any)
	url, _ := result["prototypeUrl"].(string)
	if !strings.HasPrefix(url, "/prototypes/") {
		t.Fatalf("prototypeUrl: %v", final)
	}

	// Viewer increments views and serves HTML.
	rec = getPath(t, h, url)
	if rec.Code != http.StatusOK {
		t.Fatalf("viewer: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("viewer content type: %q", ct)
	}

	rec = getPath(t, h, url+"/bundle/index.html")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "bundle") {
		t.Fatalf("bundle asset: %d %s", rec.Code, rec.Body.String())
	}

	id := strings.TrimPrefix(url, "/prototypes/")
	rec = getPath(t, h, "/prototype/metadata/"+id)
	if rec.Code != http.StatusOK {
		t.Fatalf("metadata: %d", rec.Code)
	}
	meta := decodeBody(t, rec)
	if meta["views"] != float64(1) {
		t.Fatalf("views = %v, want 1", meta["views"])
	}
	_ = public
}

func TestBundleAssetCacheRefreshesAfterRebuild(t *testing.T) {
	svc, public := newTestService(t)
	h := svc.Routes()

	bundleDir := filepath.Join(public, "file", "page", "app", "bundle")
	if err := os.MkdirAll(bundleDir, 0o755); err != nil {
		t.Fatal(err)
	}
	assetPath := filepath.Join(bundleDir, "main.js")
	if err := os.WriteFile(assetPath, []byte("console.log('one');"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := svc.mappings.Put("proto-1", prototype.Mapping{
		Path:      "file/page/app",
		CreatedAt: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	rec := getPath(t, h, "/prototypes/proto-1/bundle/main.js")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "one") {
		t.Fatalf("first read: %d %s", rec.Code, rec.Body.String())
	}

	// A rebuild replaces the file; the next read must not serve the cached
	// bytes from before.
	if err := os.WriteFile(assetPath, []byte("console.log('two');"), 0o644); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(assetPath, later, later); err != nil {
		t.Fatal(err)
	}

	rec = getPath(t, h, "/prototypes/proto-1/bundle/main.js")
	if rec.Code != http.StatusOK {
		t.Fatalf("second read: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "two") {
		t.Fatalf("stale bundle served after rebuild: %s", rec.Body.String())
	}
}

func TestStatusUnknownJob(t *testing.T) {
	svc, _ := newTestService(t)
	h := svc.Routes()

	rec := getPath(t, h, "/prototype/status/never-created")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "Job not found" || body["jobId"] != "never-created" {
		t.Fatalf("404 body: %v", body)
	}
}

func TestViewerUnknownUUIDServes404Page(t *testing.T) {
	svc, _ := newTestService(t)
	h := svc.Routes()

	rec := getPath(t, h, "/prototypes/no-such-uuid")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "404") {
		t.Fatal("expected the 404 page body")
	}
}

func TestMetadataUnknownUUID(t *testing.T) {
	svc, _ := newTestService(t)
	h := svc.Routes()
	if rec := getPath(t, h, "/prototype/metadata/nope"); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	svc, _ := newTestService(t)
	if rec := getPath(t, svc.Routes(), "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	svc, _ := newTestService(t)
	rec := getPath(t, svc.Routes(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "appforge_builds_started_total") {
		t.Fatal("collector metrics missing from exposition")
	}
}

func TestWatchStreamsJobStates(t *testing.T) {
	svc, _ := newTestService(t)
	srv := httptest.NewServer(svc.Routes())
	defer srv.Close()

	jobID := "watch-job"
	if _, err := svc.queue.Create(jobID); err != nil {
		t.Fatal(err)
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/prototype/watch/" + jobID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := svc.queue.Start(jobID); err != nil {
		t.Fatal(err)
	}
	if err := svc.queue.Complete(jobID, jobs.Result{PrototypeURL: "/prototypes/x"}); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	sawComplete := false
	for !sawComplete {
		var job jobs.Job
		if err := conn.ReadJSON(&job); err != nil {
			t.Fatalf("stream ended before terminal state: %v", err)
		}
		if job.Status == jobs.StatusComplete {
			sawComplete = true
		}
	}
}
