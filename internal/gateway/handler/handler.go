package handler

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"

	"appforge/internal/jobs"
	"appforge/internal/metrics"
	"appforge/internal/prototype"
	"appforge/internal/safeio"
	"appforge/internal/util/jsonutil"
)

// bundleCacheSize bounds the in-memory cache of served bundle assets.
const bundleCacheSize = 256

// Service holds the HTTP surface's dependencies.
type Service struct {
	queue      *jobs.Queue
	prototypes *prototype.Builder
	mappings   *prototype.Store
	metrics    *metrics.Collector

	outputDir   string
	templateDir string

	publicFS   *safeio.SafeFS
	assetCache *lru.Cache[string, []byte]
	upgrader   websocket.Upgrader
}

type Options struct {
	Queue       *jobs.Queue
	Prototypes  *prototype.Builder
	Mappings    *prototype.Store
	Metrics     *metrics.Collector
	OutputDir   string
	TemplateDir string
	PublicFS    *safeio.SafeFS
}

func New(opts Options) (*Service, error) {
	cache, err := lru.New[string, []byte](bundleCacheSize)
	if err != nil {
		return nil, err
	}
	return &Service{
		queue:       opts.Queue,
		prototypes:  opts.Prototypes,
		mappings:    opts.Mappings,
		metrics:     opts.Metrics,
		outputDir:   opts.OutputDir,
		templateDir: opts.TemplateDir,
		publicFS:    opts.PublicFS,
		assetCache:  cache,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}, nil
}

// Routes builds the canonical route set.
func (s *Service) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /build", s.handleBuild)
	mux.HandleFunc("POST /validate", s.handleValidate)
	mux.HandleFunc("POST /prototype/build", s.handlePrototypeBuild)
	mux.HandleFunc("GET /prototype/status/{jobId}", s.handleStatus)
	mux.HandleFunc("GET /prototype/watch/{jobId}", s.handleWatch)
	mux.HandleFunc("GET /prototype/metadata/{uuid}", s.handleMetadata)
	mux.HandleFunc("GET /prototypes/{uuid}", s.handleViewer)
	mux.HandleFunc("GET /prototypes/{uuid}/", s.handleViewer)
	mux.HandleFunc("GET /prototypes/{uuid}/bundle/{asset...}", s.handleBundleAsset)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return recoverPanics(mux)
}

// recoverPanics converts an unexpected panic into a generic 500 with no
// stack trace in the response.
func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				writeJSON(w, http.StatusInternalServerError, map[string]any{
					"success": false,
					"error":   "internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	raw, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		log.Printf("encode response: %v", err)
		http.Error(w, `{"success":false,"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}
