package app

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"appforge/internal/artifact"
	"appforge/internal/bundler"
	"appforge/internal/gateway/config"
	"appforge/internal/gateway/handler"
	"appforge/internal/gateway/middleware"
	"appforge/internal/jobs"
	"appforge/internal/metrics"
	"appforge/internal/prototype"
	"appforge/internal/safeio"
)

// Terminal jobs stay pollable for an hour, then the sweeper removes them.
const (
	jobRetention  = time.Hour
	sweepInterval = 10 * time.Minute
)

// App wires the whole gateway together.
type App struct {
	Handler http.Handler
	Queue   *jobs.Queue

	devServer *bundler.DevServer
	stop      chan struct{}
}

func New(cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.PublicRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create public root: %w", err)
	}
	publicFS, err := safeio.NewSafeFS(cfg.PublicRoot)
	if err != nil {
		return nil, fmt.Errorf("public root: %w", err)
	}

	queue := jobs.NewQueue()
	collector := metrics.NewCollector()
	mappings := prototype.NewFromEnv(filepath.Join(cfg.PublicRoot, "mappings.json"))

	devServer := &bundler.DevServer{}
	var adapter bundler.Adapter
	switch cfg.Bundler {
	case "expo-export":
		adapter = &bundler.ExportAdapter{Timeout: cfg.ExportTimeout}
	case "expo-dev-server":
		adapter = &bundler.DevServerAdapter{Server: devServer}
	default:
		adapter = &bundler.ESBuildAdapter{Minify: true}
	}

	var mirror artifact.Mirror = artifact.NopMirror{}
	if cfg.Artifact.Enabled {
		s3, err := artifact.NewS3Mirror(artifact.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		})
		if err != nil {
			log.Printf("artifact mirror disabled: %v", err)
		} else {
			mirror = s3
		}
	}

	builds := &prototype.Builder{
		Queue:       queue,
		Mappings:    mappings,
		Bundler:     adapter,
		Mirror:      mirror,
		Metrics:     collector,
		PublicRoot:  cfg.PublicRoot,
		TemplateDir: cfg.TemplateDir,
	}

	svc, err := handler.New(handler.Options{
		Queue:       queue,
		Prototypes:  builds,
		Mappings:    mappings,
		Metrics:     collector,
		OutputDir:   cfg.OutputDir,
		TemplateDir: cfg.TemplateDir,
		PublicFS:    publicFS,
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		Handler:   middleware.CORS(svc.Routes()),
		Queue:     queue,
		devServer: devServer,
		stop:      make(chan struct{}),
	}
	go a.sweep()
	return a, nil
}

// sweep periodically removes terminal jobs past the retention window.
func (a *App) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if removed := a.Queue.ClearOld(jobRetention); removed > 0 {
				log.Printf("swept %d finished jobs", removed)
			}
		case <-a.stop:
			return
		}
	}
}

// Close stops background work and the dev server, if one is running.
func (a *App) Close() {
	close(a.stop)
	if err := a.devServer.Stop(); err != nil {
		log.Printf("stop dev server: %v", err)
	}
}
