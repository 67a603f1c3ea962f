package prototype

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"appforge/internal/artifact"
	"appforge/internal/builder"
	"appforge/internal/bundler"
	"appforge/internal/jobs"
	"appforge/internal/metrics"
	"appforge/internal/util/jsonutil"
)

// Request is the body of a prototype build call. All fields are required.
type Request struct {
	FigmaFileID   string         `json:"figmaFileId"`
	FigmaFileName string         `json:"figmaFileName"`
	FigmaPageName string         `json:"figmaPageName"`
	AppName       string         `json:"appName"`
	FullAppConfig map[string]any `json:"fullAppConfig"`
}

func (r *Request) validate() error {
	switch {
	case strings.TrimSpace(r.FigmaFileID) == "":
		return fmt.Errorf("figmaFileId is required")
	case strings.TrimSpace(r.FigmaFileName) == "":
		return fmt.Errorf("figmaFileName is required")
	case strings.TrimSpace(r.FigmaPageName) == "":
		return fmt.Errorf("figmaPageName is required")
	case strings.TrimSpace(r.AppName) == "":
		return fmt.Errorf("appName is required")
	case len(r.FullAppConfig) == 0:
		return fmt.Errorf("fullAppConfig is required")
	}
	return nil
}

// Builder runs asynchronous prototype builds: one goroutine per request,
// state tracked in the job queue, outcome reachable only through status
// polling. The initiating call never reports build failures.
type Builder struct {
	Queue       *jobs.Queue
	Mappings    *Store
	Bundler     bundler.Adapter
	Mirror      artifact.Mirror
	Metrics     *metrics.Collector
	PublicRoot  string
	TemplateDir string
}

// EstimatedTime is the advisory duration returned when a job is accepted.
const EstimatedTime = "30-60 seconds"

// StartBuild validates the request, registers a job, and fires the build
// goroutine. The returned job id is immediately pollable.
func (b *Builder) StartBuild(req Request) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}
	jobID := uuid.NewString()
	if _, err := b.Queue.Create(jobID); err != nil {
		return "", err
	}
	go b.run(jobID, req)
	return jobID, nil
}

// run is the whole async chain. Any error or panic along the way lands in
// FailJob; nothing escapes to the caller.
func (b *Builder) run(jobID string, req Request) {
	started := time.Now()
	b.Metrics.RecordJobStarted()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("prototype job %s panicked: %v", jobID, r)
			b.fail(jobID, fmt.Sprintf("internal error: %v", r), "INTERNAL_ERROR", false)
		}
	}()

	if err := b.Queue.Start(jobID); err != nil {
		log.Printf("prototype job %s: %v", jobID, err)
		// The job never ran; release the active slot.
		b.Metrics.RecordJobFailed()
		return
	}

	res, err := b.build(jobID, req)
	if err != nil {
		log.Printf("prototype job %s failed: %v", jobID, err)
		b.fail(jobID, err.Error(), errorCode(err), retryable(err))
		return
	}

	buildTime := time.Since(started).Round(time.Second)
	if err := b.Queue.Complete(jobID, jobs.Result{
		PrototypeURL: "/prototypes/" + res.uuid,
		BuildTime:    buildTime.String(),
	}); err != nil {
		// The build itself succeeded; only the record could not be updated.
		log.Printf("prototype job %s: %v", jobID, err)
		b.Metrics.RecordJobCompleted()
		return
	}
	b.Metrics.RecordJobCompleted()
	log.Printf("prototype job %s complete: %s in %s", jobID, res.uuid, buildTime)
}

type buildOutcome struct {
	uuid string
}

func (b *Builder) build(jobID string, req Request) (*buildOutcome, error) {
	ctx := context.Background()
	progress := func(percent int, step string) {
		if err := b.Queue.UpdateProgress(jobID, percent, step); err != nil {
			log.Printf("prototype job %s: %v", jobID, err)
		}
	}

	// Directory layout: public/<file>/<page>/<app>/{fullAppConfig.json,
	// temp/, bundle/, index.html}.
	relPath := filepath.Join(
		builder.Sanitize(req.FigmaFileName),
		builder.Sanitize(req.FigmaPageName),
		builder.Sanitize(req.AppName),
	)
	appDir := filepath.Join(b.PublicRoot, relPath)

	progress(5, "preparing directories")
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		return nil, fmt.Errorf("create prototype dir: %w", err)
	}

	raw, err := jsonutil.MarshalNoEscapeIndent(req.FullAppConfig, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("persist config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(appDir, "fullAppConfig.json"), raw, 0o644); err != nil {
		return nil, fmt.Errorf("persist config: %w", err)
	}

	progress(15, "generating application")
	res := builder.ExecuteBuild(builder.Options{
		BuildType:     builder.BuildPrototype,
		RawConfig:     req.FullAppConfig,
		PublicRoot:    b.PublicRoot,
		TemplateDir:   b.TemplateDir,
		FigmaFileName: req.FigmaFileName,
		FigmaPageName: req.FigmaPageName,
		// Keep the temp tree inside the app directory prepared above even
		// when the config's appName differs from the requested one.
		AppName: req.AppName,
		Metrics: b.Metrics,
	})
	if !res.Success {
		detail := res.Error
		if res.Details != "" {
			detail += ": " + res.Details
		}
		if len(res.ValidationErrors) > 0 {
			return nil, &validationError{msg: detail}
		}
		return nil, fmt.Errorf("%s", detail)
	}
	tempDir := res.OutputPath

	progress(40, "bundling prototype")
	bundleDir := filepath.Join(appDir, "bundle")
	bundleProgress := func(percent int, step string) {
		// Map the adapter's 0-100 range into the 40-80 slice of the job.
		progress(40+percent*40/100, step)
	}
	if err := b.Bundler.Bundle(ctx, tempDir, bundleDir, bundleProgress); err != nil {
		return nil, &bundleError{err: err}
	}

	progress(85, "writing viewer")
	page, err := RenderViewer(res.AppName)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(appDir, "index.html"), page, 0o644); err != nil {
		return nil, fmt.Errorf("write viewer: %w", err)
	}

	progress(92, "registering prototype")
	id := uuid.NewString()
	if err := b.Mappings.Put(id, Mapping{
		Path:        filepath.ToSlash(relPath),
		FigmaFileID: req.FigmaFileID,
		CreatedAt:   time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("record mapping: %w", err)
	}

	progress(96, "cleaning up")
	if err := os.RemoveAll(tempDir); err != nil {
		log.Printf("prototype job %s: remove temp dir: %v", jobID, err)
	}

	if b.Mirror != nil {
		// Best effort; a mirror failure never fails the build.
		go func() {
			if err := b.Mirror.MirrorDir(context.Background(), relPath, bundleDir); err != nil {
				log.Printf("prototype job %s: mirror bundle: %v", jobID, err)
			}
		}()
	}

	return &buildOutcome{uuid: id}, nil
}

func (b *Builder) fail(jobID, message, code string, canRetry bool) {
	if err := b.Queue.Fail(jobID, message, code, canRetry); err != nil {
		log.Printf("prototype job %s: %v", jobID, err)
	}
	b.Metrics.RecordJobFailed()
}

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

type bundleError struct{ err error }

func (e *bundleError) Error() string { return "bundling failed: " + e.err.Error() }
func (e *bundleError) Unwrap() error { return e.err }

func errorCode(err error) string {
	switch err.(type) {
	case *validationError:
		return "VALIDATION_FAILED"
	case *bundleError:
		return "BUNDLE_FAILED"
	default:
		return "BUILD_FAILED"
	}
}

func retryable(err error) bool {
	_, validation := err.(*validationError)
	return !validation
}
