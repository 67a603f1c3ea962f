package builder

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"appforge/internal/appconfig"
	"appforge/internal/codegen"
	"appforge/internal/metrics"
	"appforge/internal/routes"
)

// BuildType selects the output layout.
type BuildType string

const (
	BuildLocal     BuildType = "local"
	BuildPrototype BuildType = "prototype"
)

// Options configures one build. RawConfig is the decoded fullAppConfig
// document straight from the plugin.
type Options struct {
	BuildType BuildType
	RawConfig map[string]any

	OutputBase  string // local builds: base directory
	PublicRoot  string // prototype builds: public prototypes root
	TemplateDir string

	FigmaFileName string
	FigmaPageName string

	DryRun bool

	Metrics *metrics.Collector

	// AppName names the output app directory. Leave empty to use the parsed
	// config's appName; the prototype builder sets it so the temp tree lands
	// in the same app directory it prepared.
	AppName string
}

// Summary aggregates counts and warnings across all phases of a successful
// build.
type Summary struct {
	Components        int      `json:"components"`
	CarouselRoutes    int      `json:"carouselRoutes"`
	BottomNavRoutes   int      `json:"bottomNavRoutes"`
	ChildRoutes       int      `json:"childRoutes"`
	DuplicatesHandled int      `json:"duplicatesHandled"`
	GeneratedFiles    int      `json:"generatedFiles"`
	Warnings          []string `json:"warnings"`
}

// Result is the outcome of one ExecuteBuild call. Phase failures are
// reported here, never raised: the first failing phase stops the pipeline
// and its error lands in Error/Details.
type Result struct {
	Success          bool               `json:"success"`
	AppName          string             `json:"appName,omitempty"`
	OutputPath       string             `json:"appPath,omitempty"`
	Summary          *Summary           `json:"summary,omitempty"`
	Error            string             `json:"error,omitempty"`
	Details          string             `json:"details,omitempty"`
	ValidationErrors []appconfig.Issue  `json:"validationErrors,omitempty"`
	Categorised      *routes.Categorised `json:"-"`
}

func failure(phase, detail string, issues []appconfig.Issue) *Result {
	return &Result{
		Success:          false,
		Error:            phase,
		Details:          detail,
		ValidationErrors: issues,
	}
}

// ExecuteBuild runs the five-phase pipeline: parse & validate, categorise,
// copy template, generate modules, generate routers. Each phase gates the
// next; files written before a failing phase stay on disk (no rollback).
func ExecuteBuild(opts Options) *Result {
	started := time.Now()
	opts.Metrics.RecordBuildStarted()

	res := executeBuild(&opts)
	if res.Success {
		opts.Metrics.RecordBuildCompleted(time.Since(started).Seconds())
	} else {
		opts.Metrics.RecordBuildFailed()
	}
	return res
}

func executeBuild(opts *Options) *Result {
	// Phase 1: parse & validate.
	parsed := appconfig.Parse(opts.RawConfig)
	if !parsed.Success {
		return failure("config validation failed", "", parsed.Errors())
	}
	if opts.AppName == "" {
		opts.AppName = parsed.AppName
	}

	warnings := issueMessages(parsed.Warnings())

	// Phase 2: categorise.
	cat := routes.Categorise(parsed.Components)
	if !cat.Success {
		return failure("categorisation failed", "", cat.Issues)
	}
	warnings = append(warnings, issueMessages(filterWarnings(cat.Issues))...)

	all := cat.Categorised.AllRoutes()
	generatedFiles := len(all)*2 + 3 // one module + its router entry per route, three router files

	outPath, err := opts.OutputPath()
	if err != nil {
		return failure("output path", err.Error(), nil)
	}

	summary := &Summary{
		Components:        len(parsed.Components),
		CarouselRoutes:    cat.Summary.CarouselRoutes,
		BottomNavRoutes:   cat.Summary.BottomNavRoutes,
		ChildRoutes:       cat.Summary.ChildRoutes,
		DuplicatesHandled: cat.Summary.DuplicatesHandled,
		GeneratedFiles:    generatedFiles,
		Warnings:          warnings,
	}

	if opts.DryRun {
		log.Printf("dry run for %s: %d routes, %d files would be generated", parsed.AppName, len(all), generatedFiles)
		return &Result{
			Success:     true,
			AppName:     parsed.AppName,
			OutputPath:  outPath,
			Summary:     summary,
			Categorised: &cat.Categorised,
		}
	}

	// Phase 3: copy template.
	if _, err := codegen.CopyTemplate(opts.TemplateDir, outPath, parsed.AppName); err != nil {
		return failure("template copy failed", err.Error(), nil)
	}

	modulesDir := filepath.Join(outPath, "src", "modules")
	navDir := filepath.Join(outPath, "src", "navigation")

	// Phase 4: generate screen modules.
	modRes := codegen.GenerateModules(all, modulesDir)
	if !modRes.OK() {
		return failure("module generation failed", genFailureDetail(modRes), nil)
	}

	// Phase 5: generate routers.
	routerRes := codegen.GenerateRouters(&cat.Categorised, navDir, modulesDir)
	if !routerRes.OK() {
		return failure("router generation failed", genFailureDetail(routerRes), nil)
	}

	if err := codegen.VerifyGenerated(append(modRes.Written, routerRes.Written...)); err != nil {
		return failure("generation verification failed", err.Error(), nil)
	}
	for file, count := range map[string]int{
		"carouselRoutes.js":  len(cat.Categorised.Carousel),
		"bottomNavRoutes.js": len(cat.Categorised.BottomNav),
		"childRoutes.js":     len(cat.Categorised.Child),
	} {
		if err := codegen.VerifyRouterImports(filepath.Join(navDir, file), count); err != nil {
			return failure("generation verification failed", err.Error(), nil)
		}
	}

	log.Printf("build %s complete: %d routes, %d files at %s", parsed.AppName, len(all), generatedFiles, outPath)
	return &Result{
		Success:     true,
		AppName:     parsed.AppName,
		OutputPath:  outPath,
		Summary:     summary,
		Categorised: &cat.Categorised,
	}
}

func genFailureDetail(res *codegen.GenResult) string {
	if len(res.Failed) == 0 {
		return ""
	}
	return fmt.Sprintf("%s: %s", res.Failed[0].Path, res.Failed[0].Err)
}

func filterWarnings(issues []appconfig.Issue) []appconfig.Issue {
	var out []appconfig.Issue
	for _, issue := range issues {
		if issue.Type == appconfig.IssueWarning {
			out = append(out, issue)
		}
	}
	return out
}

func issueMessages(issues []appconfig.Issue) []string {
	var out []string
	for _, issue := range issues {
		out = append(out, issue.Message)
	}
	return out
}
