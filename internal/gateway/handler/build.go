package handler

import (
	"io"
	"net/http"

	"github.com/google/uuid"

	"appforge/internal/appconfig"
	"appforge/internal/builder"
	"appforge/internal/routes"
	"appforge/internal/util/jsonutil"
)

type buildRequest struct {
	Config     map[string]any `json:"config"`
	TargetPath string         `json:"targetPath"`
	Options    struct {
		DryRun bool `json:"dryRun"`
	} `json:"options"`
}

// handleBuild runs a synchronous local build.
func (s *Service) handleBuild(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "cannot read request body",
		})
		return
	}
	var req buildRequest
	if err := jsonutil.UnmarshalFlex(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid JSON body",
			"details": err.Error(),
		})
		return
	}
	if len(req.Config) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "config is required",
		})
		return
	}

	outputBase := s.outputDir
	if req.TargetPath != "" {
		outputBase = req.TargetPath
	}

	res := builder.ExecuteBuild(builder.Options{
		BuildType:   builder.BuildLocal,
		RawConfig:   req.Config,
		OutputBase:  outputBase,
		TemplateDir: s.templateDir,
		DryRun:      req.Options.DryRun,
		Metrics:     s.metrics,
	})
	if !res.Success {
		status := http.StatusInternalServerError
		if len(res.ValidationErrors) > 0 {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]any{
			"success":          false,
			"error":            res.Error,
			"details":          res.Details,
			"validationErrors": res.ValidationErrors,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"buildId": uuid.NewString(),
		"appPath": res.OutputPath,
		"summary": res.Summary,
	})
}

// handleValidate checks a raw config without writing anything. Validity is
// communicated in-body; the response is always 200.
func (s *Service) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"valid":  false,
			"errors": []string{"cannot read request body"},
		})
		return
	}

	parsed := appconfig.ParseJSON(body)
	resp := map[string]any{
		"valid":    parsed.Success,
		"errors":   issueMessages(parsed.Errors()),
		"warnings": issueMessages(parsed.Warnings()),
	}
	if parsed.Success {
		cat := routes.Categorise(parsed.Components)
		resp["summary"] = map[string]any{
			"appName":         parsed.AppName,
			"components":      len(parsed.Components),
			"carouselRoutes":  cat.Summary.CarouselRoutes,
			"bottomNavRoutes": cat.Summary.BottomNavRoutes,
			"childRoutes":     cat.Summary.ChildRoutes,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func issueMessages(issues []appconfig.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.Message)
	}
	return out
}
