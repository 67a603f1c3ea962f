package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"appforge/internal/prototype"
	"appforge/internal/util/jsonutil"
)

// prototypeRequest mirrors prototype.Request but tolerates a string-wrapped
// fullAppConfig, which the plugin bridge produces.
type prototypeRequest struct {
	FigmaFileID   string          `json:"figmaFileId"`
	FigmaFileName string          `json:"figmaFileName"`
	FigmaPageName string          `json:"figmaPageName"`
	AppName       string          `json:"appName"`
	FullAppConfig json.RawMessage `json:"fullAppConfig"`
}

// handlePrototypeBuild accepts an async build. The 202 only confirms the
// job started; every later failure surfaces through the status endpoint.
func (s *Service) handlePrototypeBuild(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "cannot read request body",
		})
		return
	}
	var raw prototypeRequest
	if err := jsonutil.UnmarshalFlex(body, &raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid JSON body",
			"details": err.Error(),
		})
		return
	}

	req := prototype.Request{
		FigmaFileID:   raw.FigmaFileID,
		FigmaFileName: raw.FigmaFileName,
		FigmaPageName: raw.FigmaPageName,
		AppName:       raw.AppName,
	}
	if len(raw.FullAppConfig) > 0 {
		if err := jsonutil.UnmarshalFlex(raw.FullAppConfig, &req.FullAppConfig); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "fullAppConfig is not valid JSON",
				"details": err.Error(),
			})
			return
		}
	}

	jobID, err := s.prototypes.StartBuild(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"jobId":         jobID,
		"status":        "building",
		"estimatedTime": prototype.EstimatedTime,
	})
}

// handleStatus is the polling endpoint for async builds.
func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")
	job, ok := s.queue.Get(jobID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": "Job not found",
			"jobId": jobID,
		})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleMetadata exposes the persisted mapping for a prototype.
func (s *Service) handleMetadata(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("uuid")
	m, ok := s.mappings.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": "Prototype not found",
			"uuid":  id,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"uuid":        id,
		"path":        m.Path,
		"figmaFileId": m.FigmaFileID,
		"createdAt":   m.CreatedAt,
		"views":       m.Views,
		"lastViewed":  m.LastViewed,
	})
}
