package codegen

import (
	"fmt"
	"os"
	"path/filepath"

	"appforge/internal/routes"
	"appforge/internal/util/jsonutil"
)

const generatedHeader = "// Generated by appforge. Do not edit.\n"

// FileFailure records one file that could not be written. Generation keeps
// going past individual failures so a single bad path does not hide the
// rest.
type FileFailure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// GenResult lists what a generation pass wrote and what it could not.
type GenResult struct {
	Written []string      `json:"written"`
	Failed  []FileFailure `json:"failed,omitempty"`
}

// OK reports whether every attempted file was written.
func (r *GenResult) OK() bool {
	return len(r.Failed) == 0
}

func (r *GenResult) record(path string, err error) {
	if err != nil {
		r.Failed = append(r.Failed, FileFailure{Path: path, Err: err.Error()})
		return
	}
	r.Written = append(r.Written, path)
}

// ModuleFileName returns the kebab-case file name for a route's screen
// module.
func ModuleFileName(route routes.Route) string {
	return KebabCase(route.ID) + ".js"
}

// GenerateModules writes one screen-module file per route into modulesDir.
// Each module renders the shared ScreenBuilder primitive configured from
// the component's stored properties.
func GenerateModules(allRoutes []routes.Route, modulesDir string) *GenResult {
	res := &GenResult{}
	if err := os.MkdirAll(modulesDir, 0o755); err != nil {
		res.Failed = append(res.Failed, FileFailure{Path: modulesDir, Err: err.Error()})
		return res
	}
	for _, route := range allRoutes {
		path := filepath.Join(modulesDir, ModuleFileName(route))
		res.record(path, writeModule(path, route))
	}
	return res
}

func writeModule(path string, route routes.Route) error {
	config := map[string]any{
		"id":    route.ID,
		"name":  route.Name,
		"title": route.Title,
	}
	if comp := route.Component; comp != nil {
		config["sectionType"] = comp.SectionType
		config["properties"] = comp.Properties
		if comp.JourneyConfig != nil {
			config["journey"] = comp.JourneyConfig
		}
	}
	configJSON, err := jsonutil.MarshalNoEscapeIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("encode screen config: %w", err)
	}

	componentName := PascalCase(route.ID)
	src := generatedHeader +
		"import React from 'react';\n" +
		"import ScreenBuilder from '../components/ScreenBuilder';\n" +
		"\n" +
		"const config = " + string(configJSON) + ";\n" +
		"\n" +
		"export default function " + componentName + "() {\n" +
		"  return <ScreenBuilder config={config} />;\n" +
		"}\n"

	return os.WriteFile(path, []byte(src), 0o644)
}
