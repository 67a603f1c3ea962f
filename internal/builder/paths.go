package builder

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Sanitize lowercases a path segment and replaces anything outside
// [a-z0-9-_] with a dash, so Figma file/page/app names become safe
// directory names.
func Sanitize(segment string) string {
	lower := strings.ToLower(strings.TrimSpace(segment))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, lower)
}

// OutputPath computes the build's output directory for the given build
// type. Local builds land under the configured base; prototype builds
// assemble in a temp directory inside the public prototypes hierarchy.
func (o *Options) OutputPath() (string, error) {
	switch o.BuildType {
	case BuildLocal:
		if o.OutputBase == "" {
			return "", fmt.Errorf("output base directory is not configured")
		}
		return filepath.Join(o.OutputBase, o.AppName), nil
	case BuildPrototype:
		if o.PublicRoot == "" {
			return "", fmt.Errorf("public prototypes root is not configured")
		}
		return filepath.Join(o.PublicRoot,
			Sanitize(o.FigmaFileName),
			Sanitize(o.FigmaPageName),
			Sanitize(o.AppName),
			"temp"), nil
	default:
		return "", fmt.Errorf("unknown build type %q", o.BuildType)
	}
}
