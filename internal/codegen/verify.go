package codegen

import (
	"fmt"
	"os"
	"strings"
)

// VerifyGenerated confirms that every claimed-written file exists and is
// non-empty. Generation records successes optimistically; this pass catches
// silent truncation.
func VerifyGenerated(written []string) error {
	for _, path := range written {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("generated file missing: %s", path)
		}
		if info.Size() == 0 {
			return fmt.Errorf("generated file is empty: %s", path)
		}
	}
	return nil
}

// VerifyRouterImports checks that a router file imports exactly as many
// modules as it declares routes (the synthetic home entry imports nothing).
// A mismatch means the generation tables drifted apart.
func VerifyRouterImports(routerPath string, wantImports int) error {
	raw, err := os.ReadFile(routerPath)
	if err != nil {
		return fmt.Errorf("read router: %w", err)
	}
	imports := 0
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "import ") {
			imports++
		}
	}
	if imports != wantImports {
		return fmt.Errorf("router %s imports %d modules, want %d", routerPath, imports, wantImports)
	}
	return nil
}
