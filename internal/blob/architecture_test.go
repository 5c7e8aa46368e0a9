package blob

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestOnlyFacadesImportInfra ensures that only the blob and runlog facades
// wrap the infra-backed implementations. Other packages must depend on the
// facade interfaces instead of importing infra packages directly.
func TestOnlyFacadesImportInfra(t *testing.T) {
	rules := []struct {
		infraPrefix   string
		allowedPrefix string
	}{
		{infraPrefix: "astergen/internal/infra/blob", allowedPrefix: "astergen/internal/blob"},
		{infraPrefix: "astergen/internal/infra/persistence", allowedPrefix: "astergen/internal/runlog"},
	}

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "astergen/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})

	for _, rule := range rules {
		for _, pkg := range pkgs {
			if strings.HasPrefix(pkg.PkgPath, rule.allowedPrefix) {
				continue
			}
			if strings.HasPrefix(pkg.PkgPath, "astergen/internal/infra") {
				continue
			}
			for importPath := range pkg.Imports {
				if isInfraImport(importPath, rule.infraPrefix) {
					pos := filepath.Join(pkg.PkgPath, "...")
					seen[pos+": "+importPath] = struct{}{}
				}
			}
		}
	}

	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden import of infra package: %s", v)
		}
		t.Fatalf("found %d forbidden imports of infra packages", len(violations))
	}
}

func isInfraImport(importPath, prefix string) bool {
	return importPath == prefix || strings.HasPrefix(importPath, prefix+"/")
}
