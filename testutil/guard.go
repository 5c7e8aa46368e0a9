// Package testutil provides test helpers enforcing the import boundaries of
// the translator: the model stays free of the pipeline, and the pipeline
// stays free of storage backends.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// AssertNoTransitiveDependency runs `go list -deps` on pattern and fails the
// test when a dependency matches forbidden.
func AssertNoTransitiveDependency(t testing.TB, pattern string, forbidden func(path string) bool, reason string) {
	t.Helper()
	viols, out, err := transitiveDependencyViolations(pattern, forbidden)
	if err != nil {
		t.Fatalf("go list failed: %v\n%s", err, string(out))
	}
	failIf(t, "forbidden transitive dependency", reason, viols)
}

// AssertNoDirectImports fails when a non-test file of dir imports a path
// matching forbidden. Build tags are ignored.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	failIf(t, "forbidden direct imports", reason, viols)
}

// InternalImportForbidden matches any path below an internal directory.
func InternalImportForbidden(path string) bool {
	return strings.Contains(path, "/internal/")
}

var storagePrefixes = []string{
	"astergen/internal/infra",
	"astergen/internal/blob",
	"astergen/internal/runlog",
	"github.com/aws/",
	"github.com/jackc/pgx",
	"modernc.org/sqlite",
}

// StorageImportForbidden matches the artifact sink, the run history and the
// drivers behind them.
func StorageImportForbidden(path string) bool {
	for _, p := range storagePrefixes {
		if path == p || strings.HasPrefix(path, p+"/") || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

var goListDeps = func(pattern string) ([]byte, error) {
	cmd := exec.Command("go", "list", "-deps", pattern)
	return cmd.CombinedOutput()
}

func transitiveDependencyViolations(pattern string, forbidden func(path string) bool) ([]string, []byte, error) {
	out, err := goListDeps(pattern)
	if err != nil {
		return nil, out, err
	}
	var viols []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && forbidden(line) {
			viols = append(viols, line)
		}
	}
	return viols, out, nil
}

func directImportViolations(dir string, forbidden func(importPath string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		fileAst, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range fileAst.Imports {
			ip := strings.Trim(imp.Path.Value, "\"")
			if forbidden(ip) {
				viols = append(viols, ip+" (in "+name+")")
			}
		}
	}
	return viols, nil
}

type fatalLogger interface {
	Fatalf(format string, args ...any)
}

func failIf(t fatalLogger, what, reason string, viols []string) {
	if len(viols) > 0 {
		t.Fatalf("%s detected (%s):\n%s", what, reason, strings.Join(viols, "\n"))
	}
}
