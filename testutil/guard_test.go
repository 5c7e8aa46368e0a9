package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recorder struct{ msg string }

func (r *recorder) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func TestPredicates(t *testing.T) {
	cases := []struct {
		in       string
		internal bool
		storage  bool
	}{
		{"astergen/internal/emit", true, false},
		{"astergen/internal/blob", true, true},
		{"astergen/internal/blobby", true, false},
		{"astergen/internal/infra/blob/s3", true, true},
		{"astergen/internal/runlog/core", true, true},
		{"github.com/aws/aws-sdk-go-v2/service/s3", false, true},
		{"github.com/jackc/pgx/v5/stdlib", false, true},
		{"modernc.org/sqlite", false, true},
		{"astergen/pkg/model", false, false},
	}
	for _, c := range cases {
		if got := InternalImportForbidden(c.in); got != c.internal {
			t.Fatalf("InternalImportForbidden(%q)=%v want %v", c.in, got, c.internal)
		}
		if got := StorageImportForbidden(c.in); got != c.storage {
			t.Fatalf("StorageImportForbidden(%q)=%v want %v", c.in, got, c.storage)
		}
	}
}

func writeFile(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirectImportViolationsIgnoresTestsAndDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x.go", "package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}\n")
	writeFile(t, dir, "x_test.go", "package tmp\nimport \"astergen/internal/blob\"\n")
	if err := os.Mkdir(filepath.Join(dir, "sub.go"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	AssertNoDirectImports(t, dir, StorageImportForbidden, "test files are exempt")

	writeFile(t, dir, "y.go", "package tmp\nimport _ \"modernc.org/sqlite\"\n")
	viols, err := directImportViolations(dir, StorageImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.Contains(viols[0], "y.go") {
		t.Fatalf("unexpected violations %v", viols)
	}
	rec := &recorder{}
	failIf(rec, "forbidden direct imports", "storage", viols)
	if !strings.Contains(rec.msg, "modernc.org/sqlite (in y.go)") {
		t.Fatalf("unexpected message %q", rec.msg)
	}
}

func TestDirectImportViolationsReportsParseErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.go", "package\n")
	if _, err := directImportViolations(dir, StorageImportForbidden); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := directImportViolations(filepath.Join(dir, "missing"), StorageImportForbidden); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestTransitiveDependencyViolations(t *testing.T) {
	prev := goListDeps
	t.Cleanup(func() { goListDeps = prev })

	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\nastergen/pkg/model\n\ngithub.com/aws/aws-sdk-go-v2/aws\n"), nil
	}
	viols, _, err := transitiveDependencyViolations("./...", StorageImportForbidden)
	if err != nil || len(viols) != 1 || viols[0] != "github.com/aws/aws-sdk-go-v2/aws" {
		t.Fatalf("unexpected result %v %v", viols, err)
	}

	goListDeps = func(string) ([]byte, error) { return []byte("boom"), errors.New("exit 1") }
	if _, out, err := transitiveDependencyViolations("./...", StorageImportForbidden); err == nil || string(out) != "boom" {
		t.Fatalf("expected go list failure, got %v %q", err, out)
	}
}
