package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGoFile(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestIsThirdParty(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"fmt", false},
		{"net/http", false},
		{"clubcore/internal/core", false},
		{"clubcore", false},
		{"github.com/stretchr/testify/require", true},
		{"gopkg.in/yaml.v3", true},
		{"modernc.org/sqlite", true},
	}
	for _, tc := range cases {
		if got := isThirdParty(tc.path); got != tc.want {
			t.Fatalf("isThirdParty(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestDirectImportViolationsFindsForbiddenImports(t *testing.T) {
	dir := t.TempDir()
	writeGoFile(t, dir, "clean.go", "package sample\n\nimport \"fmt\"\n\nvar _ = fmt.Sprintf\n")
	writeGoFile(t, dir, "dirty.go", "package sample\n\nimport _ \"clubcore/internal/infra/persistence/memory\"\n")
	writeGoFile(t, dir, "dirty_test.go", "package sample\n\nimport _ \"clubcore/internal/infra/persistence/sqlite\"\n")

	viols, err := directImportViolations(dir, PersistenceImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 {
		t.Fatalf("expected one violation (test files skipped), got %v", viols)
	}
	if !strings.Contains(viols[0], "dirty.go") {
		t.Fatalf("violation must name the offending file: %v", viols)
	}
}

func TestAssertNoTransitiveDependencyParsesListOutput(t *testing.T) {
	prev := goListDeps
	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\nclubcore/pkg/domain\n"), nil
	}
	defer func() { goListDeps = prev }()

	rec := &recordingTB{TB: t}
	AssertNoTransitiveDependency(rec, "./...", func(path string) bool {
		return path == "clubcore/pkg/domain"
	}, "sample boundary")
	if !rec.failed {
		t.Fatal("expected a reported violation")
	}
	if !strings.Contains(rec.message, "clubcore/pkg/domain") {
		t.Fatalf("failure must name the dependency: %s", rec.message)
	}
}

// recordingTB captures Fatalf calls instead of aborting the test.
type recordingTB struct {
	testing.TB
	failed  bool
	message string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Fatalf(format string, args ...any) {
	r.failed = true
	r.message = strings.TrimSpace(strings.Join([]string{format}, ""))
	for _, a := range args {
		if s, ok := a.(string); ok {
			r.message += " " + s
		}
	}
}
