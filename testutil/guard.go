// Package testutil enforces the repository's layering rules from tests:
// the domain package stays stdlib-only, and HTTP adapters reach storage
// through the service layer instead of importing backends directly.
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

// AssertDomainIsSelfContained scans the package in dir and fails when any
// non-test file imports a third-party module or an internal package. The
// domain layer defines entities and rule primitives only; everything with
// a dependency lives above it.
func AssertDomainIsSelfContained(t testing.TB, dir string) {
	t.Helper()
	AssertNoDirectImports(t, dir, func(path string) bool {
		return isThirdParty(path) || strings.Contains(path, "/internal/")
	}, "pkg/domain must depend on the standard library only")
}

// AssertNoDirectImports scans all non-test .go files in dir and fails if any
// import path satisfies the forbidden predicate. Build tags are not followed.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	if len(viols) > 0 {
		t.Fatalf("forbidden imports (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}

// AssertNoTransitiveDependency runs `go list -deps` over pattern and fails
// when any resolved dependency satisfies the forbidden predicate. Unlike
// AssertNoDirectImports this catches indirect coupling through helpers.
func AssertNoTransitiveDependency(t testing.TB, pattern string, forbidden func(path string) bool, reason string) {
	t.Helper()
	out, err := goListDeps(pattern)
	if err != nil {
		t.Fatalf("go list %s: %v\n%s", pattern, err, string(out))
	}
	var viols []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" && forbidden(line) {
			viols = append(viols, line)
		}
	}
	if len(viols) > 0 {
		t.Fatalf("forbidden transitive dependencies (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}

// PersistenceImportForbidden matches direct imports of the storage backends.
// Adapters talk to core.Service; only the core storage factory may select a
// concrete backend.
func PersistenceImportForbidden(path string) bool {
	return strings.Contains(path, "internal/infra/persistence/")
}

// isThirdParty reports whether an import path resolves outside the standard
// library and outside this module. Stdlib paths have no dot in their first
// segment.
func isThirdParty(path string) bool {
	if path == "clubcore" || strings.HasPrefix(path, "clubcore/") {
		return false
	}
	first := path
	if i := strings.IndexByte(path, '/'); i >= 0 {
		first = path[:i]
	}
	return strings.Contains(first, ".")
}

var goListDeps = func(pattern string) ([]byte, error) {
	return exec.Command("go", "list", "-deps", pattern).CombinedOutput()
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
		parsed, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range parsed.Imports {
			ip := strings.Trim(imp.Path.Value, `"`)
			if forbidden(ip) {
				viols = append(viols, ip+" (in "+name+")")
			}
		}
	}
	return viols, nil
}
