// Package testutil holds shared fixtures and import-boundary assertions used
// by package tests: the taxonomy core and the resolution engine must stay free
// of storage drivers and transport adapters.
package testutil

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// driverModules are the third-party modules only infra drivers may import.
var driverModules = []string{
	"github.com/neo4j/neo4j-go-driver/",
	"github.com/jackc/pgx/",
	"modernc.org/sqlite",
	"github.com/aws/aws-sdk-go-v2",
}

// StoreDriverImportForbidden matches infra driver packages and the database
// or object-store client modules behind them.
func StoreDriverImportForbidden(path string) bool {
	if strings.Contains(path, "/internal/infra/") {
		return true
	}
	for _, m := range driverModules {
		if strings.HasPrefix(path, m) {
			return true
		}
	}
	return false
}

// AdapterImportForbidden matches transport adapters and command packages.
func AdapterImportForbidden(path string) bool {
	return strings.Contains(path, "/internal/adapters/") || strings.Contains(path, "/cmd/")
}

// AssertNoDirectImports fails when a non-test source file directly under dir
// imports a path matching forbidden. Build tags are ignored.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	report(t, "direct import", reason, viols)
}

// AssertNoTransitiveDependency loads pattern with its full dependency graph
// and fails when any reachable package matches forbidden.
func AssertNoTransitiveDependency(t testing.TB, pattern string, forbidden func(path string) bool, reason string) {
	t.Helper()
	deps, err := loadDeps(pattern)
	if err != nil {
		t.Fatalf("load %s: %v", pattern, err)
	}
	var viols []string
	for _, dep := range deps {
		if forbidden(dep) {
			viols = append(viols, dep)
		}
	}
	report(t, "transitive dependency", reason, viols)
}

// loadDeps returns every package path reachable from pattern, itself included.
var loadDeps = func(pattern string) ([]string, error) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports | packages.NeedDeps}
	roots, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, err
	}
	if packages.PrintErrors(roots) > 0 {
		return nil, fmt.Errorf("%s has package errors", pattern)
	}
	var out []string
	packages.Visit(roots, nil, func(p *packages.Package) {
		out = append(out, p.PkgPath)
	})
	return out, nil
}

// directImportViolations reports forbidden imports as "file: path".
func directImportViolations(dir string, forbidden func(importPath string) bool) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, file := range files {
		name := filepath.Base(file)
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, file, nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, spec := range f.Imports {
			path, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				return nil, err
			}
			if forbidden(path) {
				viols = append(viols, name+": "+path)
			}
		}
	}
	return viols, nil
}

type fatalLogger interface {
	Fatalf(format string, args ...any)
}

func report(t fatalLogger, kind, reason string, viols []string) {
	if len(viols) == 0 {
		return
	}
	slices.Sort(viols)
	viols = slices.Compact(viols)
	t.Fatalf("%d forbidden %s(s), %s:\n  %s", len(viols), kind, reason, strings.Join(viols, "\n  "))
}
