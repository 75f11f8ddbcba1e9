// Package architecture_test enforces the layering rules of the module with
// compile-time-cheap source inspection.
package architecture_test

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const modulePath = "factuboard"

type layerRule struct {
	sourcePrefix string
	forbidden    []string
	hint         string
}

// The pipeline layers bottom-up: domain holds types and ports only; db,
// schema, roster, cache, filter, metrics are leaf services over domain;
// ingest and dataset compose them; api and inbox sit on top; app wires
// everything and only cmd/pkg may import app.
var rules = []layerRule{
	{
		sourcePrefix: modulePath + "/internal/domain",
		forbidden:    []string{modulePath + "/internal", modulePath + "/cmd", modulePath + "/pkg"},
		hint:         "domain may only import domain",
	},
	{
		sourcePrefix: modulePath + "/internal/db",
		forbidden: []string{
			modulePath + "/internal/api",
			modulePath + "/internal/ingest",
			modulePath + "/internal/dataset",
			modulePath + "/internal/app",
			modulePath + "/cmd",
			modulePath + "/pkg",
		},
		hint: "db should depend on domain and db-local packages",
	},
	{
		sourcePrefix: modulePath + "/internal/schema",
		forbidden: []string{
			modulePath + "/internal/api",
			modulePath + "/internal/db",
			modulePath + "/internal/ingest",
			modulePath + "/internal/dataset",
			modulePath + "/internal/app",
		},
		hint: "schema should depend on domain only",
	},
	{
		sourcePrefix: modulePath + "/internal/middleware",
		forbidden: []string{
			modulePath + "/internal/api",
			modulePath + "/internal/db",
			modulePath + "/internal/ingest",
			modulePath + "/internal/dataset",
			modulePath + "/internal/app",
		},
		hint: "middleware should depend on domain and middleware-local packages",
	},
	{
		sourcePrefix: modulePath + "/internal/api",
		forbidden: []string{
			modulePath + "/internal/db",
			modulePath + "/internal/app",
			modulePath + "/cmd",
			modulePath + "/pkg",
		},
		hint: "api should depend on pipeline services, never on db or app wiring",
	},
	{
		sourcePrefix: modulePath + "/internal/app",
		forbidden:    []string{modulePath + "/cmd", modulePath + "/pkg"},
		hint:         "app wires internal packages; entrypoints import app, not the reverse",
	},
}

func TestImportBoundaries(t *testing.T) {
	files, err := filepath.Glob(filepath.Join(repoRoot(t), "internal", "*", "*.go"))
	require.NoError(t, err)
	require.NotEmpty(t, files, "no source files found; repo layout changed?")

	violations := make([]string, 0)
	fset := token.NewFileSet()

	for _, file := range files {
		if strings.HasSuffix(filepath.Base(file), "_test.go") {
			continue
		}

		sourcePkg := packageImportPath(t, file)
		rule, ok := findRule(sourcePkg)
		if !ok {
			continue
		}

		parsed, parseErr := parser.ParseFile(fset, file, nil, parser.ImportsOnly)
		require.NoErrorf(t, parseErr, "parse imports for %s", file)

		for _, imp := range parsed.Imports {
			importPath := strings.Trim(imp.Path.Value, "\"")
			if !strings.HasPrefix(importPath, modulePath+"/") {
				continue
			}
			if violatesRule(importPath, rule.forbidden) {
				violations = append(violations,
					sourcePkg+" imports "+importPath+" via "+file+"; allowed direction: "+rule.hint)
			}
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		t.Fatalf("%s", strings.Join(violations, "\n"))
	}
}

func repoRoot(t *testing.T) string {
	t.Helper()
	// Tests run with the package directory as cwd; the module root is two up.
	root, err := filepath.Abs(filepath.Join("..", ".."))
	require.NoError(t, err)
	return root
}

func packageImportPath(t *testing.T, file string) string {
	t.Helper()
	rel, err := filepath.Rel(repoRoot(t), filepath.Dir(file))
	require.NoError(t, err)
	return modulePath + "/" + filepath.ToSlash(rel)
}

func findRule(sourcePkg string) (layerRule, bool) {
	for _, rule := range rules {
		if hasPathPrefix(sourcePkg, rule.sourcePrefix) {
			return rule, true
		}
	}
	return layerRule{}, false
}

func violatesRule(importPath string, forbidden []string) bool {
	for _, prefix := range forbidden {
		if hasPathPrefix(importPath, prefix) {
			return true
		}
	}
	return false
}

func hasPathPrefix(value string, prefix string) bool {
	return value == prefix || strings.HasPrefix(value, prefix+"/")
}
