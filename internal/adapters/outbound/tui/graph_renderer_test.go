package tui_test

import (
	"testing"

	"github.com/openkraft/archverify/internal/adapters/outbound/tui"
	"github.com/openkraft/archverify/internal/domain"
	"github.com/openkraft/archverify/internal/domain/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func design(t *testing.T, circular bool, decls ...domain.PackageDecl) *registry.Registry {
	t.Helper()
	r, err := registry.FromDesign(&domain.Design{Packages: decls}, domain.DefaultDesignDefaults(), circular)
	require.NoError(t, err)
	return r
}

func TestRenderDesign_Empty(t *testing.T) {
	out := tui.RenderDesign(registry.New(false), "design.yaml")
	assert.Contains(t, out, "declares no packages")
}

func TestRenderDesign_PackagesAndEdges(t *testing.T) {
	r := design(t, false,
		domain.PackageDecl{Name: "util", Package: "com.acme.util", NeedDeclarations: domain.BoolPtr(false)},
		domain.PackageDecl{Name: "core", Package: "com.acme.core", Subpackages: "include", Depends: []string{"util"}},
	)
	out := tui.RenderDesign(r, "design.yaml")

	assert.Contains(t, out, "Design")
	assert.Contains(t, out, "3 packages")
	assert.Contains(t, out, "1 edges")
	assert.Contains(t, out, "ordered")
	assert.Contains(t, out, "com.acme.core.**")
	assert.Contains(t, out, "builtin")
	assert.Contains(t, out, "open")
	assert.Contains(t, out, "core → util")
	assert.Contains(t, out, "(none)")
}

func TestRenderDesign_Cycles(t *testing.T) {
	r := design(t, true,
		domain.PackageDecl{Name: "a", Package: "x.a", Depends: []string{"b"}},
		domain.PackageDecl{Name: "b", Package: "x.b", Depends: []string{"a"}},
	)
	out := tui.RenderDesign(r, "design.yaml")

	assert.Contains(t, out, "circular")
	assert.Contains(t, out, "1 cycles")
	assert.Contains(t, out, "a → b → a")
}

func TestRenderResolution(t *testing.T) {
	p := &domain.LogicalPackage{Name: "core", Namespace: "com.acme.core", IncludeSubpackages: true}

	out := tui.RenderResolution("com.acme.core.deep", p, true)
	assert.Contains(t, out, "core")
	assert.Contains(t, out, "subpackage of com.acme.core")

	out = tui.RenderResolution("com.acme.core", p, true)
	assert.Contains(t, out, "exact")

	out = tui.RenderResolution("org.other", nil, false)
	assert.Contains(t, out, "not covered")
}
