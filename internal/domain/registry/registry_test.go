package registry_test

import (
	"testing"

	"github.com/openkraft/archverify/internal/domain"
	"github.com/openkraft/archverify/internal/domain/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pkg(name, ns string, subs bool, depends ...string) *domain.LogicalPackage {
	return &domain.LogicalPackage{
		Name:               name,
		Namespace:          ns,
		IncludeSubpackages: subs,
		NeedDeclarations:   true,
		NeedDepends:        true,
		Depends:            depends,
	}
}

func TestNew_RegistersJava(t *testing.T) {
	r := registry.New(false)
	p, ok := r.Lookup("java")
	require.True(t, ok)
	assert.True(t, p.Builtin)
	assert.False(t, p.NeedDeclarations)

	got, ok := r.Resolve("java.util.concurrent")
	require.True(t, ok)
	assert.Equal(t, "java", got.Name)
}

func TestResolve_ExactMatchIdentity(t *testing.T) {
	r := registry.New(false)
	pkgs := []*domain.LogicalPackage{
		pkg("acme", "com.acme", false),
		pkg("core", "com.acme.core", true),
		pkg("util", "com.acme.util", false),
	}
	for _, p := range pkgs {
		require.NoError(t, r.Declare(p))
	}
	for _, p := range r.Packages() {
		got, ok := r.Resolve(p.Namespace)
		require.True(t, ok, "resolve %s", p.Namespace)
		assert.Same(t, p, got)
	}
}

func TestResolve_AncestorWithoutSubpackagesIsABoundary(t *testing.T) {
	r := registry.New(false)
	require.NoError(t, r.Declare(pkg("acme", "com.acme", false)))

	_, ok := r.Resolve("com.acme.core")
	assert.False(t, ok, "excluded subpackages must not match a descendant")

	// Even when a wider ancestor includes subpackages, the closer excluding
	// package stops the search.
	r = registry.New(false)
	require.NoError(t, r.Declare(pkg("com", "com", true)))
	require.NoError(t, r.Declare(pkg("acme", "com.acme", false)))
	_, ok = r.Resolve("com.acme.core")
	assert.False(t, ok)

	got, ok := r.Resolve("com.other")
	require.True(t, ok)
	assert.Equal(t, "com", got.Name)
}

func TestResolve_AncestorWithSubpackages(t *testing.T) {
	r := registry.New(false)
	require.NoError(t, r.Declare(pkg("core", "com.acme.core", true)))
	require.NoError(t, r.Declare(pkg("impl", "com.acme.core.impl", false)))

	for _, ns := range []string{"com.acme.core.a", "com.acme.core.a.b.c", "com.acme.core.api"} {
		got, ok := r.Resolve(ns)
		require.True(t, ok, ns)
		assert.Equal(t, "core", got.Name, ns)
	}

	got, ok := r.Resolve("com.acme.core.impl")
	require.True(t, ok)
	assert.Equal(t, "impl", got.Name, "closer exact match wins")

	_, ok = r.Resolve("com.acme.core.impl.sub")
	assert.False(t, ok, "closest ancestor excludes subpackages")

	_, ok = r.Resolve("com.acme.corex")
	assert.False(t, ok, "prefix matching is segment aware")
}

func TestResolve_DefaultPackage(t *testing.T) {
	r := registry.New(false)
	_, ok := r.Resolve(domain.DefaultPackage)
	assert.False(t, ok)

	require.NoError(t, r.Declare(pkg(domain.DefaultPackage, domain.DefaultPackage, false)))
	got, ok := r.Resolve("")
	require.True(t, ok)
	assert.Equal(t, domain.DefaultPackage, got.Name)
	_, ok = r.Resolve("org.example")
	assert.False(t, ok, "default package without subpackages only matches itself")

	r = registry.New(false)
	require.NoError(t, r.Declare(pkg("everything", "", true)))
	got, ok = r.Resolve("org.example")
	require.True(t, ok)
	assert.Equal(t, "everything", got.Name)
}

func TestResolve_CacheInvalidatedByDeclare(t *testing.T) {
	r := registry.New(false)
	_, ok := r.Resolve("com.acme")
	assert.False(t, ok)

	require.NoError(t, r.Declare(pkg("acme", "com.acme", false)))
	got, ok := r.Resolve("com.acme")
	require.True(t, ok)
	assert.Equal(t, "acme", got.Name)
}

func TestDeclare_ForwardReferenceRejected(t *testing.T) {
	r := registry.New(false)
	err := r.Declare(pkg("api", "com.acme.api", false, "impl"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "api")
	assert.Contains(t, err.Error(), "impl")
}

func TestDeclare_ForwardReferenceAllowedWhenCircular(t *testing.T) {
	r := registry.New(true)
	require.NoError(t, r.Declare(pkg("api", "com.acme.api", false, "impl")))
	require.NoError(t, r.Declare(pkg("impl", "com.acme.impl", false, "api")))
	assert.NoError(t, r.Seal())
	assert.Equal(t, [][]string{{"api", "impl"}}, r.Cycles())
}

func TestSeal_UnknownTargetInCircularMode(t *testing.T) {
	r := registry.New(true)
	require.NoError(t, r.Declare(pkg("api", "com.acme.api", false, "ghost")))
	err := r.Seal()
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "ghost")
}

func TestDeclare_DuplicateName(t *testing.T) {
	r := registry.New(false)
	require.NoError(t, r.Declare(pkg("core", "com.acme.core", false)))
	err := r.Declare(pkg("core", "com.acme.other", false))
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	err = r.Declare(pkg("java", "java", true))
	assert.ErrorIs(t, err, domain.ErrConfiguration, "built-in name is reserved")
}

func TestContains(t *testing.T) {
	excl := pkg("a", "com.acme", false)
	incl := pkg("b", "com.acme", true)
	def := pkg("d", domain.DefaultPackage, true)

	assert.True(t, registry.Contains(excl, "com.acme"))
	assert.False(t, registry.Contains(excl, "com.acme.sub"))
	assert.True(t, registry.Contains(incl, "com.acme.sub"))
	assert.False(t, registry.Contains(incl, "com.acmex"))
	assert.True(t, registry.Contains(def, "anything.at.all"))
	assert.False(t, registry.Contains(nil, "com.acme"))
}

func TestFromDesign(t *testing.T) {
	d := &domain.Design{Packages: []domain.PackageDecl{
		{Name: "util", Package: "com.acme.util", NeedDeclarations: domain.BoolPtr(false)},
		{Name: "core", Package: "com.acme.core", Subpackages: "include", Depends: []string{"util"}},
	}}
	r, err := registry.FromDesign(d, domain.DefaultDesignDefaults(), false)
	require.NoError(t, err)
	assert.Len(t, r.Packages(), 3)
	assert.Equal(t, 1, r.EdgeCount())
	assert.Empty(t, r.Cycles())

	bad := &domain.Design{Packages: []domain.PackageDecl{{Name: "x", Subpackages: "sometimes"}}}
	_, err = registry.FromDesign(bad, domain.DefaultDesignDefaults(), false)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
