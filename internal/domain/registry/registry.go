// Package registry holds the declared logical packages of an architecture and
// resolves concrete namespaces to them.
package registry

import (
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/openkraft/archverify/internal/domain"
)

const resolveCacheSize = 4096

type resolution struct {
	pkg *domain.LogicalPackage
	ok  bool
}

// Registry owns all logical packages of a design, indexed by logical name and
// by namespace prefix.
type Registry struct {
	circular    bool
	order       []*domain.LogicalPackage
	byName      map[string]*domain.LogicalPackage
	byNamespace map[string]*domain.LogicalPackage
	resolved    *lru.Cache[string, resolution]
}

// New creates a registry with the built-in java package registered. When
// circular is true, dependency targets may be declared after their users.
func New(circular bool) *Registry {
	cache, err := lru.New[string, resolution](resolveCacheSize)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	r := &Registry{
		circular:    circular,
		byName:      make(map[string]*domain.LogicalPackage),
		byNamespace: make(map[string]*domain.LogicalPackage),
		resolved:    cache,
	}
	r.register(domain.JavaPackage())
	return r
}

// FromDesign declares every package of d in order and seals the registry.
func FromDesign(d *domain.Design, defaults domain.DesignDefaults, circular bool) (*Registry, error) {
	r := New(circular)
	for _, decl := range d.Packages {
		if err := decl.Validate(); err != nil {
			return nil, err
		}
		if err := r.Declare(decl.Logical(defaults)); err != nil {
			return nil, err
		}
	}
	if err := r.Seal(); err != nil {
		return nil, err
	}
	return r, nil
}

// Circular reports whether forward references between declarations are allowed.
func (r *Registry) Circular() bool { return r.circular }

// Declare registers p. Outside circular mode every dependency target must
// already be registered.
func (r *Registry) Declare(p *domain.LogicalPackage) error {
	if p.Name == "" {
		p.Name = domain.DefaultPackage
	}
	if p.Namespace == "" {
		p.Namespace = domain.DefaultPackage
	}
	if _, dup := r.byName[p.Name]; dup {
		return domain.NewConfigError(p.Name, "declared more than once")
	}
	if !r.circular {
		for _, dep := range p.Depends {
			if _, ok := r.byName[dep]; !ok {
				return domain.NewConfigError(p.Name,
					"depends on %q which is not declared before it; circular design is off so %q must be moved below %q",
					dep, p.Name, dep)
			}
		}
	}
	r.register(p)
	return nil
}

func (r *Registry) register(p *domain.LogicalPackage) {
	r.order = append(r.order, p)
	r.byName[p.Name] = p
	r.byNamespace[p.Namespace] = p
	r.resolved.Purge()
}

// Seal verifies that every dependency edge names a declared package. It only
// finds problems in circular mode, where Declare cannot check eagerly.
func (r *Registry) Seal() error {
	for _, p := range r.order {
		for _, dep := range p.Depends {
			if _, ok := r.byName[dep]; !ok {
				return domain.NewConfigError(p.Name, "depends on %q which is never declared", dep)
			}
		}
	}
	return nil
}

// Lookup returns the package with the given logical name.
func (r *Registry) Lookup(name string) (*domain.LogicalPackage, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Packages returns all packages in declaration order, built-ins first.
func (r *Registry) Packages() []*domain.LogicalPackage {
	out := make([]*domain.LogicalPackage, len(r.order))
	copy(out, r.order)
	return out
}

// Resolve maps a concrete namespace to its logical package. An exact match
// always wins. A registered ancestor matches only if it includes subpackages;
// an ancestor that excludes them ends the search with no match.
func (r *Registry) Resolve(namespace string) (*domain.LogicalPackage, bool) {
	if namespace == "" {
		namespace = domain.DefaultPackage
	}
	if res, hit := r.resolved.Get(namespace); hit {
		return res.pkg, res.ok
	}
	p, ok := r.resolve(namespace)
	r.resolved.Add(namespace, resolution{pkg: p, ok: ok})
	return p, ok
}

func (r *Registry) resolve(namespace string) (*domain.LogicalPackage, bool) {
	candidate := namespace
	for candidate != domain.DefaultPackage {
		if p, found := r.byNamespace[candidate]; found {
			if candidate == namespace || p.IncludeSubpackages {
				return p, true
			}
			return nil, false
		}
		i := strings.LastIndexByte(candidate, '.')
		if i < 0 {
			candidate = domain.DefaultPackage
		} else {
			candidate = candidate[:i]
		}
	}
	p, found := r.byNamespace[domain.DefaultPackage]
	if !found {
		return nil, false
	}
	if namespace == domain.DefaultPackage || p.IncludeSubpackages {
		return p, true
	}
	return nil, false
}

// Contains reports whether namespace lies within p: the same namespace, or a
// descendant when p includes subpackages.
func Contains(p *domain.LogicalPackage, namespace string) bool {
	if p == nil {
		return false
	}
	if namespace == "" {
		namespace = domain.DefaultPackage
	}
	if namespace == p.Namespace {
		return true
	}
	if !p.IncludeSubpackages {
		return false
	}
	if p.Namespace == domain.DefaultPackage {
		return true
	}
	return strings.HasPrefix(namespace, p.Namespace+".")
}

// EdgeCount returns the number of declared dependency edges.
func (r *Registry) EdgeCount() int {
	n := 0
	for _, p := range r.order {
		n += len(p.Depends)
	}
	return n
}

// Cycles finds dependency cycles between logical packages using DFS with
// grey/black coloring. Each cycle is rotated to its smallest name and
// deduplicated. Only circular designs can contain cycles.
func (r *Registry) Cycles() [][]string {
	const (
		white = 0
		grey  = 1
		black = 2
	)

	color := make(map[string]int)
	parent := make(map[string]string)
	seen := make(map[string]bool)
	var cycles [][]string

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	var dfs func(u string)
	dfs = func(u string) {
		color[u] = grey
		p := r.byName[u]
		neighbors := append([]string(nil), p.Depends...)
		sort.Strings(neighbors)

		for _, v := range neighbors {
			if _, ok := r.byName[v]; !ok {
				continue
			}
			switch color[v] {
			case grey:
				cycle := []string{v}
				for cur := u; cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				normalized := normalizeCycle(cycle)
				key := strings.Join(normalized, "→")
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, normalized)
				}
			case white:
				parent[v] = u
				dfs(v)
			}
		}
		color[u] = black
	}

	for _, name := range names {
		if color[name] == white {
			dfs(name)
		}
	}
	return cycles
}

// normalizeCycle rotates a cycle so the lexicographically smallest element is first.
func normalizeCycle(cycle []string) []string {
	minIdx := 0
	for i, s := range cycle {
		if s < cycle[minIdx] {
			minIdx = i
		}
	}
	result := make([]string, len(cycle))
	for i := range cycle {
		result[i] = cycle[(minIdx+i)%len(cycle)]
	}
	return result
}
