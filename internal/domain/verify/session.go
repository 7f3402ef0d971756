// Package verify checks class references against a registry of logical
// packages and keeps the usage bookkeeping for one verification run.
package verify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openkraft/archverify/internal/domain"
	"github.com/openkraft/archverify/internal/domain/registry"
)

// errNoClass is returned by CheckReference when no class has been begun or
// the current class could not be placed in a package.
var errNoClass = errors.New("verify: no current class")

var primitives = map[string]bool{
	"boolean": true, "byte": true, "char": true, "short": true,
	"int": true, "long": true, "float": true, "double": true, "void": true,
	"B": true, "C": true, "D": true, "F": true, "I": true, "J": true, "S": true, "Z": true, "V": true,
}

// Session is the state of one verification run over many classes. The
// registry is only read; usage lives here so registries can be reused.
type Session struct {
	reg *registry.Registry

	currentClass     string
	currentNamespace string
	current          *domain.LogicalPackage

	used    map[string]bool
	pending map[string]map[string]bool // package name -> depends not yet observed
}

// NewSession starts a run against reg. Built-in packages count as used.
func NewSession(reg *registry.Registry) *Session {
	s := &Session{
		reg:     reg,
		used:    make(map[string]bool),
		pending: make(map[string]map[string]bool),
	}
	for _, p := range reg.Packages() {
		if p.Builtin {
			s.used[p.Name] = true
		}
		if len(p.Depends) == 0 {
			continue
		}
		edges := make(map[string]bool, len(p.Depends))
		for _, dep := range p.Depends {
			edges[dep] = true
		}
		s.pending[p.Name] = edges
	}
	return s
}

// CurrentClass returns the class most recently passed to BeginClass.
func (s *Session) CurrentClass() string { return s.currentClass }

// CurrentPackage returns the logical package of the current class, if any.
func (s *Session) CurrentPackage() *domain.LogicalPackage { return s.current }

// Used reports whether the named package has been observed in use.
func (s *Session) Used(name string) bool { return s.used[name] }

// BeginClass makes className the class under inspection and resolves its
// package when the namespace changed. It reports whether the class's
// references must be evaluated; usage is recorded either way.
func (s *Session) BeginClass(className string) (bool, error) {
	className = strings.ReplaceAll(className, "/", ".")
	s.currentClass = className
	ns := domain.NamespaceOf(className)

	if s.current == nil || ns != s.currentNamespace {
		s.currentNamespace = ns
		p, ok := s.reg.Resolve(ns)
		if !ok {
			s.current = nil
			return false, &domain.Violation{
				Kind:    domain.KindUndeclaredPackage,
				Class:   className,
				Package: ns,
				Message: fmt.Sprintf("Class=%s is in namespace=%s which is not defined in the architecture.\n"+
					"  Add a package declaration covering %s or remove the class.", className, ns, ns),
			}
		}
		s.current = p
		s.used[p.Name] = true
	}

	if err := checkOwnNamespace(className, ns); err != nil {
		return false, err
	}
	return s.current.NeedDepends, nil
}

func checkOwnNamespace(className, ns string) error {
	if ns == domain.DefaultPackage {
		if strings.Contains(className, ".") {
			return fmt.Errorf("verify: internal fault: class %s placed in the default package", className)
		}
		return nil
	}
	if !strings.HasPrefix(className, ns+".") {
		return fmt.Errorf("verify: internal fault: namespace %s is not a prefix of class %s", ns, className)
	}
	return nil
}

// CheckReference verifies that the current class may reference typeName.
// Checking is idempotent: repeating an allowed reference is harmless.
func (s *Session) CheckReference(typeName string) error {
	if s.current == nil {
		return errNoClass
	}
	name, ok := Normalize(typeName)
	if !ok {
		return nil
	}

	ns := domain.NamespaceOf(name)
	target, found := s.reg.Resolve(ns)
	if !found && ns == domain.DefaultPackage {
		if lang, ok := s.reg.Resolve("java.lang"); ok {
			name, ns, target, found = "java.lang."+name, "java.lang", lang, true
		}
	}
	if !found {
		return &domain.Violation{
			Kind:      domain.KindUndeclaredPackage,
			Class:     s.currentClass,
			Reference: name,
			Package:   s.current.Name,
			Message: fmt.Sprintf("Class=%s depends on Class=%s, but namespace=%s is not defined in the architecture "+
				"(dependency to undeclared package).", s.currentClass, name, ns),
		}
	}

	s.used[target.Name] = true
	if !target.NeedDeclarations {
		return nil
	}
	if registry.Contains(s.current, ns) {
		return nil
	}

	for _, dep := range s.current.Depends {
		dp, ok := s.reg.Lookup(dep)
		if !ok || !registry.Contains(dp, ns) {
			continue
		}
		delete(s.pending[s.current.Name], dep)
		s.used[dp.Name] = true
		return nil
	}

	return &domain.Violation{
		Kind:          domain.KindArchitectureViolation,
		Class:         s.currentClass,
		Reference:     name,
		Package:       s.current.Name,
		TargetPackage: target.Name,
		Message: fmt.Sprintf("You are violating your own architecture.\n"+
			"  Class=%s in package name=%s (%s)\n"+
			"  depends on Class=%s in package name=%s (%s)\n"+
			"  but package %s does not declare a dependency on %s.",
			s.currentClass, s.current.Name, s.current.Namespace,
			name, target.Name, target.Namespace,
			s.current.Name, target.Name),
	}
}

// Sweep reports every declared package never used and every dependency edge
// never exercised, in declaration order. Only meaningful after a full pass
// without violations.
func (s *Session) Sweep() []*domain.Violation {
	var out []*domain.Violation
	pkgs := s.reg.Packages()
	for _, p := range pkgs {
		if p.Builtin || s.used[p.Name] {
			continue
		}
		out = append(out, &domain.Violation{
			Kind:    domain.KindUnusedPackage,
			Package: p.Name,
			Message: fmt.Sprintf("Package name=%s (%s) is not used by any class. Please delete it from the design.",
				p.Name, p.Namespace),
		})
	}
	for _, p := range pkgs {
		for _, dep := range p.Depends {
			if !s.pending[p.Name][dep] {
				continue
			}
			out = append(out, &domain.Violation{
				Kind:          domain.KindUnusedDependency,
				Package:       p.Name,
				TargetPackage: dep,
				Message: fmt.Sprintf("Package name=%s declares a dependency on %s that no class uses. "+
					"Please delete dependency=%s.", p.Name, dep, dep),
			})
		}
	}
	return out
}

// Normalize strips descriptor and array decoration from a type name and
// converts internal separators to dots. It returns false for primitives and
// empty names, which are never resolved.
func Normalize(typeName string) (string, bool) {
	name := strings.TrimSpace(typeName)
	for strings.HasSuffix(name, "[]") {
		name = name[:len(name)-2]
	}

	descriptor := false
	for strings.HasPrefix(name, "[") {
		name = name[1:]
		descriptor = true
	}
	if strings.HasSuffix(name, ";") {
		name = name[:len(name)-1]
		descriptor = true
	}
	if descriptor && len(name) > 1 && name[0] == 'L' {
		name = name[1:]
	}

	name = strings.ReplaceAll(name, "/", ".")
	if name == "" || primitives[name] {
		return "", false
	}
	return name, true
}
