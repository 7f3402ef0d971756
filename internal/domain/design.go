package domain

import "strings"

// DefaultPackage is the sentinel used both as the logical name and the
// namespace of the package holding classes without a namespace qualifier.
const DefaultPackage = "<default>"

// Subpackages attribute values.
const (
	SubpackagesInclude = "include"
	SubpackagesExclude = "exclude"
)

// LogicalPackage is an architecturally named grouping mapped to a real
// namespace prefix. It is immutable once registered; usage bookkeeping lives
// in the validation session.
type LogicalPackage struct {
	Name               string   `json:"name"`
	Namespace          string   `json:"package"`
	IncludeSubpackages bool     `json:"include_subpackages"`
	NeedDeclarations   bool     `json:"need_declarations"`
	NeedDepends        bool     `json:"need_depends"`
	Depends            []string `json:"depends,omitempty"`
	Builtin            bool     `json:"builtin,omitempty"`
}

// JavaPackage returns the built-in package covering the JDK namespace. It is
// always registered and never requires declarations.
func JavaPackage() *LogicalPackage {
	return &LogicalPackage{
		Name:               "java",
		Namespace:          "java",
		IncludeSubpackages: true,
		NeedDeclarations:   false,
		NeedDepends:        true,
		Builtin:            true,
	}
}

// Design is the parsed architecture description. Package order is the
// declaration order and is significant unless circular mode is enabled.
type Design struct {
	Packages []PackageDecl `yaml:"packages" json:"packages"`
}

// PackageDecl is one package declaration as written by the user. Optional
// flags are pointers so an omitted attribute can take the run-level default.
type PackageDecl struct {
	Name             string   `yaml:"name"                       json:"name"`
	Package          string   `yaml:"package"                    json:"package"`
	Subpackages      string   `yaml:"subpackages,omitempty"      json:"subpackages,omitempty"`
	NeedDeclarations *bool    `yaml:"needdeclarations,omitempty" json:"needdeclarations,omitempty"`
	NeedDepends      *bool    `yaml:"needdepends,omitempty"      json:"needdepends,omitempty"`
	Depends          []string `yaml:"depends,omitempty"          json:"depends,omitempty"`
}

// DesignDefaults are the run-level values applied to declarations that omit
// needdeclarations or needdepends.
type DesignDefaults struct {
	NeedDeclarations bool
	NeedDepends      bool
}

// DefaultDesignDefaults requires both declarations and dependency checks.
func DefaultDesignDefaults() DesignDefaults {
	return DesignDefaults{NeedDeclarations: true, NeedDepends: true}
}

// Validate checks attribute values that do not depend on declaration order.
func (d PackageDecl) Validate() error {
	switch strings.ToLower(d.Subpackages) {
	case "", SubpackagesInclude, SubpackagesExclude:
	default:
		return NewConfigError(d.Name, "subpackages must be %q or %q (got %q)",
			SubpackagesInclude, SubpackagesExclude, d.Subpackages)
	}
	for _, dep := range d.Depends {
		if strings.TrimSpace(dep) == "" {
			return NewConfigError(d.Name, "empty depends entry")
		}
	}
	return nil
}

// Logical converts the declaration into a LogicalPackage, filling omitted
// flags from defaults. Empty names and namespaces become DefaultPackage.
func (d PackageDecl) Logical(defaults DesignDefaults) *LogicalPackage {
	p := &LogicalPackage{
		Name:               normalizeSentinel(d.Name),
		Namespace:          normalizeSentinel(d.Package),
		IncludeSubpackages: strings.EqualFold(d.Subpackages, SubpackagesInclude),
		NeedDeclarations:   defaults.NeedDeclarations,
		NeedDepends:        defaults.NeedDepends,
	}
	if d.NeedDeclarations != nil {
		p.NeedDeclarations = *d.NeedDeclarations
	}
	if d.NeedDepends != nil {
		p.NeedDepends = *d.NeedDepends
	}
	for _, dep := range d.Depends {
		p.Depends = append(p.Depends, strings.TrimSpace(dep))
	}
	return p
}

func normalizeSentinel(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultPackage
	}
	return s
}

// NamespaceOf returns the namespace portion of a fully qualified class name,
// or DefaultPackage when the name has no qualifier.
func NamespaceOf(className string) string {
	i := strings.LastIndexByte(className, '.')
	if i <= 0 {
		return DefaultPackage
	}
	return className[:i]
}

// BoolPtr is a small helper for building declarations in code and tests.
func BoolPtr(b bool) *bool { return &b }
