package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration         = errors.New("configuration error")
	ErrUndeclaredPackage     = errors.New("package not defined in architecture")
	ErrArchitectureViolation = errors.New("architecture violation")
	ErrUnusedDeclaration     = errors.New("unused declaration")
	ErrStructural            = errors.New("structural scanning error")
	ErrNoClasses             = errors.New("no class files found to verify")
)

// ViolationKind classifies a recorded violation.
type ViolationKind string

const (
	KindUndeclaredPackage     ViolationKind = "undeclared_package"
	KindArchitectureViolation ViolationKind = "architecture_violation"
	KindUnusedPackage         ViolationKind = "unused_package"
	KindUnusedDependency      ViolationKind = "unused_dependency"
	KindStructural            ViolationKind = "structural"
)

// AllViolationKinds lists kinds in reporting order.
var AllViolationKinds = []ViolationKind{
	KindStructural,
	KindUndeclaredPackage,
	KindArchitectureViolation,
	KindUnusedPackage,
	KindUnusedDependency,
}

// Violation is a single conformance failure. It is an error that unwraps to
// the sentinel of its kind.
type Violation struct {
	Kind          ViolationKind `json:"kind"`
	Class         string        `json:"class,omitempty"`
	Reference     string        `json:"reference,omitempty"`
	Package       string        `json:"package,omitempty"`
	TargetPackage string        `json:"target_package,omitempty"`
	File          string        `json:"file,omitempty"`
	Message       string        `json:"message"`
}

func (v *Violation) Error() string { return v.Message }

func (v *Violation) Unwrap() error {
	switch v.Kind {
	case KindUndeclaredPackage:
		return ErrUndeclaredPackage
	case KindArchitectureViolation:
		return ErrArchitectureViolation
	case KindUnusedPackage, KindUnusedDependency:
		return ErrUnusedDeclaration
	case KindStructural:
		return ErrStructural
	}
	return nil
}

// ConfigError reports a problem in the architecture description or the
// project configuration. It is always fatal.
type ConfigError struct {
	Package string
	Msg     string
}

// NewConfigError formats a ConfigError for the named package (may be empty).
func NewConfigError(pkg, format string, args ...any) *ConfigError {
	return &ConfigError{Package: pkg, Msg: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	if e.Package == "" {
		return e.Msg
	}
	return fmt.Sprintf("package name=%s: %s", e.Package, e.Msg)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }
