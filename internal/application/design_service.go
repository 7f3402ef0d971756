package application

import (
	"fmt"
	"os"

	"github.com/openkraft/archverify/internal/domain"
	"github.com/openkraft/archverify/internal/domain/registry"
)

// DesignService answers questions about a design without scanning classes.
type DesignService struct {
	designs domain.DesignLoader
}

func NewDesignService(designs domain.DesignLoader) *DesignService {
	return &DesignService{designs: designs}
}

// Registry loads the design named by opts and builds its registry.
func (s *DesignService) Registry(opts domain.VerifyOptions) (*registry.Registry, error) {
	path := projectRel(opts.ProjectPath, opts.DesignFile)
	d, err := s.designs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading design: %w", err)
	}
	reg, err := registry.FromDesign(d, opts.Defaults, opts.CircularDesign)
	if err != nil {
		return nil, fmt.Errorf("building design %s: %w", path, err)
	}
	return reg, nil
}

// Resolve reports the logical package that owns namespace.
func (s *DesignService) Resolve(opts domain.VerifyOptions, namespace string) (*domain.LogicalPackage, bool, error) {
	reg, err := s.Registry(opts)
	if err != nil {
		return nil, false, err
	}
	p, ok := reg.Resolve(namespace)
	return p, ok, nil
}

// Convert reads src and writes it to dst; formats follow the extensions.
// The design is validated by building a registry first.
func (s *DesignService) Convert(src, dst string, circular bool) (*domain.Design, error) {
	d, err := s.designs.Load(src)
	if err != nil {
		return nil, fmt.Errorf("loading design: %w", err)
	}
	if _, err := registry.FromDesign(d, domain.DefaultDesignDefaults(), circular); err != nil {
		return nil, fmt.Errorf("validating %s: %w", src, err)
	}
	if err := s.designs.Save(dst, d); err != nil {
		return nil, err
	}
	return d, nil
}

// StarterDesign is the example written by `archverify init`. util needs no
// declarations, so no package lists it in depends.
func StarterDesign() *domain.Design {
	return &domain.Design{Packages: []domain.PackageDecl{
		{Name: "util", Package: "com.example.util", Subpackages: domain.SubpackagesInclude,
			NeedDeclarations: domain.BoolPtr(false)},
		{Name: "domain", Package: "com.example.domain"},
		{Name: "service", Package: "com.example.service", Subpackages: domain.SubpackagesInclude,
			Depends: []string{"domain"}},
	}}
}

// WriteStarter saves StarterDesign to path. An existing file is an
// os.ErrExist error unless force is set.
func (s *DesignService) WriteStarter(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w (use --force to overwrite)", path, os.ErrExist)
		}
	}
	return s.designs.Save(path, StarterDesign())
}
