// Package design reads and writes architecture descriptions in YAML and in
// the legacy XML form.
package design

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/openkraft/archverify/internal/domain"
)

// Format is a description file format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatXML  Format = "xml"
)

// FormatOf picks the format from the file extension; anything that is not
// .xml is read as YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		return FormatXML
	}
	return FormatYAML
}

var _ domain.DesignLoader = (*Loader)(nil)

// Loader implements domain.DesignLoader.
type Loader struct{}

// New creates a Loader.
func New() *Loader { return &Loader{} }

// Load reads the description at path. Failures are configuration errors.
func (l *Loader) Load(path string) (*domain.Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading design %s: %v", domain.ErrConfiguration, path, err)
	}
	d, err := Decode(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("design %s: %w", path, err)
	}
	return d, nil
}

// Save writes d to path in the format matching its extension.
func (l *Loader) Save(path string, d *domain.Design) error {
	data, err := Encode(d, FormatOf(path))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing design %s: %w", path, err)
	}
	return nil
}

// Decode parses a description.
func Decode(data []byte, f Format) (*domain.Design, error) {
	var (
		d   *domain.Design
		err error
	)
	switch f {
	case FormatXML:
		d, err = decodeXML(data)
	default:
		d, err = decodeYAML(data)
	}
	if err != nil {
		return nil, err
	}
	for _, p := range d.Packages {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Encode serializes a description.
func Encode(d *domain.Design, f Format) ([]byte, error) {
	if f == FormatXML {
		return encodeXML(d)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encoding design: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding design: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeYAML(data []byte) (*domain.Design, error) {
	var d domain.Design
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parsing yaml: %v", domain.ErrConfiguration, err)
	}
	return &d, nil
}

type xmlDesign struct {
	XMLName  xml.Name     `xml:"design"`
	Packages []xmlPackage `xml:"package"`
}

type xmlPackage struct {
	Name             string   `xml:"name,attr,omitempty"`
	Package          string   `xml:"package,attr,omitempty"`
	Subpackages      string   `xml:"subpackages,attr,omitempty"`
	NeedDeclarations string   `xml:"needdeclarations,attr,omitempty"`
	NeedDepends      string   `xml:"needdepends,attr,omitempty"`
	DependsAttr      string   `xml:"depends,attr,omitempty"`
	Depends          []string `xml:"depends"`
}

func decodeXML(data []byte) (*domain.Design, error) {
	var x xmlDesign
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("%w: parsing xml: %v", domain.ErrConfiguration, err)
	}

	d := &domain.Design{}
	for _, xp := range x.Packages {
		p := domain.PackageDecl{
			Name:        xp.Name,
			Package:     xp.Package,
			Subpackages: xp.Subpackages,
		}
		var err error
		if p.NeedDeclarations, err = parseFlag(xp.NeedDeclarations); err != nil {
			return nil, domain.NewConfigError(xp.Name, "needdeclarations: %v", err)
		}
		if p.NeedDepends, err = parseFlag(xp.NeedDepends); err != nil {
			return nil, domain.NewConfigError(xp.Name, "needdepends: %v", err)
		}
		// The attribute is a comma separated list; nested elements add more.
		if xp.DependsAttr != "" {
			for _, dep := range strings.Split(xp.DependsAttr, ",") {
				p.Depends = append(p.Depends, strings.TrimSpace(dep))
			}
		}
		for _, dep := range xp.Depends {
			p.Depends = append(p.Depends, strings.TrimSpace(dep))
		}
		d.Packages = append(d.Packages, p)
	}
	return d, nil
}

func encodeXML(d *domain.Design) ([]byte, error) {
	x := xmlDesign{}
	for _, p := range d.Packages {
		x.Packages = append(x.Packages, xmlPackage{
			Name:             p.Name,
			Package:          p.Package,
			Subpackages:      p.Subpackages,
			NeedDeclarations: formatFlag(p.NeedDeclarations),
			NeedDepends:      formatFlag(p.NeedDepends),
			Depends:          p.Depends,
		})
	}
	out, err := xml.MarshalIndent(x, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding design: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// parseFlag accepts the boolean spellings build files commonly use.
func parseFlag(s string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, nil
	case "yes", "on":
		return domain.BoolPtr(true), nil
	case "no", "off":
		return domain.BoolPtr(false), nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%q is not a boolean", s)
	}
	return &b, nil
}

func formatFlag(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}
