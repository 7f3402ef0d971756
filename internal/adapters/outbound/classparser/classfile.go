package classparser

import (
	"fmt"

	"github.com/openkraft/archverify/internal/domain"
)

const magic = 0xCAFEBABE

// ClassFile is the structural content of a parsed class file. Names are in
// internal form (slash separated).
type ClassFile struct {
	Minor, Major uint16
	AccessFlags  uint16
	ThisClass    string
	SuperClass   string
	Interfaces   []string
	Fields       []Member
	Methods      []Member
	Attributes   []Attribute

	pool constantPool
}

// Member is a field or method.
type Member struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Attributes  []Attribute
}

// Attribute is a raw named attribute.
type Attribute struct {
	Name string
	Data []byte
}

// Attribute returns the first attribute with the given name.
func (m Member) Attribute(name string) (Attribute, bool) {
	for _, a := range m.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Parse decodes a class file. Any malformation is reported as
// domain.ErrStructural.
func Parse(data []byte) (*ClassFile, error) {
	r := newReader(data)
	if m := r.u4(); r.err == nil && m != magic {
		return nil, fmt.Errorf("%w: bad magic 0x%08X, not a class file", domain.ErrStructural, m)
	}
	cf := &ClassFile{Minor: r.u2(), Major: r.u2()}
	if r.err != nil {
		return nil, r.err
	}

	pool, err := readConstantPool(r)
	if err != nil {
		return nil, err
	}
	cf.pool = pool

	cf.AccessFlags = r.u2()
	thisIdx, superIdx := r.u2(), r.u2()
	if r.err != nil {
		return nil, r.err
	}
	if cf.ThisClass, err = pool.className(thisIdx); err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}
	if superIdx != 0 {
		if cf.SuperClass, err = pool.className(superIdx); err != nil {
			return nil, fmt.Errorf("super_class: %w", err)
		}
	}

	n := int(r.u2())
	for i := 0; i < n; i++ {
		idx := r.u2()
		if r.err != nil {
			return nil, r.err
		}
		name, err := pool.className(idx)
		if err != nil {
			return nil, fmt.Errorf("interface %d: %w", i, err)
		}
		cf.Interfaces = append(cf.Interfaces, name)
	}

	if cf.Fields, err = readMembers(r, pool); err != nil {
		return nil, fmt.Errorf("fields: %w", err)
	}
	if cf.Methods, err = readMembers(r, pool); err != nil {
		return nil, fmt.Errorf("methods: %w", err)
	}
	if cf.Attributes, err = readAttributes(r, pool); err != nil {
		return nil, fmt.Errorf("class attributes: %w", err)
	}
	return cf, nil
}

func readMembers(r *reader, pool constantPool) ([]Member, error) {
	n := int(r.u2())
	members := make([]Member, 0, n)
	for i := 0; i < n; i++ {
		flags, nameIdx, descIdx := r.u2(), r.u2(), r.u2()
		if r.err != nil {
			return nil, r.err
		}
		name, err := pool.utf8(nameIdx)
		if err != nil {
			return nil, err
		}
		desc, err := pool.utf8(descIdx)
		if err != nil {
			return nil, err
		}
		attrs, err := readAttributes(r, pool)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		members = append(members, Member{AccessFlags: flags, Name: name, Descriptor: desc, Attributes: attrs})
	}
	return members, r.err
}

func readAttributes(r *reader, pool constantPool) ([]Attribute, error) {
	n := int(r.u2())
	var attrs []Attribute
	for i := 0; i < n; i++ {
		nameIdx := r.u2()
		length := int(r.u4())
		data := r.bytes(length)
		if r.err != nil {
			return nil, r.err
		}
		name, err := pool.utf8(nameIdx)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, Attribute{Name: name, Data: data})
	}
	return attrs, r.err
}

// ExceptionHandler is one entry of a Code attribute's exception table.
// CatchType is zero for finally blocks.
type ExceptionHandler struct {
	StartPC, EndPC, HandlerPC, CatchType uint16
}

// Code is a decoded Code attribute.
type Code struct {
	MaxStack, MaxLocals uint16
	Bytecode            []byte
	Handlers            []ExceptionHandler
	Attributes          []Attribute
}

// Attribute returns the first nested attribute with the given name.
func (c *Code) Attribute(name string) (Attribute, bool) {
	for _, a := range c.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

func (cf *ClassFile) parseCode(a Attribute) (*Code, error) {
	r := newReader(a.Data)
	c := &Code{MaxStack: r.u2(), MaxLocals: r.u2()}
	c.Bytecode = r.bytes(int(r.u4()))
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		c.Handlers = append(c.Handlers, ExceptionHandler{
			StartPC: r.u2(), EndPC: r.u2(), HandlerPC: r.u2(), CatchType: r.u2(),
		})
	}
	if r.err != nil {
		return nil, r.err
	}
	attrs, err := readAttributes(r, cf.pool)
	if err != nil {
		return nil, err
	}
	c.Attributes = attrs
	return c, nil
}

// classList decodes an attribute holding a u2 count followed by Class
// indices (Exceptions).
func (cf *ClassFile) classList(a Attribute) ([]string, error) {
	r := newReader(a.Data)
	n := int(r.u2())
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		idx := r.u2()
		if r.err != nil {
			return nil, r.err
		}
		name, err := cf.pool.className(idx)
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

// localVariableDescriptors decodes a LocalVariableTable attribute.
func (cf *ClassFile) localVariableDescriptors(a Attribute) ([]string, error) {
	r := newReader(a.Data)
	n := int(r.u2())
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		r.skip(4) // start_pc, length
		r.skip(2) // name_index
		descIdx := r.u2()
		r.skip(2) // index
		if r.err != nil {
			return nil, r.err
		}
		desc, err := cf.pool.utf8(descIdx)
		if err != nil {
			return nil, err
		}
		out = append(out, desc)
	}
	return out, nil
}
