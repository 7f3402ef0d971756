// Package classtest builds minimal class files for tests.
package classtest

import (
	"bytes"
	"encoding/binary"
	"strings"
)

const (
	accPublic = 0x0001
	accSuper  = 0x0020
	accStatic = 0x0008
)

// Class describes a class file to build. Names may be given dotted or
// slash separated.
type Class struct {
	name       string
	super      string
	interfaces []string
	fields     []field
	methods    []*method
	longs      []int64
	classes    []string
}

type field struct{ name, desc string }

type method struct {
	name, desc string
	throws     []string
	code       []Instr
	hasCode    bool
	noLines    bool
	locals     []field
	catchTypes []string
}

// NewClass starts a class. An empty super produces a class without a
// superclass (like java.lang.Object).
func NewClass(name, super string) *Class {
	return &Class{name: internal(name), super: internal(super)}
}

// Implements adds interfaces.
func (c *Class) Implements(names ...string) *Class {
	for _, n := range names {
		c.interfaces = append(c.interfaces, internal(n))
	}
	return c
}

// Field adds a field with the given descriptor.
func (c *Class) Field(name, desc string) *Class {
	c.fields = append(c.fields, field{name, desc})
	return c
}

// Method adds a method with the given descriptor.
func (c *Class) Method(name, desc string, opts ...MethodOption) *Class {
	m := &method{name: name, desc: desc}
	for _, o := range opts {
		o(m)
	}
	c.methods = append(c.methods, m)
	return c
}

// ConstantLong adds a long constant, which takes two pool slots.
func (c *Class) ConstantLong(v int64) *Class {
	c.longs = append(c.longs, v)
	return c
}

// ClassConstant adds a Class entry to the pool that nothing else uses.
func (c *Class) ClassConstant(name string) *Class {
	c.classes = append(c.classes, internal(name))
	return c
}

// MethodOption configures a method.
type MethodOption func(*method)

// Throws sets the Exceptions attribute.
func Throws(names ...string) MethodOption {
	return func(m *method) {
		for _, n := range names {
			m.throws = append(m.throws, internal(n))
		}
	}
}

// Code gives the method a body. A trailing return is appended.
func Code(instrs ...Instr) MethodOption {
	return func(m *method) {
		m.hasCode = true
		m.code = append(m.code, instrs...)
	}
}

// WithoutLineNumbers omits the LineNumberTable from the method's code.
func WithoutLineNumbers() MethodOption {
	return func(m *method) { m.noLines = true }
}

// Local adds a LocalVariableTable entry.
func Local(name, desc string) MethodOption {
	return func(m *method) {
		m.hasCode = true
		m.locals = append(m.locals, field{name, desc})
	}
}

// Catch adds an exception handler for the given type.
func Catch(name string) MethodOption {
	return func(m *method) {
		m.hasCode = true
		m.catchTypes = append(m.catchTypes, internal(name))
	}
}

// Instr encodes one instruction, adding any constants it needs to the pool.
type Instr func(p *Pool) []byte

func classOp(op byte, name string) Instr {
	return func(p *Pool) []byte {
		return u2op(op, p.Class(internal(name)))
	}
}

// New is the new instruction.
func New(name string) Instr { return classOp(0xbb, name) }

// CheckCast is the checkcast instruction.
func CheckCast(name string) Instr { return classOp(0xc0, name) }

// InstanceOf is the instanceof instruction.
func InstanceOf(name string) Instr { return classOp(0xc1, name) }

// ANewArray is the anewarray instruction; name is the component type.
func ANewArray(name string) Instr { return classOp(0xbd, name) }

// MultiANewArray is the multianewarray instruction; desc is the array
// descriptor, e.g. "[[Lcom/acme/Foo;".
func MultiANewArray(desc string, dims uint8) Instr {
	return func(p *Pool) []byte {
		return append(u2op(0xc5, p.Class(desc)), dims)
	}
}

// LdcClass loads a class literal, using ldc_w when the index needs it.
func LdcClass(name string) Instr {
	return func(p *Pool) []byte {
		idx := p.Class(internal(name))
		if idx < 256 {
			return []byte{0x12, byte(idx)}
		}
		return u2op(0x13, idx)
	}
}

// PutStatic stores to a static field.
func PutStatic(owner, name, desc string) Instr {
	return func(p *Pool) []byte {
		return u2op(0xb3, p.Fieldref(internal(owner), name, desc))
	}
}

// InvokeStatic calls a static method.
func InvokeStatic(owner, name, desc string) Instr {
	return func(p *Pool) []byte {
		return u2op(0xb8, p.Methodref(internal(owner), name, desc))
	}
}

// Raw emits bytes as is.
func Raw(b ...byte) Instr {
	return func(*Pool) []byte { return b }
}

// Return is the return instruction.
func Return() Instr { return Raw(0xb1) }

func u2op(op byte, idx uint16) []byte {
	return []byte{op, byte(idx >> 8), byte(idx)}
}

// Bytes encodes the class file.
func (c *Class) Bytes() []byte {
	p := newPool()
	thisIdx := p.Class(c.name)
	var superIdx uint16
	if c.super != "" {
		superIdx = p.Class(c.super)
	}
	ifaces := make([]uint16, len(c.interfaces))
	for i, n := range c.interfaces {
		ifaces[i] = p.Class(n)
	}
	for _, v := range c.longs {
		p.Long(v)
	}
	for _, n := range c.classes {
		p.Class(n)
	}

	var body bytes.Buffer
	w16(&body, uint16(len(c.fields)))
	for _, f := range c.fields {
		w16(&body, accPublic)
		w16(&body, p.Utf8(f.name))
		w16(&body, p.Utf8(f.desc))
		w16(&body, 0)
	}
	w16(&body, uint16(len(c.methods)))
	for _, m := range c.methods {
		m.encode(&body, p)
	}
	w16(&body, 0) // class attributes

	var out bytes.Buffer
	w32(&out, 0xCAFEBABE)
	w16(&out, 0)
	w16(&out, 52)
	p.encode(&out)
	w16(&out, accPublic|accSuper)
	w16(&out, thisIdx)
	w16(&out, superIdx)
	w16(&out, uint16(len(ifaces)))
	for _, i := range ifaces {
		w16(&out, i)
	}
	out.Write(body.Bytes())
	return out.Bytes()
}

func (m *method) encode(buf *bytes.Buffer, p *Pool) {
	w16(buf, accPublic|accStatic)
	w16(buf, p.Utf8(m.name))
	w16(buf, p.Utf8(m.desc))

	var attrs []attribute
	if len(m.throws) > 0 {
		var a bytes.Buffer
		w16(&a, uint16(len(m.throws)))
		for _, t := range m.throws {
			w16(&a, p.Class(t))
		}
		attrs = append(attrs, attribute{"Exceptions", a.Bytes()})
	}
	if m.hasCode {
		attrs = append(attrs, attribute{"Code", m.codeAttribute(p)})
	}

	w16(buf, uint16(len(attrs)))
	for _, a := range attrs {
		a.encode(buf, p)
	}
}

func (m *method) codeAttribute(p *Pool) []byte {
	var code []byte
	for _, in := range m.code {
		code = append(code, in(p)...)
	}
	code = append(code, 0xb1)

	var a bytes.Buffer
	w16(&a, 8) // max_stack
	w16(&a, uint16(len(m.locals)+1))
	w32(&a, uint32(len(code)))
	a.Write(code)
	w16(&a, uint16(len(m.catchTypes)))
	for _, t := range m.catchTypes {
		w16(&a, 0)
		w16(&a, uint16(len(code)))
		w16(&a, 0)
		w16(&a, p.Class(t))
	}

	var nested []attribute
	if !m.noLines {
		var lines bytes.Buffer
		w16(&lines, 1)
		w16(&lines, 0)
		w16(&lines, 1)
		nested = append(nested, attribute{"LineNumberTable", lines.Bytes()})
	}
	if len(m.locals) > 0 {
		var lvt bytes.Buffer
		w16(&lvt, uint16(len(m.locals)))
		for i, l := range m.locals {
			w16(&lvt, 0)
			w16(&lvt, uint16(len(code)))
			w16(&lvt, p.Utf8(l.name))
			w16(&lvt, p.Utf8(l.desc))
			w16(&lvt, uint16(i))
		}
		nested = append(nested, attribute{"LocalVariableTable", lvt.Bytes()})
	}
	w16(&a, uint16(len(nested)))
	for _, n := range nested {
		n.encode(&a, p)
	}
	return a.Bytes()
}

type attribute struct {
	name string
	data []byte
}

func (a attribute) encode(buf *bytes.Buffer, p *Pool) {
	w16(buf, p.Utf8(a.name))
	w32(buf, uint32(len(a.data)))
	buf.Write(a.data)
}

// Pool is a deduplicating constant pool under construction.
type Pool struct {
	entries [][]byte
	index   map[string]uint16
	next    uint16
}

func newPool() *Pool {
	return &Pool{index: make(map[string]uint16), next: 1}
}

func (p *Pool) add(key string, slots uint16, data []byte) uint16 {
	if i, ok := p.index[key]; ok {
		return i
	}
	i := p.next
	p.entries = append(p.entries, data)
	p.index[key] = i
	p.next += slots
	return i
}

// Utf8 adds a Utf8 entry.
func (p *Pool) Utf8(s string) uint16 {
	data := []byte{1, byte(len(s) >> 8), byte(len(s))}
	return p.add("u:"+s, 1, append(data, s...))
}

// Class adds a Class entry for an internal name or array descriptor.
func (p *Pool) Class(name string) uint16 {
	n := p.Utf8(name)
	return p.add("c:"+name, 1, []byte{7, byte(n >> 8), byte(n)})
}

// Long adds a Long entry.
func (p *Pool) Long(v int64) uint16 {
	data := make([]byte, 9)
	data[0] = 5
	binary.BigEndian.PutUint64(data[1:], uint64(v))
	return p.add("l:"+string(data[1:]), 2, data)
}

func (p *Pool) nameAndType(name, desc string) uint16 {
	n, d := p.Utf8(name), p.Utf8(desc)
	return p.add("nt:"+name+":"+desc, 1, []byte{12, byte(n >> 8), byte(n), byte(d >> 8), byte(d)})
}

func (p *Pool) memberRef(tag byte, owner, name, desc string) uint16 {
	c, nt := p.Class(owner), p.nameAndType(name, desc)
	key := string(rune('0'+tag)) + ":" + owner + "." + name + ":" + desc
	return p.add(key, 1, []byte{tag, byte(c >> 8), byte(c), byte(nt >> 8), byte(nt)})
}

// Fieldref adds a Fieldref entry.
func (p *Pool) Fieldref(owner, name, desc string) uint16 {
	return p.memberRef(9, owner, name, desc)
}

// Methodref adds a Methodref entry.
func (p *Pool) Methodref(owner, name, desc string) uint16 {
	return p.memberRef(10, owner, name, desc)
}

func (p *Pool) encode(buf *bytes.Buffer) {
	w16(buf, p.next)
	for _, e := range p.entries {
		buf.Write(e)
	}
}

func internal(name string) string {
	if strings.HasPrefix(name, "[") {
		return name
	}
	return strings.ReplaceAll(name, ".", "/")
}

func w16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func w32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
