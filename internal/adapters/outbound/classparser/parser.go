package classparser

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/openkraft/archverify/internal/domain"
)

// Reference origins.
const (
	OriginSuperclass     = "superclass"
	OriginInterface      = "interface"
	OriginField          = "field"
	OriginReturn         = "return"
	OriginParameter      = "parameter"
	OriginThrows         = "throws"
	OriginCatch          = "catch"
	OriginNew            = "new"
	OriginCheckCast      = "checkcast"
	OriginInstanceOf     = "instanceof"
	OriginANewArray      = "anewarray"
	OriginMultiANewArray = "multianewarray"
	OriginLdc            = "ldc"
	OriginClassLiteral   = "class_literal"
	OriginLocalVariable  = "local_variable"
	OriginConstantPool   = "constant_pool"
)

const (
	classLiteralPrefix = "class$"
	arrayLiteralPrefix = "array$"
)

// Version changes whenever the extracted references change for the same
// input, which invalidates cached analyses.
const Version = "1"

var _ domain.ClassAnalyzer = (*Analyzer)(nil)

// Analyzer extracts referenced type names from class files.
type Analyzer struct{}

// New creates a class file analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze parses data and returns the class name and every type it
// references, in a fixed order: superclass, interfaces, field types, then
// per method its signature, throws clause and body, and finally all Class
// constants from the pool.
func (a *Analyzer) Analyze(data []byte) (*domain.AnalyzedClass, error) {
	cf, err := Parse(data)
	if err != nil {
		return nil, err
	}

	out := &domain.AnalyzedClass{Name: strings.ReplaceAll(cf.ThisClass, "/", ".")}
	e := &emitter{}

	if cf.SuperClass != "" {
		out.Super = strings.ReplaceAll(cf.SuperClass, "/", ".")
		e.internal(cf.SuperClass, OriginSuperclass)
	}
	for _, iface := range cf.Interfaces {
		e.internal(iface, OriginInterface)
	}

	for _, f := range cf.Fields {
		t, err := FieldType(f.Descriptor)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		e.add(t, OriginField)
	}

	for _, m := range cf.Methods {
		missing, err := cf.methodRefs(m, e)
		if err != nil {
			return nil, fmt.Errorf("method %s%s: %w", m.Name, m.Descriptor, err)
		}
		if missing {
			out.MissingLineNumbers = append(out.MissingLineNumbers, m.Name+m.Descriptor)
		}
	}

	names, err := cf.pool.classEntries()
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		e.internal(n, OriginConstantPool)
	}

	if e.err != nil {
		return nil, e.err
	}
	out.References = e.refs
	return out, nil
}

// methodRefs emits the references of one method and reports whether it has
// code without a LineNumberTable.
func (cf *ClassFile) methodRefs(m Member, e *emitter) (bool, error) {
	params, ret, err := MethodType(m.Descriptor)
	if err != nil {
		return false, err
	}
	if ret != "void" {
		e.add(ret, OriginReturn)
	}
	for _, p := range params {
		e.add(p, OriginParameter)
	}

	if attr, ok := m.Attribute("Exceptions"); ok {
		thrown, err := cf.classList(attr)
		if err != nil {
			return false, fmt.Errorf("exceptions: %w", err)
		}
		for _, t := range thrown {
			e.internal(t, OriginThrows)
		}
	}

	attr, ok := m.Attribute("Code")
	if !ok {
		return false, nil
	}
	code, err := cf.parseCode(attr)
	if err != nil {
		return false, fmt.Errorf("code: %w", err)
	}

	for _, h := range code.Handlers {
		if h.CatchType == 0 {
			continue
		}
		name, err := cf.pool.className(h.CatchType)
		if err != nil {
			return false, fmt.Errorf("catch type: %w", err)
		}
		e.internal(name, OriginCatch)
	}

	if err := walkCode(code.Bytecode, func(pc int, op byte, operands []byte) error {
		return cf.instructionRefs(op, operands, e)
	}); err != nil {
		return false, err
	}

	for _, lvt := range code.Attributes {
		if lvt.Name != "LocalVariableTable" {
			continue
		}
		descs, err := cf.localVariableDescriptors(lvt)
		if err != nil {
			return false, fmt.Errorf("local variables: %w", err)
		}
		for _, d := range descs {
			t, err := FieldType(d)
			if err != nil {
				return false, err
			}
			e.add(t, OriginLocalVariable)
		}
	}

	_, hasLines := code.Attribute("LineNumberTable")
	return !hasLines, nil
}

func (cf *ClassFile) instructionRefs(op byte, operands []byte, e *emitter) error {
	var origin string
	switch op {
	case opNew:
		origin = OriginNew
	case opCheckCast:
		origin = OriginCheckCast
	case opInstanceOf:
		origin = OriginInstanceOf
	case opANewArray:
		origin = OriginANewArray
	case opMultiANewArray:
		origin = OriginMultiANewArray
	case opLdc, opLdcW:
		idx := uint16(operands[0])
		if op == opLdcW {
			idx = binary.BigEndian.Uint16(operands)
		}
		if !cf.pool.isClass(idx) {
			return nil
		}
		name, err := cf.pool.className(idx)
		if err != nil {
			return err
		}
		e.internal(name, OriginLdc)
		return nil
	case opPutStatic:
		_, field, _, err := cf.pool.fieldRef(binary.BigEndian.Uint16(operands))
		if err != nil {
			return err
		}
		if lit, ok := decodeClassLiteral(field); ok {
			e.add(lit, OriginClassLiteral)
		}
		return nil
	default:
		return nil
	}

	name, err := cf.pool.className(binary.BigEndian.Uint16(operands))
	if err != nil {
		return err
	}
	e.internal(name, origin)
	return nil
}

// decodeClassLiteral decodes the synthetic static fields older compilers
// generate to cache class literals: class$a$b$C for a.b.C.class and
// array$La$b$C for a.b.C[].class. Array literals are returned in descriptor
// form.
func decodeClassLiteral(field string) (string, bool) {
	switch {
	case strings.HasPrefix(field, classLiteralPrefix):
		rest := field[len(classLiteralPrefix):]
		if rest == "" {
			return "", false
		}
		return strings.ReplaceAll(rest, "$", "."), true
	case strings.HasPrefix(field, arrayLiteralPrefix):
		rest := strings.ReplaceAll(field[len(arrayLiteralPrefix):], "$", ".")
		rest = strings.TrimLeft(rest, ".")
		if rest == "" {
			return "", false
		}
		if rest[0] == 'L' {
			return "[" + rest + ";", true
		}
		return "[" + rest, true
	}
	return "", false
}

// emitter collects references and keeps the first conversion error.
type emitter struct {
	refs []domain.TypeRef
	err  error
}

func (e *emitter) add(name, origin string) {
	e.refs = append(e.refs, domain.TypeRef{Name: name, Origin: origin})
}

func (e *emitter) internal(name, origin string) {
	src, err := SourceName(name)
	if err != nil {
		if e.err == nil {
			e.err = err
		}
		return
	}
	e.add(src, origin)
}
