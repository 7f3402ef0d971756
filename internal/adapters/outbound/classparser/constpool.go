package classparser

import (
	"fmt"

	"github.com/openkraft/archverify/internal/domain"
)

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

type cpEntry struct {
	tag  uint8
	utf8 string
	a, b uint16
}

// constantPool is indexed from 1; slot 0 and the slot after a long or double
// hold zero entries.
type constantPool []cpEntry

func readConstantPool(r *reader) (constantPool, error) {
	count := int(r.u2())
	cp := make(constantPool, count)
	for i := 1; i < count; i++ {
		tag := r.u1()
		e := cpEntry{tag: tag}
		switch tag {
		case tagUtf8:
			n := int(r.u2())
			s, err := decodeModifiedUTF8(r.bytes(n))
			if err != nil {
				return nil, err
			}
			e.utf8 = s
		case tagInteger, tagFloat:
			r.skip(4)
		case tagLong, tagDouble:
			r.skip(8)
			cp[i] = e
			i++
			continue
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			e.a = r.u2()
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType, tagDynamic, tagInvokeDynamic:
			e.a = r.u2()
			e.b = r.u2()
		case tagMethodHandle:
			e.a = uint16(r.u1())
			e.b = r.u2()
		default:
			if r.err != nil {
				return nil, r.err
			}
			return nil, fmt.Errorf("%w: unknown constant pool tag %d at index %d", domain.ErrStructural, tag, i)
		}
		if r.err != nil {
			return nil, r.err
		}
		cp[i] = e
	}
	return cp, r.err
}

func (cp constantPool) entry(i uint16, tag uint8) (cpEntry, error) {
	if i == 0 || int(i) >= len(cp) {
		return cpEntry{}, fmt.Errorf("%w: constant pool index %d out of range", domain.ErrStructural, i)
	}
	e := cp[i]
	if e.tag != tag {
		return cpEntry{}, fmt.Errorf("%w: constant pool index %d has tag %d, want %d", domain.ErrStructural, i, e.tag, tag)
	}
	return e, nil
}

func (cp constantPool) utf8(i uint16) (string, error) {
	e, err := cp.entry(i, tagUtf8)
	return e.utf8, err
}

// className returns the internal name of a Class entry.
func (cp constantPool) className(i uint16) (string, error) {
	e, err := cp.entry(i, tagClass)
	if err != nil {
		return "", err
	}
	return cp.utf8(e.a)
}

func (cp constantPool) isClass(i uint16) bool {
	return i != 0 && int(i) < len(cp) && cp[i].tag == tagClass
}

// fieldRef returns owner, name, and descriptor of a Fieldref entry.
func (cp constantPool) fieldRef(i uint16) (owner, name, desc string, err error) {
	e, err := cp.entry(i, tagFieldref)
	if err != nil {
		return "", "", "", err
	}
	if owner, err = cp.className(e.a); err != nil {
		return "", "", "", err
	}
	nt, err := cp.entry(e.b, tagNameAndType)
	if err != nil {
		return "", "", "", err
	}
	if name, err = cp.utf8(nt.a); err != nil {
		return "", "", "", err
	}
	desc, err = cp.utf8(nt.b)
	return owner, name, desc, err
}

// classEntries returns the internal names of all Class entries in pool order.
func (cp constantPool) classEntries() ([]string, error) {
	var out []string
	for i := 1; i < len(cp); i++ {
		if cp[i].tag != tagClass {
			continue
		}
		name, err := cp.utf8(cp[i].a)
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}
