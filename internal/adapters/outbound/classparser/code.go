package classparser

import (
	"encoding/binary"
	"fmt"

	"github.com/openkraft/archverify/internal/domain"
)

// Opcodes with type operands.
const (
	opLdc            = 0x12
	opLdcW           = 0x13
	opPutStatic      = 0xb3
	opNew            = 0xbb
	opANewArray      = 0xbd
	opCheckCast      = 0xc0
	opInstanceOf     = 0xc1
	opMultiANewArray = 0xc5

	opTableSwitch  = 0xaa
	opLookupSwitch = 0xab
	opWide         = 0xc4
	opIinc         = 0x84
)

// operandLength gives the fixed operand size of each opcode; -1 marks
// variable-length and -2 undefined opcodes.
var operandLength [256]int

func init() {
	for i := range operandLength {
		operandLength[i] = -2
	}
	set := func(lo, hi, n int) {
		for op := lo; op <= hi; op++ {
			operandLength[op] = n
		}
	}
	set(0x00, 0x0f, 0) // nop .. dconst_1
	set(0x10, 0x10, 1) // bipush
	set(0x11, 0x11, 2) // sipush
	set(0x12, 0x12, 1) // ldc
	set(0x13, 0x14, 2) // ldc_w, ldc2_w
	set(0x15, 0x19, 1) // iload .. aload
	set(0x1a, 0x35, 0) // iload_0 .. saload
	set(0x36, 0x3a, 1) // istore .. astore
	set(0x3b, 0x83, 0) // istore_0 .. lxor
	set(0x84, 0x84, 2) // iinc
	set(0x85, 0x98, 0) // conversions, comparisons
	set(0x99, 0xa8, 2) // if*, goto, jsr
	set(0xa9, 0xa9, 1) // ret
	set(0xaa, 0xab, -1)
	set(0xac, 0xb1, 0) // returns
	set(0xb2, 0xb8, 2) // field access, invokevirtual/special/static
	set(0xb9, 0xba, 4) // invokeinterface, invokedynamic
	set(0xbb, 0xbb, 2) // new
	set(0xbc, 0xbc, 1) // newarray
	set(0xbd, 0xbd, 2) // anewarray
	set(0xbe, 0xbf, 0) // arraylength, athrow
	set(0xc0, 0xc1, 2) // checkcast, instanceof
	set(0xc2, 0xc3, 0) // monitorenter, monitorexit
	set(0xc4, 0xc4, -1)
	set(0xc5, 0xc5, 3) // multianewarray
	set(0xc6, 0xc7, 2) // ifnull, ifnonnull
	set(0xc8, 0xc9, 4) // goto_w, jsr_w
	set(0xca, 0xca, 0) // breakpoint
	set(0xfe, 0xff, 0) // impdep1, impdep2
}

// walkCode calls fn for every instruction with its pc, opcode, and operand
// bytes (after any switch padding).
func walkCode(code []byte, fn func(pc int, op byte, operands []byte) error) error {
	for pc := 0; pc < len(code); {
		op := code[pc]
		n := operandLength[op]
		start := pc + 1

		switch {
		case n == -2:
			return fmt.Errorf("%w: undefined opcode 0x%02x at pc %d", domain.ErrStructural, op, pc)
		case op == opWide:
			if start >= len(code) {
				return truncatedCode(pc)
			}
			n = 3 // modified opcode + u2 index
			if code[start] == opIinc {
				n = 5
			}
		case op == opTableSwitch || op == opLookupSwitch:
			pad := (4 - start%4) % 4
			head := start + pad
			fixed := 8
			if op == opTableSwitch {
				fixed = 12
			}
			if head+fixed > len(code) {
				return truncatedCode(pc)
			}
			var entries int64
			if op == opTableSwitch {
				low := int32(binary.BigEndian.Uint32(code[head+4:]))
				high := int32(binary.BigEndian.Uint32(code[head+8:]))
				if high < low {
					return fmt.Errorf("%w: tableswitch high < low at pc %d", domain.ErrStructural, pc)
				}
				entries = (int64(high) - int64(low) + 1) * 4
			} else {
				npairs := int32(binary.BigEndian.Uint32(code[head+4:]))
				if npairs < 0 {
					return fmt.Errorf("%w: negative lookupswitch pairs at pc %d", domain.ErrStructural, pc)
				}
				entries = int64(npairs) * 8
			}
			// Sizes are checked in int64 so a huge jump table cannot wrap.
			if int64(head)+int64(fixed)+entries > int64(len(code)) {
				return truncatedCode(pc)
			}
			n = pad + fixed + int(entries)
			if err := fn(pc, op, code[head:start+n]); err != nil {
				return err
			}
			pc = start + n
			continue
		}

		if start+n > len(code) {
			return truncatedCode(pc)
		}
		if err := fn(pc, op, code[start:start+n]); err != nil {
			return err
		}
		pc = start + n
	}
	return nil
}

func truncatedCode(pc int) error {
	return fmt.Errorf("%w: truncated instruction at pc %d", domain.ErrStructural, pc)
}
