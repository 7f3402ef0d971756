package classparser

import (
	"testing"

	"github.com/openkraft/archverify/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opcodes(t *testing.T, code []byte) []byte {
	t.Helper()
	var ops []byte
	err := walkCode(code, func(_ int, op byte, _ []byte) error {
		ops = append(ops, op)
		return nil
	})
	require.NoError(t, err)
	return ops
}

func TestWalkCode_TableSwitchPadding(t *testing.T) {
	code := []byte{
		0x00,       // nop, pc 0
		0xaa, 0, 0, // tableswitch at pc 1, padded to pc 4
		0, 0, 0, 0, // default
		0, 0, 0, 5, // low
		0, 0, 0, 6, // high
		0, 0, 0, 0,
		0, 0, 0, 0,
		0xbb, 0, 1, // new
		0xb1,
	}
	assert.Equal(t, []byte{0x00, 0xaa, 0xbb, 0xb1}, opcodes(t, code))
}

func TestWalkCode_LookupSwitch(t *testing.T) {
	code := []byte{
		0x00, 0x00, 0x00, // pc 0..2
		0xab,       // lookupswitch at pc 3, no padding
		0, 0, 0, 0, // default
		0, 0, 0, 2, // npairs
		0, 0, 0, 1, 0, 0, 0, 0,
		0, 0, 0, 2, 0, 0, 0, 0,
		0xc0, 0, 1, // checkcast
	}
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0xab, 0xc0}, opcodes(t, code))
}

func TestWalkCode_Wide(t *testing.T) {
	code := []byte{
		0xc4, 0x84, 0, 1, 0, 1, // wide iinc
		0xc4, 0x15, 0, 1, // wide iload
		0xb1,
	}
	assert.Equal(t, []byte{0xc4, 0xc4, 0xb1}, opcodes(t, code))
}

func TestWalkCode_Operands(t *testing.T) {
	var got [][]byte
	err := walkCode([]byte{0xc5, 0, 7, 2, 0x10, 9}, func(_ int, _ byte, operands []byte) error {
		got = append(got, operands)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0, 7, 2}, {9}}, got)
}

func TestWalkCode_Errors(t *testing.T) {
	tests := map[string][]byte{
		"undefined opcode":   {0xcb},
		"truncated operand":  {0xbb, 0},
		"truncated wide":     {0xc4},
		"truncated switch":   {0xaa, 0, 0, 0, 0, 0},
		"inverted switch":    {0xaa, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 1},
		"negative lookupsw":  {0xab, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff},
		"overflowing switch": {0xaa, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff, 0xff, 0xfe, 0x7f, 0xff, 0xff, 0xff},
		"huge lookupswitch":  {0xab, 0, 0, 0, 0, 0, 0, 0, 0x7f, 0xff, 0xff, 0xff},
	}
	for name, code := range tests {
		t.Run(name, func(t *testing.T) {
			err := walkCode(code, func(int, byte, []byte) error { return nil })
			assert.ErrorIs(t, err, domain.ErrStructural)
		})
	}
}

func TestDecodeClassLiteral(t *testing.T) {
	tests := []struct {
		field string
		want  string
		ok    bool
	}{
		{"class$com$acme$Foo", "com.acme.Foo", true},
		{"array$Lcom$acme$Foo", "[Lcom.acme.Foo;", true},
		{"array$$Lcom$acme$Foo", "[Lcom.acme.Foo;", true},
		{"array$I", "[I", true},
		{"class$", "", false},
		{"counter", "", false},
	}
	for _, tt := range tests {
		got, ok := decodeClassLiteral(tt.field)
		assert.Equal(t, tt.ok, ok, tt.field)
		assert.Equal(t, tt.want, got, tt.field)
	}
}
