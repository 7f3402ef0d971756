package classparser

import (
	"encoding/binary"
	"fmt"

	"github.com/openkraft/archverify/internal/domain"
)

// reader is a big-endian cursor over a class file. The first out-of-bounds
// read sets err and every later read returns zero values.
type reader struct {
	buf []byte
	pos int
	err error
}

func newReader(buf []byte) *reader { return &reader{buf: buf} }

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.pos+n > len(r.buf) {
		r.err = fmt.Errorf("%w: truncated at offset %d (need %d bytes, have %d)",
			domain.ErrStructural, r.pos, n, len(r.buf)-r.pos)
		return false
	}
	return true
}

func (r *reader) u1() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *reader) u2() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) u4() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.buf[r.pos : r.pos+n]
	r.pos += n
	return v
}

func (r *reader) skip(n int) {
	if r.need(n) {
		r.pos += n
	}
}

// decodeModifiedUTF8 decodes the JVM's modified UTF-8 (two-byte NUL, no
// four-byte forms; supplementary characters arrive as surrogate pairs).
func decodeModifiedUTF8(b []byte) (string, error) {
	ascii := true
	for _, c := range b {
		if c >= 0x80 || c == 0 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b), nil
	}

	out := make([]rune, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c&0x80 == 0 && c != 0:
			out = append(out, rune(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b):
			out = append(out, rune(c&0x1F)<<6|rune(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b):
			out = append(out, rune(c&0x0F)<<12|rune(b[i+1]&0x3F)<<6|rune(b[i+2]&0x3F))
			i += 3
		default:
			return "", fmt.Errorf("%w: malformed modified UTF-8 at byte %d", domain.ErrStructural, i)
		}
	}
	return string(out), nil
}
