// Package bintest builds big-endian fixtures for tests of the container
// readers.
package bintest

import (
	"encoding/binary"
	"math"
)

// Builder appends big-endian values to a growing buffer.
type Builder struct {
	Buf []byte
}

func (b *Builder) Off() int { return len(b.Buf) }

func (b *Builder) Bytes() []byte { return b.Buf }

func (b *Builder) Raw(v ...byte) *Builder {
	b.Buf = append(b.Buf, v...)
	return b
}

func (b *Builder) Uint8(v uint8) *Builder {
	b.Buf = append(b.Buf, v)
	return b
}

func (b *Builder) Bool(v bool) *Builder {
	if v {
		return b.Uint8(1)
	}
	return b.Uint8(0)
}

func (b *Builder) Int16(v int16) *Builder {
	b.Buf = binary.BigEndian.AppendUint16(b.Buf, uint16(v))
	return b
}

func (b *Builder) Uint32(v uint32) *Builder {
	b.Buf = binary.BigEndian.AppendUint32(b.Buf, v)
	return b
}

func (b *Builder) Int32(v int32) *Builder {
	return b.Uint32(uint32(v))
}

func (b *Builder) Double(v float64) *Builder {
	b.Buf = binary.BigEndian.AppendUint64(b.Buf, math.Float64bits(v))
	return b
}

func (b *Builder) String(s string) *Builder {
	if len(s) > math.MaxInt16 {
		panic("string too long")
	}
	b.Int16(int16(len(s)))
	b.Buf = append(b.Buf, s...)
	return b
}

// Placeholder reserves a 4-byte slot to be filled in later by PutInt32.
func (b *Builder) Placeholder() int {
	off := len(b.Buf)
	b.Uint32(0)
	return off
}

func (b *Builder) PutInt32(off int, v int32) {
	binary.BigEndian.PutUint32(b.Buf[off:], uint32(v))
}

func (b *Builder) PutUint32(off int, v uint32) {
	binary.BigEndian.PutUint32(b.Buf[off:], v)
}
