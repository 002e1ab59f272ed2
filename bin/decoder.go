// Package bin decodes the big-endian primitives shared by the D2O, D2I and D2P
// container formats.
//
// All three formats encode integers and floats big-endian, booleans as a single
// byte, and strings as a signed 16-bit length followed by that many bytes of
// UTF-8.
package bin

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// Decoder is a cursor over an immutable byte slice. Each read consumes
// exactly the number of bytes it decodes and fails with ErrTruncated if fewer
// remain. A failed read does not move the cursor.
//
// A Decoder is cheap to copy; copies have independent positions.
type Decoder struct {
	buf []byte
	off int
}

func MakeDecoder(buf []byte) Decoder {
	return Decoder{buf: buf}
}

func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// At returns a decoder over the same data positioned at off.
func (d *Decoder) At(off int) (Decoder, error) {
	c := Decoder{buf: d.buf}
	err := c.Seek(off)
	return c, err
}

func (d *Decoder) Off() int       { return d.off }
func (d *Decoder) Len() int       { return len(d.buf) }
func (d *Decoder) Remaining() int { return len(d.buf) - d.off }
func (d *Decoder) Data() []byte   { return d.buf }

func (d *Decoder) errf(err error, format string, args ...any) error {
	return Errorf(d.buf, d.off, err, format, args...)
}

// Seek moves the cursor to an absolute offset. Seeking to the very end is
// allowed; seeking past it fails.
func (d *Decoder) Seek(off int) error {
	if off < 0 || off > len(d.buf) {
		return Errorf(d.buf, off, ErrTruncated, "cannot seek to %d in %d bytes", off, len(d.buf))
	}
	d.off = off
	return nil
}

// Skip advances the cursor by n bytes without decoding them.
func (d *Decoder) Skip(n int) error {
	if n < 0 {
		return d.errf(ErrInvalidEncoding, "cannot skip %d bytes", n)
	}
	if d.Remaining() < n {
		return d.errf(ErrTruncated, "not enough data: %d bytes remaining, %d wanted", d.Remaining(), n)
	}
	d.off += n
	return nil
}

// Raw returns the next n bytes. The result aliases the underlying data.
func (d *Decoder) Raw(n int) ([]byte, error) {
	if n < 0 {
		return nil, d.errf(ErrInvalidEncoding, "invalid length %d", n)
	}
	if d.Remaining() < n {
		return nil, d.errf(ErrTruncated, "not enough data: %d bytes remaining, %d wanted", d.Remaining(), n)
	}
	v := d.buf[d.off : d.off+n]
	d.off += n
	return v, nil
}

func (d *Decoder) Uint8() (uint8, error) {
	b, err := d.Raw(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Bool decodes a single byte, nonzero meaning true.
func (d *Decoder) Bool() (bool, error) {
	v, err := d.Uint8()
	return v != 0, err
}

func (d *Decoder) Int16() (int16, error) {
	b, err := d.Raw(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func (d *Decoder) Uint32() (uint32, error) {
	b, err := d.Raw(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (d *Decoder) Int32() (int32, error) {
	v, err := d.Uint32()
	return int32(v), err
}

func (d *Decoder) Double() (float64, error) {
	b, err := d.Raw(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// String decodes a length-prefixed UTF-8 string. On failure the cursor stays
// at the length prefix.
func (d *Decoder) String() (string, error) {
	start := d.off
	n, err := d.Int16()
	if err != nil {
		return "", err
	}
	if n < 0 {
		d.off = start
		return "", d.errf(ErrInvalidEncoding, "negative string length %d", n)
	}
	b, err := d.Raw(int(n))
	if err != nil {
		d.off = start
		return "", err
	}
	if !utf8.Valid(b) {
		d.off = start
		return "", d.errf(ErrInvalidEncoding, "malformed UTF-8 in %d-byte string", n)
	}
	return string(b), nil
}
