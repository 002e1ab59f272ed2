package bin_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/andreyvit/d2data/bin"
	"github.com/andreyvit/d2data/bin/bintest"
)

func TestDecoder_RoundTrip(t *testing.T) {
	var b bintest.Builder
	b.Int32(-123456).Uint32(math.MaxUint32).Bool(true).Bool(false).Raw(7)
	b.String("héllo").String("").Double(math.Pi).Double(math.Inf(-1)).Int16(-2).Uint8(0xFE)

	d := bin.MakeDecoder(b.Bytes())
	if v := must(d.Int32()); v != -123456 {
		t.Fatalf("Int32 = %d, wanted -123456", v)
	}
	if v := must(d.Uint32()); v != math.MaxUint32 {
		t.Fatalf("Uint32 = %d, wanted %d", v, uint32(math.MaxUint32))
	}
	if v := must(d.Bool()); !v {
		t.Fatalf("Bool = false, wanted true")
	}
	if v := must(d.Bool()); v {
		t.Fatalf("Bool = true, wanted false")
	}
	if v := must(d.Bool()); !v {
		t.Fatalf("Bool(7) = false, wanted true")
	}
	if v := must(d.String()); v != "héllo" {
		t.Fatalf("String = %q, wanted %q", v, "héllo")
	}
	if v := must(d.String()); v != "" {
		t.Fatalf("String = %q, wanted empty", v)
	}
	if v := must(d.Double()); math.Float64bits(v) != math.Float64bits(math.Pi) {
		t.Fatalf("Double = %v, wanted %v", v, math.Pi)
	}
	if v := must(d.Double()); !math.IsInf(v, -1) {
		t.Fatalf("Double = %v, wanted -Inf", v)
	}
	if v := must(d.Int16()); v != -2 {
		t.Fatalf("Int16 = %d, wanted -2", v)
	}
	if v := must(d.Uint8()); v != 0xFE {
		t.Fatalf("Uint8 = %d, wanted 254", v)
	}
	if d.Remaining() != 0 || d.Off() != d.Len() {
		t.Fatalf("Remaining = %d, Off = %d, Len = %d, wanted fully consumed", d.Remaining(), d.Off(), d.Len())
	}
}

func TestDecoder_NaNBitExact(t *testing.T) {
	bits := uint64(0x7FF8_0000_0000_1234)
	var b bintest.Builder
	b.Double(math.Float64frombits(bits))
	d := bin.MakeDecoder(b.Bytes())
	v := must(d.Double())
	if math.Float64bits(v) != bits {
		t.Fatalf("Double bits = %x, wanted %x", math.Float64bits(v), bits)
	}
}

func TestDecoder_Truncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(d *bin.Decoder) error
	}{
		{"int32", []byte{1, 2, 3}, func(d *bin.Decoder) error { _, err := d.Int32(); return err }},
		{"uint32", []byte{}, func(d *bin.Decoder) error { _, err := d.Uint32(); return err }},
		{"bool", nil, func(d *bin.Decoder) error { _, err := d.Bool(); return err }},
		{"double", []byte{1, 2, 3, 4, 5, 6, 7}, func(d *bin.Decoder) error { _, err := d.Double(); return err }},
		{"string prefix", []byte{0}, func(d *bin.Decoder) error { _, err := d.String(); return err }},
		{"string body", []byte{0, 5, 'a', 'b'}, func(d *bin.Decoder) error { _, err := d.String(); return err }},
		{"skip", []byte{1, 2}, func(d *bin.Decoder) error { return d.Skip(3) }},
		{"seek", []byte{1, 2}, func(d *bin.Decoder) error { return d.Seek(3) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := bin.MakeDecoder(tt.data)
			err := tt.read(&d)
			if !errors.Is(err, bin.ErrTruncated) {
				t.Fatalf("err = %v, wanted ErrTruncated", err)
			}
			var de *bin.DataError
			if !errors.As(err, &de) {
				t.Fatalf("err = %T, wanted *bin.DataError", err)
			}
			if d.Off() != 0 {
				t.Fatalf("Off after failed read = %d, wanted 0", d.Off())
			}
		})
	}
}

func TestDecoder_InvalidEncoding(t *testing.T) {
	t.Run("malformed utf8", func(t *testing.T) {
		d := bin.MakeDecoder([]byte{0, 2, 0xC3, 0x28})
		_, err := d.String()
		if !errors.Is(err, bin.ErrInvalidEncoding) {
			t.Fatalf("err = %v, wanted ErrInvalidEncoding", err)
		}
	})
	t.Run("negative length", func(t *testing.T) {
		d := bin.MakeDecoder([]byte{0xFF, 0xFF, 'a'})
		_, err := d.String()
		if !errors.Is(err, bin.ErrInvalidEncoding) {
			t.Fatalf("err = %v, wanted ErrInvalidEncoding", err)
		}
	})
	t.Run("negative skip", func(t *testing.T) {
		d := bin.MakeDecoder([]byte{1})
		if err := d.Skip(-1); !errors.Is(err, bin.ErrInvalidEncoding) {
			t.Fatalf("err = %v, wanted ErrInvalidEncoding", err)
		}
	})
}

func TestDecoder_SeekAndAt(t *testing.T) {
	var b bintest.Builder
	b.Int32(1).Int32(2).Int32(3)
	d := bin.MakeDecoder(b.Bytes())
	ensure(d.Seek(8))
	if v := must(d.Int32()); v != 3 {
		t.Fatalf("Int32 after Seek(8) = %d, wanted 3", v)
	}
	ensure(d.Seek(12))
	if d.Remaining() != 0 {
		t.Fatalf("Remaining = %d, wanted 0", d.Remaining())
	}

	c := must(d.At(4))
	if v := must(c.Int32()); v != 2 {
		t.Fatalf("At(4).Int32 = %d, wanted 2", v)
	}
	if d.Off() != 12 {
		t.Fatalf("original Off = %d, wanted 12", d.Off())
	}
	if _, err := d.At(13); !errors.Is(err, bin.ErrTruncated) {
		t.Fatalf("At(13) err = %v, wanted ErrTruncated", err)
	}
}

func TestDataError_Error(t *testing.T) {
	data := make([]byte, 200)
	for i := range data {
		data[i] = byte(i)
	}
	err := bin.Errorf(data, 100, bin.ErrTruncated, "oops %d", 1)
	s := err.Error()
	if !strings.Contains(s, "oops 1") || !strings.Contains(s, "truncated") || !strings.Contains(s, "0x64") || !strings.Contains(s, "(200)") {
		t.Fatalf("err.Error() = %q, wanted msg/err/offset/size", s)
	}
	if !strings.HasSuffix(s, "...") || !strings.Contains(s, "...54") {
		t.Fatalf("err.Error() = %q, wanted window around offset", s)
	}

	s = bin.Errorf([]byte{0xAA}, 5, nil, "past end").Error()
	if !strings.Contains(s, "past end at 0x5: (1) aa") {
		t.Fatalf("err.Error() = %q", s)
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}
