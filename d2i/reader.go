// Package d2i reads D2I localization tables.
//
// A D2I file starts with a pointer to its index. The index lists numeric text
// ids, each with a pointer to the standard string and optionally a pointer to
// a diacritical variant, followed by a table of named text keys. Strings are
// stored wherever the pointers say.
package d2i

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/andreyvit/d2data/bin"
	"github.com/andreyvit/d2data/mmap"
)

const (
	entrySize            = 9
	diacriticalEntrySize = 13
)

type Options struct {
	Logger  *slog.Logger
	Verbose bool
	Mmap    mmap.Options // hints used by Open, mmap.RandomAccess if zero
}

type entry struct {
	ptr            int32
	diacritical    int32
	hasDiacritical bool
}

// Reader looks up strings in a D2I table held in memory. The index is parsed
// by New; strings are decoded on every call.
type Reader struct {
	data    []byte
	mapping *mmap.Mapping
	logger  *slog.Logger

	entries map[int32]entry
	ids     []int32
	keys    map[string]int32
	keyList []string
}

func New(data []byte, opt Options) (*Reader, error) {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	r := &Reader{
		data:    data,
		logger:  opt.Logger,
		entries: make(map[int32]entry),
		keys:    make(map[string]int32),
	}

	d := bin.MakeDecoder(data)
	ptr, err := d.Int32()
	if err != nil {
		return nil, bin.Errorf(data, 0, ErrInvalidFormat, "missing index pointer")
	}
	if err := d.Seek(int(ptr)); err != nil {
		return nil, bin.Errorf(data, 0, ErrInvalidFormat, "index pointer 0x%x out of range", ptr)
	}
	if err := r.readIndex(&d); err != nil {
		return nil, err
	}
	if err := r.readKeys(&d); err != nil {
		return nil, err
	}

	if opt.Verbose {
		r.logger.LogAttrs(context.Background(), slog.LevelDebug, "d2i: opened",
			slog.Int("size", len(data)),
			slog.Int("texts", len(r.ids)),
			slog.Int("keys", len(r.keyList)))
	}
	return r, nil
}

// Open maps the file at path and parses its index.
func Open(path string, opt Options) (*Reader, error) {
	if opt.Mmap == 0 {
		opt.Mmap = mmap.RandomAccess
	}
	m, err := mmap.Map(path, opt.Mmap)
	if err != nil {
		return nil, err
	}
	r, err := New(m.Bytes(), opt)
	if err != nil {
		m.Close()
		return nil, err
	}
	r.mapping = m
	return r, nil
}

func (r *Reader) Close() error {
	if r.mapping == nil {
		return nil
	}
	err := r.mapping.Close()
	r.data = nil
	return err
}

func (r *Reader) readIndex(d *bin.Decoder) error {
	start := d.Off()
	size, err := d.Int32()
	if err != nil {
		return err
	}
	if size < 0 {
		return bin.Errorf(r.data, start, ErrInvalidFormat, "negative index size %d", size)
	}

	for consumed := 0; consumed < int(size); {
		id, err := d.Int32()
		if err != nil {
			return err
		}
		hasDiacritical, err := d.Bool()
		if err != nil {
			return err
		}
		e := entry{hasDiacritical: hasDiacritical}
		if e.ptr, err = d.Int32(); err != nil {
			return err
		}
		consumed += entrySize
		if hasDiacritical {
			if e.diacritical, err = d.Int32(); err != nil {
				return err
			}
			consumed += diacriticalEntrySize - entrySize
		}
		if _, dup := r.entries[id]; !dup {
			r.ids = append(r.ids, id)
		}
		r.entries[id] = e
	}
	return nil
}

func (r *Reader) readKeys(d *bin.Decoder) error {
	start := d.Off()
	size, err := d.Int32()
	if err != nil {
		return err
	}
	if size < 0 {
		return bin.Errorf(r.data, start, ErrInvalidFormat, "negative key index size %d", size)
	}

	base := d.Off()
	for d.Off()-base < int(size) {
		key, err := d.String()
		if err != nil {
			return err
		}
		ptr, err := d.Int32()
		if err != nil {
			return err
		}
		if _, dup := r.keys[key]; !dup {
			r.keyList = append(r.keyList, key)
		}
		r.keys[key] = ptr
	}
	return nil
}

func (r *Reader) stringAt(ptr int32) (string, error) {
	d := bin.MakeDecoder(r.data)
	if err := d.Seek(int(ptr)); err != nil {
		return "", err
	}
	return d.String()
}

// Text returns the standard string for id.
func (r *Reader) Text(id int32) (string, error) {
	e, ok := r.entries[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	return r.stringAt(e.ptr)
}

// Diacritical returns the diacritical variant of id.
func (r *Reader) Diacritical(id int32) (string, error) {
	e, ok := r.entries[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	if !e.hasDiacritical {
		return "", fmt.Errorf("%w: %d", ErrNoDiacritical, id)
	}
	return r.stringAt(e.diacritical)
}

func (r *Reader) HasDiacritical(id int32) bool {
	e, ok := r.entries[id]
	return ok && e.hasDiacritical
}

func (r *Reader) Has(id int32) bool {
	_, ok := r.entries[id]
	return ok
}

// TextByKey returns the string stored under a named key.
func (r *Reader) TextByKey(key string) (string, error) {
	ptr, ok := r.keys[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return r.stringAt(ptr)
}

// Lookup returns the standard string for id, or false if the id is missing or
// its string can't be decoded.
func (r *Reader) Lookup(id int32) (string, bool) {
	s, err := r.Text(id)
	return s, err == nil
}

// IDs returns all numeric ids in index order.
func (r *Reader) IDs() []int32 {
	return append([]int32(nil), r.ids...)
}

// Keys returns all named keys in index order.
func (r *Reader) Keys() []string {
	return append([]string(nil), r.keyList...)
}

func (r *Reader) Len() int {
	return len(r.ids)
}

// Search returns the ids whose text contains query, ignoring case and
// diacritics, in index order. The stored diacritical variant is matched when
// present, the folded standard text otherwise.
func (r *Reader) Search(query string) ([]int32, error) {
	needle := Fold(query)
	var result []int32
	for _, id := range r.ids {
		e := r.entries[id]
		ptr := e.ptr
		if e.hasDiacritical {
			ptr = e.diacritical
		}
		s, err := r.stringAt(ptr)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", id, err)
		}
		if strings.Contains(Fold(s), needle) {
			result = append(result, id)
		}
	}
	return result, nil
}
