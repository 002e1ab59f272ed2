// Package mmap maps container files into memory read-only.
package mmap

import (
	"fmt"
	"os"
)

type Options uint

const (
	// SequentialAccess is a hint requesting aggressive read-ahead.
	// Incompatible with RandomAccess. Maps to MADV_SEQUENTIAL on Unix.
	SequentialAccess Options = 1 << 1

	// RandomAccess is a hint that read ahead is less useful than normally.
	// Incompatible with SequentialAccess. Maps to MADV_RANDOM on Unix.
	RandomAccess Options = 1 << 2

	// Prefault is a hint requesting the entire file to be loaded in memory
	// for fastest access. Maps to MAP_POPULATE on Linux.
	Prefault Options = 1 << 3
)

func (o Options) Has(v Options) bool {
	return o&v != 0
}

// Mmap maps size bytes of f read-only.
func Mmap(f *os.File, offset, size int, opt Options) ([]byte, error) {
	if offset != 0 {
		panic("non-zero offset not yet supported")
	}
	return mmap(f, size, opt)
}

// Munmap unmaps the given slice from memory. The slice must have been returned
// by Mmap.
func Munmap(b []byte) error {
	return munmap(b)
}

// Mapping is a read-only view of a whole file.
type Mapping struct {
	path string
	data []byte
}

// Map opens path and maps its entire contents. The file handle is closed
// before returning; the mapping stays valid until Close.
func Map(path string, opt Options) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := st.Size()
	if size > MaxSize {
		return nil, fmt.Errorf("%s: file size %d exceeds mmap limit %d", path, size, int64(MaxSize))
	}
	if size == 0 {
		// mmap(2) rejects zero-length mappings
		return &Mapping{path: path, data: []byte{}}, nil
	}

	data, err := Mmap(f, 0, int(size), opt)
	if err != nil {
		return nil, fmt.Errorf("%s: mmap: %w", path, err)
	}
	return &Mapping{path: path, data: data}, nil
}

func (m *Mapping) Path() string  { return m.path }
func (m *Mapping) Bytes() []byte { return m.data }
func (m *Mapping) Len() int      { return len(m.data) }

// Close unmaps the file. Slices obtained from Bytes must not be used
// afterwards. Close is idempotent.
func (m *Mapping) Close() error {
	data := m.data
	m.data = nil
	if len(data) == 0 {
		return nil
	}
	return Munmap(data)
}
