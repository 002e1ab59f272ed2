// Package d2p reads D2P archives.
//
// An archive starts with a two-byte version and ends with a 24-byte trailer
// locating the file data, the file index and a list of string properties. The
// "link" property names a continuation archive in the same directory; with
// Options.LoadLinked the whole chain is opened and its indexes merged, later
// archives overriding earlier entries of the same path.
package d2p

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/andreyvit/d2data/bin"
	"github.com/andreyvit/d2data/mmap"
)

const (
	headerSize  = 2
	trailerSize = 24

	LinkProperty = "link"
)

type Options struct {
	LoadLinked bool
	Logger     *slog.Logger
	Verbose    bool
	Mmap       mmap.Options // mmap.RandomAccess if zero
}

type Property struct {
	Name  string
	Value string
}

// Archive describes one file of the chain.
type Archive struct {
	Path         string
	VersionMajor uint8
	VersionMinor uint8
	Properties   []Property
}

// Link returns the value of the link property.
func (a *Archive) Link() (string, bool) {
	for _, p := range a.Properties {
		if p.Name == LinkProperty {
			return p.Value, true
		}
	}
	return "", false
}

// Entry locates a packed file. Offset is absolute within archive number
// Archive of the chain.
type Entry struct {
	Path    string
	Archive int
	Offset  int
	Length  int
}

type segment struct {
	Archive
	mapping *mmap.Mapping
	data    []byte
}

type trailer struct {
	dataOff, dataCount   uint32
	indexOff, indexCount uint32
	propsOff, propsCount uint32
}

type Reader struct {
	segments []*segment
	logger   *slog.Logger
	verbose  bool
	entries  map[string]Entry
	paths    []string
}

// Open opens the archive at path and, with opt.LoadLinked, every archive it
// links to.
func Open(path string, opt Options) (*Reader, error) {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Mmap == 0 {
		opt.Mmap = mmap.RandomAccess
	}
	r := &Reader{
		logger:  opt.Logger,
		verbose: opt.Verbose,
		entries: make(map[string]Entry),
	}

	visited := make(map[string]bool)
	for next := path; next != ""; {
		abs, err := filepath.Abs(next)
		if err != nil {
			r.Close()
			return nil, err
		}
		if visited[abs] {
			from := r.segments[len(r.segments)-1].Path
			r.Close()
			return nil, fmt.Errorf("%w: %s links back to %s", ErrLinkCycle, from, next)
		}
		visited[abs] = true

		seg, err := r.load(next, opt.Mmap)
		if err != nil {
			r.Close()
			return nil, err
		}
		next = ""
		if link, ok := seg.Link(); ok && opt.LoadLinked {
			next = filepath.Join(filepath.Dir(seg.Path), link)
		}
	}
	return r, nil
}

func (r *Reader) load(path string, opt mmap.Options) (*segment, error) {
	m, err := mmap.Map(path, opt)
	if err != nil {
		return nil, err
	}
	seg := &segment{
		Archive: Archive{Path: path},
		mapping: m,
		data:    m.Bytes(),
	}
	if err := r.parse(seg); err != nil {
		m.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.segments = append(r.segments, seg)

	if r.verbose {
		r.logger.LogAttrs(context.Background(), slog.LevelDebug, "d2p: opened",
			slog.String("path", path),
			slog.Int("size", len(seg.data)),
			slog.Int("archive", len(r.segments)-1),
			slog.Int("files", len(r.entries)))
	}
	return seg, nil
}

func (r *Reader) parse(seg *segment) error {
	data := seg.data
	if len(data) < headerSize+trailerSize {
		return bin.Errorf(data, 0, ErrInvalidFormat, "archive too short: %d bytes", len(data))
	}
	seg.VersionMajor, seg.VersionMinor = data[0], data[1]

	t, err := readTrailer(data)
	if err != nil {
		return err
	}
	if err := r.readProperties(seg, t); err != nil {
		return err
	}
	return r.readIndex(seg, t)
}

func readTrailer(data []byte) (trailer, error) {
	d := bin.MakeDecoder(data)
	var t trailer
	if err := d.Seek(len(data) - trailerSize); err != nil {
		return t, err
	}
	for _, p := range []*uint32{&t.dataOff, &t.dataCount, &t.indexOff, &t.indexCount, &t.propsOff, &t.propsCount} {
		v, err := d.Uint32()
		if err != nil {
			return t, err
		}
		*p = v
	}
	limit := uint32(len(data) - trailerSize)
	if t.dataOff > limit || t.indexOff > limit || t.propsOff > limit {
		return t, bin.Errorf(data, len(data)-trailerSize, ErrInvalidFormat, "trailer offsets out of range")
	}
	return t, nil
}

// readProperties keeps whatever properties decode cleanly; a malformed one
// ends the list.
func (r *Reader) readProperties(seg *segment, t trailer) error {
	d := bin.MakeDecoder(seg.data)
	if err := d.Seek(int(t.propsOff)); err != nil {
		return err
	}
	for i := range t.propsCount {
		name, err := d.String()
		if err == nil {
			var value string
			value, err = d.String()
			if err == nil {
				seg.Properties = append(seg.Properties, Property{name, value})
				continue
			}
		}
		r.logger.LogAttrs(context.Background(), slog.LevelWarn, "d2p: malformed property",
			slog.String("path", seg.Path),
			slog.Int("property", int(i)),
			slog.Any("err", err))
		break
	}
	return nil
}

func (r *Reader) readIndex(seg *segment, t trailer) error {
	d := bin.MakeDecoder(seg.data)
	if err := d.Seek(int(t.indexOff)); err != nil {
		return err
	}
	archive := len(r.segments)
	for range t.indexCount {
		start := d.Off()
		path, err := d.String()
		if err != nil {
			return err
		}
		off, err := d.Int32()
		if err != nil {
			return err
		}
		length, err := d.Int32()
		if err != nil {
			return err
		}
		abs := int(off) + int(t.dataOff)
		if off < 0 || length < 0 || abs+int(length) > len(seg.data) {
			return bin.Errorf(seg.data, start, ErrInvalidFormat, "%s: data range %d+%d out of bounds", path, abs, length)
		}
		if _, dup := r.entries[path]; !dup {
			r.paths = append(r.paths, path)
		}
		r.entries[path] = Entry{Path: path, Archive: archive, Offset: abs, Length: int(length)}
	}
	return nil
}

func (r *Reader) Close() error {
	var first error
	for _, seg := range r.segments {
		if err := seg.mapping.Close(); err != nil && first == nil {
			first = err
		}
		seg.data = nil
	}
	r.segments = nil
	return first
}

// Files returns all packed paths in first-seen order across the chain.
func (r *Reader) Files() []string {
	return append([]string(nil), r.paths...)
}

func (r *Reader) Len() int {
	return len(r.paths)
}

func (r *Reader) Stat(path string) (Entry, bool) {
	e, ok := r.entries[path]
	return e, ok
}

// Archives describes the opened chain in link order.
func (r *Reader) Archives() []Archive {
	result := make([]Archive, len(r.segments))
	for i, seg := range r.segments {
		result[i] = seg.Archive
		result[i].Properties = append([]Property(nil), seg.Properties...)
	}
	return result
}

func (r *Reader) raw(path string) ([]byte, error) {
	if r.segments == nil {
		return nil, fmt.Errorf("%w: cannot read %q", ErrClosed, path)
	}
	e, ok := r.entries[path]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFile, path)
	}
	data := r.segments[e.Archive].data
	return data[e.Offset : e.Offset+e.Length], nil
}

// Load returns a copy of the contents of path.
func (r *Reader) Load(path string) ([]byte, error) {
	b, err := r.raw(path)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(b), nil
}

// Checksum returns the xxhash64 of the contents of path.
func (r *Reader) Checksum(path string) (uint64, error) {
	b, err := r.raw(path)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(b), nil
}
