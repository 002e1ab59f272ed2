package d2o

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/andreyvit/d2data/bin"
	"github.com/andreyvit/d2data/mmap"
)

const (
	magic           = "D2O"
	DefaultMaxDepth = 256
)

type Options struct {
	Logger   *slog.Logger
	Verbose  bool
	MaxDepth int          // limit on embedded object nesting, DefaultMaxDepth if zero
	Mmap     mmap.Options // hints used by Open, mmap.RandomAccess if zero
}

// Reader decodes objects from a D2O container held in memory.
//
// All metadata is parsed by New and never changes afterwards. Every operation
// reads through its own cursor, so calls don't disturb each other's position.
type Reader struct {
	data     []byte
	mapping  *mmap.Mapping
	logger   *slog.Logger
	maxDepth int

	index      map[int32]int32
	ids        []int32
	classes    map[int32]*Class
	queries    map[string]*Query
	queryNames []string

	digestOnce sync.Once
	digest     uint64

	indexLookups   atomic.Uint64
	objectsDecoded atomic.Uint64
	bucketsMatched atomic.Uint64
	bucketsSkipped atomic.Uint64
}

// Stats are cumulative counters since the reader was opened.
type Stats struct {
	IndexLookups   uint64
	ObjectsDecoded uint64
	BucketsMatched uint64
	BucketsSkipped uint64
}

// New parses the header, index table, class table and query section of data.
// data must not be modified while the reader is in use.
func New(data []byte, opt Options) (*Reader, error) {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.MaxDepth == 0 {
		opt.MaxDepth = DefaultMaxDepth
	}

	r := &Reader{
		data:     data,
		logger:   opt.Logger,
		maxDepth: opt.MaxDepth,
	}

	d := bin.MakeDecoder(data)
	hdr, err := d.Raw(len(magic))
	if err != nil || string(hdr) != magic {
		return nil, bin.Errorf(data, 0, ErrInvalidFormat, "missing %s header", magic)
	}
	if err := r.readIndex(&d); err != nil {
		return nil, err
	}
	if err := r.readClasses(&d); err != nil {
		return nil, err
	}
	if err := r.readQueries(&d); err != nil {
		return nil, err
	}

	if opt.Verbose {
		r.logger.LogAttrs(context.Background(), slog.LevelDebug, "d2o: opened",
			slog.Int("size", len(data)),
			slog.Int("objects", len(r.ids)),
			slog.Int("classes", len(r.classes)),
			slog.Int("queries", len(r.queryNames)))
	}
	return r, nil
}

// Open maps the file at path and parses it. Close releases the mapping.
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

// Close releases the file mapping, if any. Objects already returned stay
// valid.
func (r *Reader) Close() error {
	if r.mapping == nil {
		return nil
	}
	err := r.mapping.Close()
	r.data = nil
	return err
}

func (r *Reader) cursor(off int) (bin.Decoder, error) {
	d := bin.MakeDecoder(r.data)
	err := d.Seek(off)
	return d, err
}

// Size returns the container size in bytes.
func (r *Reader) Size() int {
	return len(r.data)
}

// Digest returns the xxhash64 of the whole container.
func (r *Reader) Digest() uint64 {
	r.digestOnce.Do(func() {
		r.digest = xxhash.Sum64(r.data)
	})
	return r.digest
}

// Class returns a copy of the schema of class id.
func (r *Reader) Class(id int32) (*Class, bool) {
	cls := r.classes[id]
	if cls == nil {
		return nil, false
	}
	return cls.clone(), true
}

// Classes returns copies of all class schemas ordered by id.
func (r *Reader) Classes() []*Class {
	result := make([]*Class, 0, len(r.classes))
	for _, cls := range r.classes {
		result = append(result, cls.clone())
	}
	slices.SortFunc(result, func(a, b *Class) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return result
}

func (r *Reader) Stats() Stats {
	return Stats{
		IndexLookups:   r.indexLookups.Load(),
		ObjectsDecoded: r.objectsDecoded.Load(),
		BucketsMatched: r.bucketsMatched.Load(),
		BucketsSkipped: r.bucketsSkipped.Load(),
	}
}
