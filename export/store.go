// Package export copies decoded D2O containers into a bbolt database so they
// can be read back without the original game files.
//
// Each exported container gets a root bucket named after it, holding an
// "objects" bucket keyed by big-endian object id and a "meta" bucket with the
// source digest, the value encoding and the class table.
package export

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unsafe"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"github.com/andreyvit/d2data/d2o"
)

var (
	ErrNotExported = errors.New("container not exported")
	ErrNotFound    = errors.New("object not exported")
)

const (
	objectsBucket = "objects"
	metaBucket    = "meta"

	digestKey   = "digest"
	encodingKey = "encoding"
	classesKey  = "classes"
)

type Options struct {
	Encoding  Encoding
	Logger    *slog.Logger
	Verbose   bool
	IsTesting bool
	Timeout   time.Duration
}

type Store struct {
	bdb     *bbolt.DB
	enc     Encoding
	logger  *slog.Logger
	verbose bool
}

// Stats describes one Export call.
type Stats struct {
	Objects int
	Bytes   int64
	Skipped bool
}

// ClassInfo is the stored form of a class schema.
type ClassInfo struct {
	ID      int32       `msgpack:"id"`
	Name    string      `msgpack:"name"`
	Package string      `msgpack:"pkg"`
	Fields  []FieldInfo `msgpack:"fields"`
}

type FieldInfo struct {
	Name string `msgpack:"name"`
	Type string `msgpack:"type"`
}

func OpenStore(path string, opt Options) (*Store, error) {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Timeout == 0 {
		opt.Timeout = 10 * time.Second
	}
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = opt.Timeout
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
	} else {
		bopt.FreelistType = bbolt.FreelistMapType
	}

	bdb, err := bbolt.Open(path, 0666, &bopt)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return &Store{
		bdb:     bdb,
		enc:     opt.Encoding,
		logger:  opt.Logger,
		verbose: opt.Verbose,
	}, nil
}

func (s *Store) Close() error {
	return s.bdb.Close()
}

func (s *Store) Encoding() Encoding {
	return s.enc
}

// Export writes every object of r under name, replacing a previous export.
// Nothing is written if the stored digest matches r and force is false. A
// decode failure aborts the export and leaves the previous one in place.
func (s *Store) Export(name string, r *d2o.Reader, force bool) (Stats, error) {
	var st Stats
	digest := binary.BigEndian.AppendUint64(nil, r.Digest())

	err := s.bdb.Update(func(tx *bbolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists([]byte(name))
		if err != nil {
			return err
		}
		meta, err := root.CreateBucketIfNotExists([]byte(metaBucket))
		if err != nil {
			return err
		}
		if !force && string(meta.Get([]byte(digestKey))) == string(digest) {
			st.Skipped = true
			return nil
		}

		if root.Bucket([]byte(objectsBucket)) != nil {
			if err := root.DeleteBucket([]byte(objectsBucket)); err != nil {
				return err
			}
		}
		objects, err := root.CreateBucket([]byte(objectsBucket))
		if err != nil {
			return err
		}

		// bbolt keeps a reference to values until commit
		err = r.Each(func(id int32, obj *d2o.Object) error {
			buf, err := s.enc.Encode(nil, obj)
			if err != nil {
				return err
			}
			st.Objects++
			st.Bytes += int64(len(buf))
			return objects.Put(idKey(id), buf)
		})
		if err != nil {
			return err
		}

		classes, err := msgpack.Marshal(classTable(r))
		if err != nil {
			return err
		}
		if err := meta.Put([]byte(classesKey), classes); err != nil {
			return err
		}
		if err := meta.Put([]byte(encodingKey), []byte{byte(s.enc)}); err != nil {
			return err
		}
		return meta.Put([]byte(digestKey), digest)
	})
	if err != nil {
		return Stats{}, fmt.Errorf("export %s: %w", name, err)
	}

	if s.verbose {
		s.logger.LogAttrs(context.Background(), slog.LevelInfo, "export: done",
			slog.String("name", name),
			slog.Int("objects", st.Objects),
			slog.Int64("bytes", st.Bytes),
			slog.Bool("skipped", st.Skipped))
	}
	return st, nil
}

func classTable(r *d2o.Reader) []ClassInfo {
	var result []ClassInfo
	for _, cls := range r.Classes() {
		ci := ClassInfo{ID: cls.ID, Name: cls.Name, Package: cls.Package}
		for _, f := range cls.Fields {
			ci.Fields = append(ci.Fields, FieldInfo{Name: f.Name, Type: f.TypeName()})
		}
		result = append(result, ci)
	}
	return result
}

func idKey(id int32) []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(id))
}

func (s *Store) view(name string, fn func(root *bbolt.Bucket) error) error {
	return s.bdb.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(unsafeBytesFromString(name))
		if root == nil || root.Bucket([]byte(objectsBucket)) == nil {
			return fmt.Errorf("%w: %s", ErrNotExported, name)
		}
		return fn(root)
	})
}

func storedEncoding(root *bbolt.Bucket) Encoding {
	if v := root.Bucket([]byte(metaBucket)).Get([]byte(encodingKey)); len(v) == 1 {
		return Encoding(v[0])
	}
	return DefaultEncoding
}

// Get decodes one exported object into plain values.
func (s *Store) Get(name string, id int32) (any, error) {
	var result any
	err := s.view(name, func(root *bbolt.Bucket) error {
		raw := root.Bucket([]byte(objectsBucket)).Get(idKey(id))
		if raw == nil {
			return fmt.Errorf("%w: %s/%d", ErrNotFound, name, id)
		}
		var err error
		result, err = storedEncoding(root).Decode(raw)
		return err
	})
	return result, err
}

// Count returns the number of objects exported under name.
func (s *Store) Count(name string) (int, error) {
	var n int
	err := s.view(name, func(root *bbolt.Bucket) error {
		n = root.Bucket([]byte(objectsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *Store) Classes(name string) ([]ClassInfo, error) {
	var result []ClassInfo
	err := s.view(name, func(root *bbolt.Bucket) error {
		return msgpack.Unmarshal(root.Bucket([]byte(metaBucket)).Get([]byte(classesKey)), &result)
	})
	return result, err
}

// Digest returns the source digest recorded by the last export of name.
func (s *Store) Digest(name string) (uint64, error) {
	var d uint64
	err := s.view(name, func(root *bbolt.Bucket) error {
		if v := root.Bucket([]byte(metaBucket)).Get([]byte(digestKey)); len(v) == 8 {
			d = binary.BigEndian.Uint64(v)
		}
		return nil
	})
	return d, err
}

// Names lists exported containers in key order.
func (s *Store) Names() ([]string, error) {
	var names []string
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	return names, err
}

func unsafeBytesFromString(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
