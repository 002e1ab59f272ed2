package d2o

import (
	"fmt"

	"github.com/andreyvit/d2data/bin"
)

// Query describes one queryable key. Pointer is absolute.
type Query struct {
	Name    string
	Pointer int
	Type    TypeCode
	Count   int
}

// Predicate selects bucket values. It receives the same Go types as decoded
// fields of the query's type.
type Predicate func(value any) bool

func (r *Reader) readQueries(d *bin.Decoder) error {
	if d.Remaining() == 0 {
		return nil
	}

	size, err := d.Int32()
	if err != nil {
		return err
	}
	if size < 0 {
		return bin.Errorf(r.data, d.Off()-4, ErrInvalidFormat, "negative query section size %d", size)
	}
	end := d.Off() + int(size) + 4

	r.queries = make(map[string]*Query)
	for d.Off() < end-4 {
		start := d.Off()
		name, err := d.String()
		if err != nil {
			return err
		}
		rel, err := d.Int32()
		if err != nil {
			return err
		}
		typ, err := d.Int32()
		if err != nil {
			return err
		}
		count, err := d.Int32()
		if err != nil {
			return err
		}
		if count < 0 {
			return bin.Errorf(r.data, start, ErrInvalidFormat, "query %q has negative bucket count %d", name, count)
		}
		if _, dup := r.queries[name]; !dup {
			r.queryNames = append(r.queryNames, name)
		}
		r.queries[name] = &Query{
			Name:    name,
			Pointer: int(rel) + end,
			Type:    TypeCode(typ),
			Count:   int(count),
		}
	}
	return nil
}

// QueryableKeys returns the names of all query keys in section order.
func (r *Reader) QueryableKeys() []string {
	return append([]string(nil), r.queryNames...)
}

func (r *Reader) QuerySpec(key string) (Query, error) {
	q := r.queries[key]
	if q == nil {
		return Query{}, fmt.Errorf("%w: %q", ErrUnknownQueryKey, key)
	}
	return *q, nil
}

// scanBuckets calls fn for every bucket of the query with the decoded value,
// a cursor at the start of the id list and the id list's byte length. After
// fn returns the cursor is moved past the id list no matter what fn read.
func (r *Reader) scanBuckets(key string, fn func(value any, d *bin.Decoder, n int) error) error {
	q := r.queries[key]
	if q == nil {
		return fmt.Errorf("%w: %q", ErrUnknownQueryKey, key)
	}
	if !q.Type.IsScalar() {
		return fmt.Errorf("%w: %q has type %v", ErrUnsupportedQueryType, key, q.Type)
	}

	d, err := r.cursor(q.Pointer)
	if err != nil {
		return err
	}
	for range q.Count {
		value, err := readScalar(&d, q.Type)
		if err != nil {
			return err
		}
		n, err := d.Int32()
		if err != nil {
			return err
		}
		if n < 0 {
			return bin.Errorf(r.data, d.Off()-4, ErrInvalidFormat, "query %q: negative id list length %d", key, n)
		}
		next := d.Off() + int(n)
		if err := fn(value, &d, int(n)); err != nil {
			return err
		}
		if err := d.Seek(next); err != nil {
			return err
		}
	}
	return nil
}

// QueryIDs returns the ids of objects whose value for key satisfies pred, in
// on-disk order. No objects are decoded.
func (r *Reader) QueryIDs(key string, pred Predicate) ([]int32, error) {
	var ids []int32
	err := r.scanBuckets(key, func(value any, d *bin.Decoder, n int) error {
		if !pred(value) {
			r.bucketsSkipped.Add(1)
			return nil
		}
		r.bucketsMatched.Add(1)
		for range n / 4 {
			id, err := d.Int32()
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Query decodes every object whose value for key satisfies pred. Objects are
// returned in the order their ids appear across buckets, without
// deduplication.
func (r *Reader) Query(key string, pred Predicate) ([]*Object, error) {
	ids, err := r.QueryIDs(key, pred)
	if err != nil {
		return nil, err
	}
	result := make([]*Object, 0, len(ids))
	for _, id := range ids {
		obj, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		result = append(result, obj)
	}
	return result, nil
}

// PossibleValues returns the value of every bucket of key in on-disk order.
func (r *Reader) PossibleValues(key string) ([]any, error) {
	var values []any
	err := r.scanBuckets(key, func(value any, _ *bin.Decoder, _ int) error {
		values = append(values, value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}
