package d2o

import (
	"fmt"

	"github.com/andreyvit/d2data/bin"
)

func (r *Reader) readIndex(d *bin.Decoder) error {
	ptr, err := d.Int32()
	if err != nil {
		return err
	}
	if err := d.Seek(int(ptr)); err != nil {
		return err
	}

	size, err := d.Int32()
	if err != nil {
		return err
	}
	if size < 0 {
		return bin.Errorf(r.data, d.Off()-4, ErrInvalidFormat, "negative index table size %d", size)
	}

	n := int(size / 8)
	r.index = make(map[int32]int32, min(n, d.Remaining()/8))
	r.ids = make([]int32, 0, min(n, d.Remaining()/8))
	for range n {
		id, err := d.Int32()
		if err != nil {
			return err
		}
		off, err := d.Int32()
		if err != nil {
			return err
		}
		if _, dup := r.index[id]; !dup {
			r.ids = append(r.ids, id)
		}
		r.index[id] = off
	}
	return nil
}

func (r *Reader) lookup(id int32) (int, error) {
	r.indexLookups.Add(1)
	off, ok := r.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	return int(off), nil
}

// Get decodes the object with the given id.
func (r *Reader) Get(id int32) (*Object, error) {
	off, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	d, err := r.cursor(off)
	if err != nil {
		return nil, err
	}
	return r.decodeObject(&d, 0)
}

// Has reports whether id is in the index table.
func (r *Reader) Has(id int32) bool {
	_, ok := r.index[id]
	return ok
}

// Offset returns the position of the object's data.
func (r *Reader) Offset(id int32) (int, bool) {
	off, ok := r.index[id]
	return int(off), ok
}

// IDs returns the object ids in index table order.
func (r *Reader) IDs() []int32 {
	return append([]int32(nil), r.ids...)
}

// Len returns the number of distinct ids in the index table.
func (r *Reader) Len() int {
	return len(r.ids)
}

// Each decodes every indexed object in index table order, stopping at the
// first error returned by a decode or by fn.
func (r *Reader) Each(fn func(id int32, obj *Object) error) error {
	for _, id := range r.ids {
		obj, err := r.Get(id)
		if err != nil {
			return fmt.Errorf("object %d: %w", id, err)
		}
		if err := fn(id, obj); err != nil {
			return err
		}
	}
	return nil
}
