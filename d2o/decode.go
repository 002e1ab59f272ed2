package d2o

import (
	"github.com/andreyvit/d2data/bin"
)

// decodeObject reads a class id and the fields of that class at the cursor.
func (r *Reader) decodeObject(d *bin.Decoder, depth int) (*Object, error) {
	if depth > r.maxDepth {
		return nil, bin.Errorf(r.data, d.Off(), ErrTooDeep, "object nesting exceeds %d", r.maxDepth)
	}
	start := d.Off()
	id, err := d.Int32()
	if err != nil {
		return nil, err
	}
	cls := r.classes[id]
	if cls == nil {
		return nil, bin.Errorf(r.data, start, ErrUnknownClass, "class %d", id)
	}

	obj := &Object{
		ClassID:   id,
		ClassName: cls.Name,
		Fields:    make([]FieldValue, len(cls.Fields)),
	}
	for i, f := range cls.Fields {
		v, err := r.decodeValue(d, f.Chain, 0, depth)
		if err != nil {
			return nil, err
		}
		obj.Fields[i] = FieldValue{f.Name, v}
	}
	r.objectsDecoded.Add(1)
	return obj, nil
}

// decodeValue decodes a value of type chain[i]. Vector elements recurse on
// chain[i+1].
func (r *Reader) decodeValue(d *bin.Decoder, chain []Link, i int, depth int) (any, error) {
	code := chain[i].Code
	switch code.Kind() {
	case KindVector:
		if i+1 >= len(chain) {
			return nil, bin.Errorf(r.data, d.Off(), ErrInvalidFormat, "vector %q has no element type", chain[0].Name)
		}
		n, err := d.Int32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, bin.Errorf(r.data, d.Off()-4, ErrInvalidFormat, "negative vector length %d", n)
		}
		items := make([]any, 0, min(int(n), d.Remaining()))
		for range n {
			v, err := r.decodeValue(d, chain, i+1, depth)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case KindObject:
		return r.decodeObject(d, depth+1)
	default:
		return readScalar(d, code)
	}
}

func readScalar(d *bin.Decoder, code TypeCode) (any, error) {
	var v any
	var err error
	switch code.Kind() {
	case KindInt, KindI18N:
		v, err = d.Int32()
	case KindBool:
		v, err = d.Bool()
	case KindString:
		v, err = d.String()
	case KindDouble:
		v, err = d.Double()
	case KindUint:
		v, err = d.Uint32()
	default:
		panic("readScalar: non-scalar type " + code.String())
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
