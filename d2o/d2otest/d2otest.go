// Package d2otest assembles D2O containers for tests.
package d2otest

import (
	"fmt"

	"github.com/andreyvit/d2data/bin/bintest"
	"github.com/andreyvit/d2data/d2o"
)

// File describes a container to build. Objects are written in order at the
// start of the file, then the index table, classes and (if any) queries.
type File struct {
	Classes []d2o.Class
	Objects []Object
	Queries []Query

	// QueryTrailer is written after the query descriptors, in the slot that
	// query pointers are relative to.
	QueryTrailer int32
}

// Object is an indexed object. Data writes the object payload, starting with
// its class id.
type Object struct {
	ID   int32
	Data func(b *bintest.Builder)
}

type Query struct {
	Name    string
	Type    d2o.TypeCode
	Buckets []Bucket
}

// Bucket holds one value and its id list. If Raw is set, it's written as the
// id list body instead of IDs.
type Bucket struct {
	Value any
	IDs   []int32
	Raw   []byte
}

// Layout reports where Build placed things.
type Layout struct {
	Objects      map[int32]int
	IndexPointer int
	Buckets      map[string][]BucketLayout
}

// BucketLayout locates a bucket's id list body.
type BucketLayout struct {
	Start, Len int
}

func (f *File) Build() []byte {
	data, _ := f.BuildLayout()
	return data
}

func (f *File) BuildLayout() ([]byte, Layout) {
	lay := Layout{
		Objects: make(map[int32]int),
		Buckets: make(map[string][]BucketLayout),
	}
	var b bintest.Builder
	b.Raw('D', '2', 'O')
	ptrSlot := b.Placeholder()

	for _, obj := range f.Objects {
		lay.Objects[obj.ID] = b.Off()
		obj.Data(&b)
	}

	lay.IndexPointer = b.Off()
	b.PutInt32(ptrSlot, int32(b.Off()))
	b.Int32(int32(8 * len(f.Objects)))
	for _, obj := range f.Objects {
		b.Int32(obj.ID).Int32(int32(lay.Objects[obj.ID]))
	}

	b.Int32(int32(len(f.Classes)))
	for _, cls := range f.Classes {
		WriteClass(&b, cls)
	}

	if len(f.Queries) == 0 {
		return b.Bytes(), lay
	}

	sizeSlot := b.Placeholder()
	sectionStart := b.Off()
	ptrSlots := make([]int, len(f.Queries))
	for i, q := range f.Queries {
		b.String(q.Name)
		ptrSlots[i] = b.Placeholder()
		b.Int32(int32(q.Type))
		b.Int32(int32(len(q.Buckets)))
	}
	b.PutInt32(sizeSlot, int32(b.Off()-sectionStart))
	b.Int32(f.QueryTrailer)
	base := b.Off()

	for i, q := range f.Queries {
		b.PutInt32(ptrSlots[i], int32(b.Off()-base))
		for _, bk := range q.Buckets {
			WriteScalar(&b, q.Type, bk.Value)
			lenSlot := b.Placeholder()
			start := b.Off()
			if bk.Raw != nil {
				b.Raw(bk.Raw...)
			} else {
				for _, id := range bk.IDs {
					b.Int32(id)
				}
			}
			b.PutInt32(lenSlot, int32(b.Off()-start))
			lay.Buckets[q.Name] = append(lay.Buckets[q.Name], BucketLayout{start, b.Off() - start})
		}
	}
	return b.Bytes(), lay
}

func WriteClass(b *bintest.Builder, cls d2o.Class) {
	b.Int32(cls.ID).String(cls.Name).String(cls.Package)
	b.Int32(int32(len(cls.Fields)))
	for _, f := range cls.Fields {
		for _, l := range f.Chain {
			b.String(l.Name).Int32(int32(l.Code))
		}
	}
}

// WriteScalar encodes v as a primitive of type code.
func WriteScalar(b *bintest.Builder, code d2o.TypeCode, v any) {
	switch code.Kind() {
	case d2o.KindInt, d2o.KindI18N:
		b.Int32(toInt32(v))
	case d2o.KindBool:
		b.Bool(v.(bool))
	case d2o.KindString:
		b.String(v.(string))
	case d2o.KindDouble:
		b.Double(v.(float64))
	case d2o.KindUint:
		b.Uint32(uint32(toInt32(v)))
	default:
		panic(fmt.Sprintf("WriteScalar: non-scalar type %v", code))
	}
}

func toInt32(v any) int32 {
	switch v := v.(type) {
	case int32:
		return v
	case int:
		return int32(v)
	case uint32:
		return int32(v)
	default:
		panic(fmt.Sprintf("unsupported integer %T", v))
	}
}

// F declares a field; codes lists the chain's type codes, the inner links
// get synthetic names.
func F(name string, codes ...d2o.TypeCode) d2o.Field {
	chain := make([]d2o.Link, len(codes))
	for i, c := range codes {
		n := name
		if i > 0 {
			n = fmt.Sprintf("%s#%d", name, i)
		}
		chain[i] = d2o.Link{Name: n, Code: c}
	}
	return d2o.Field{Name: name, Chain: chain}
}
