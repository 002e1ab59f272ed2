package d2o

import (
	"slices"
	"strings"

	"github.com/andreyvit/d2data/bin"
)

// Class is the schema of one class declared in the container.
type Class struct {
	ID      int32
	Name    string
	Package string
	Fields  []Field
}

// Field is one logical field. Chain holds the field's own (name, type) first,
// followed by one link per vector nesting level; only the last link has a
// non-vector type.
type Field struct {
	Name  string
	Chain []Link
}

type Link struct {
	Name string
	Code TypeCode
}

func (cls *Class) QualifiedName() string {
	if cls.Package == "" {
		return cls.Name
	}
	return cls.Package + "." + cls.Name
}

func (cls *Class) FieldNames() []string {
	names := make([]string, len(cls.Fields))
	for i, f := range cls.Fields {
		names[i] = f.Name
	}
	return names
}

func (cls *Class) Field(name string) (Field, bool) {
	for _, f := range cls.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (cls *Class) clone() *Class {
	c := *cls
	c.Fields = make([]Field, len(cls.Fields))
	for i, f := range cls.Fields {
		c.Fields[i] = Field{f.Name, slices.Clone(f.Chain)}
	}
	return &c
}

// Type returns the type code of the field's first link.
func (f Field) Type() TypeCode {
	return f.Chain[0].Code
}

// Elem returns the terminal (non-vector) type code.
func (f Field) Elem() TypeCode {
	return f.Chain[len(f.Chain)-1].Code
}

// Depth returns the vector nesting depth, 0 for scalars and objects.
func (f Field) Depth() int {
	return len(f.Chain) - 1
}

// TypeName renders the field type, e.g. "Vector<Vector<int>>".
func (f Field) TypeName() string {
	var buf strings.Builder
	for _, l := range f.Chain[:len(f.Chain)-1] {
		buf.WriteString(l.Code.String())
		buf.WriteByte('<')
	}
	buf.WriteString(f.Elem().String())
	for range f.Depth() {
		buf.WriteByte('>')
	}
	return buf.String()
}

func (r *Reader) readClasses(d *bin.Decoder) error {
	count, err := d.Int32()
	if err != nil {
		return err
	}
	if count < 0 {
		return bin.Errorf(r.data, d.Off()-4, ErrInvalidFormat, "negative class count %d", count)
	}

	r.classes = make(map[int32]*Class, min(int(count), d.Remaining()/12))
	for range count {
		cls, err := readClass(d)
		if err != nil {
			return err
		}
		r.classes[cls.ID] = cls
	}
	return nil
}

func readClass(d *bin.Decoder) (*Class, error) {
	var cls Class
	var err error
	if cls.ID, err = d.Int32(); err != nil {
		return nil, err
	}
	if cls.Name, err = d.String(); err != nil {
		return nil, err
	}
	if cls.Package, err = d.String(); err != nil {
		return nil, err
	}
	if cls.Fields, err = readFields(d); err != nil {
		return nil, err
	}
	return &cls, nil
}

func readFields(d *bin.Decoder) ([]Field, error) {
	count, err := d.Int32()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, bin.Errorf(d.Data(), d.Off()-4, ErrInvalidFormat, "negative field count %d", count)
	}

	fields := make([]Field, 0, min(int(count), d.Remaining()/6))
	for range count {
		link, err := readLink(d)
		if err != nil {
			return nil, err
		}
		chain := []Link{link}
		for link.Code == TypeVector {
			link, err = readLink(d)
			if err != nil {
				return nil, err
			}
			chain = append(chain, link)
		}
		fields = append(fields, Field{chain[0].Name, chain})
	}
	return fields, nil
}

func readLink(d *bin.Decoder) (Link, error) {
	name, err := d.String()
	if err != nil {
		return Link{}, err
	}
	code, err := d.Int32()
	if err != nil {
		return Link{}, err
	}
	return Link{name, TypeCode(code)}, nil
}
