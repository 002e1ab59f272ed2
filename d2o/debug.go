package d2o

import (
	"encoding/json"
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpClasses = DumpFlags(1 << iota)
	DumpIndex
	DumpQueries
	DumpObjects

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)

	indentStep = "  "
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the parts of the container selected by f as text. Objects
// that fail to decode are reported inline.
func (r *Reader) Dump(f DumpFlags) string {
	var buf strings.Builder
	fmt.Fprintln(&buf, dumpSep1)
	fmt.Fprintf(&buf, "D2O (%d bytes, %d objects, %d classes, %d queries)\n", len(r.data), len(r.ids), len(r.classes), len(r.queryNames))

	if f.Contains(DumpClasses) {
		fmt.Fprintln(&buf, dumpSep2)
		for _, cls := range r.Classes() {
			fmt.Fprintf(&buf, "class %d %s (%d fields)\n", cls.ID, cls.QualifiedName(), len(cls.Fields))
			for _, fld := range cls.Fields {
				fmt.Fprintf(&buf, "%s%s: %s\n", indentStep, fld.Name, r.fieldTypeName(fld))
			}
		}
	}
	if f.Contains(DumpIndex) {
		fmt.Fprintln(&buf, dumpSep2)
		for _, id := range r.ids {
			fmt.Fprintf(&buf, "%d @ 0x%x\n", id, r.index[id])
		}
	}
	if f.Contains(DumpQueries) {
		fmt.Fprintln(&buf, dumpSep2)
		for _, name := range r.queryNames {
			q := r.queries[name]
			fmt.Fprintf(&buf, "query %s: %v, %d buckets @ 0x%x\n", q.Name, q.Type, q.Count, q.Pointer)
		}
	}
	if f.Contains(DumpObjects) {
		fmt.Fprintln(&buf, dumpSep2)
		for _, id := range r.ids {
			obj, err := r.Get(id)
			if err != nil {
				fmt.Fprintf(&buf, "%d: <error: %v>\n", id, err)
				continue
			}
			raw, err := json.Marshal(obj)
			if err != nil {
				fmt.Fprintf(&buf, "%d: <error: %v>\n", id, err)
				continue
			}
			fmt.Fprintf(&buf, "%d: %s %s\n", id, obj.ClassName, raw)
		}
	}
	return buf.String()
}

// fieldTypeName is Field.TypeName with class references resolved to names.
func (r *Reader) fieldTypeName(f Field) string {
	s := f.TypeName()
	if elem := f.Elem(); elem.Kind() == KindObject {
		if cls := r.classes[int32(elem)]; cls != nil {
			s = strings.Replace(s, elem.String(), cls.Name, 1)
		}
	}
	return s
}
