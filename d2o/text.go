package d2o

// TextLookup resolves an i18n id, typically via a D2I reader.
type TextLookup func(id int32) (string, bool)

// ResolveText returns a copy of obj in which every i18n field value, including
// values inside vectors and embedded objects, is replaced by the text lookup
// returns for it. Ids that lookup doesn't know are kept as int32.
func (r *Reader) ResolveText(obj *Object, lookup TextLookup) *Object {
	cls := r.classes[obj.ClassID]
	out := &Object{
		ClassID:   obj.ClassID,
		ClassName: obj.ClassName,
		Fields:    make([]FieldValue, len(obj.Fields)),
	}
	for i, fv := range obj.Fields {
		if cls != nil && i < len(cls.Fields) {
			fv.Value = r.resolveValue(fv.Value, cls.Fields[i].Chain, 0, lookup)
		}
		out.Fields[i] = fv
	}
	return out
}

func (r *Reader) resolveValue(v any, chain []Link, i int, lookup TextLookup) any {
	switch chain[i].Code.Kind() {
	case KindI18N:
		if id, ok := v.(int32); ok {
			if s, ok := lookup(id); ok {
				return s
			}
		}
	case KindVector:
		items, ok := v.([]any)
		if !ok || i+1 >= len(chain) {
			return v
		}
		out := make([]any, len(items))
		for j, item := range items {
			out[j] = r.resolveValue(item, chain, i+1, lookup)
		}
		return out
	case KindObject:
		if o, ok := v.(*Object); ok {
			return r.ResolveText(o, lookup)
		}
	}
	return v
}
