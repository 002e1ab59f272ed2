package d2o

import (
	"bytes"
	"encoding/json"
	"math"
)

// Object is a decoded class instance. Fields appear in schema order.
//
// Values are int32 (int, i18n), bool, string, float64, uint32, []any for
// vectors, and *Object for embedded objects. Objects are owned by the caller.
type Object struct {
	ClassID   int32
	ClassName string
	Fields    []FieldValue
}

type FieldValue struct {
	Name  string
	Value any
}

func (o *Object) Get(name string) (any, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

func (o *Object) Names() []string {
	names := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		names[i] = f.Name
	}
	return names
}

// Map converts the object into plain nested maps and slices, losing field
// order.
func (o *Object) Map() map[string]any {
	m := make(map[string]any, len(o.Fields))
	for _, f := range o.Fields {
		m[f.Name] = plainValue(f.Value)
	}
	return m
}

func plainValue(v any) any {
	switch v := v.(type) {
	case *Object:
		return v.Map()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plainValue(item)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON encodes the object as a JSON object with keys in schema order.
// Non-finite doubles are written as in MarshalJSONValue.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := MarshalJSONValue(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSONValue encodes a decoded value. JSON has no NaN or infinities,
// so those doubles become the strings "NaN", "+Inf" and "-Inf".
func MarshalJSONValue(v any) ([]byte, error) {
	switch v := v.(type) {
	case float64:
		switch {
		case math.IsNaN(v):
			return []byte(`"NaN"`), nil
		case math.IsInf(v, 1):
			return []byte(`"+Inf"`), nil
		case math.IsInf(v, -1):
			return []byte(`"-Inf"`), nil
		}
		return json.Marshal(v)
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			raw, err := MarshalJSONValue(item)
			if err != nil {
				return nil, err
			}
			buf.Write(raw)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return json.Marshal(v)
	}
}
