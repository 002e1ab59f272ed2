package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/andreyvit/d2data/bin"
	"github.com/andreyvit/d2data/d2o"
)

// Encoding selects how exported objects are serialized.
type Encoding int

const (
	MsgPack Encoding = iota
	JSON

	DefaultEncoding = MsgPack
)

func (enc Encoding) String() string {
	switch enc {
	case MsgPack:
		return "msgpack"
	case JSON:
		return "json"
	default:
		return fmt.Sprintf("encoding#%d", int(enc))
	}
}

// ParseEncoding accepts the names returned by Encoding.String.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "msgpack":
		return MsgPack, nil
	case "json":
		return JSON, nil
	default:
		return 0, fmt.Errorf("unknown encoding %q", s)
	}
}

// Encode appends the serialized form of obj to buf. Fields keep schema order
// in both encodings.
func (enc Encoding) Encode(buf []byte, obj *d2o.Object) ([]byte, error) {
	switch enc {
	case MsgPack:
		w := appendWriter{buf}
		e := msgpack.GetEncoder()
		e.ResetDict(&w, nil)
		err := encodeMsgpack(e, obj)
		msgpack.PutEncoder(e)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s using MsgPack: %w", obj.ClassName, err)
		}
		return w.buf, nil
	case JSON:
		raw, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s to JSON: %w", obj.ClassName, err)
		}
		return append(buf, raw...), nil
	default:
		panic("unsupported encoding")
	}
}

// Decode parses an encoded object into plain maps, slices and scalars.
func (enc Encoding) Decode(data []byte) (any, error) {
	switch enc {
	case MsgPack:
		var r bytes.Reader
		r.Reset(data)
		dec := msgpack.GetDecoder()
		dec.ResetDict(&r, nil)
		dec.UseLooseInterfaceDecoding(true)
		v, err := dec.DecodeInterface()
		msgpack.PutDecoder(dec)
		if err != nil {
			return nil, bin.Errorf(data, 0, err, "failed to decode msgpack")
		}
		return v, nil
	case JSON:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, bin.Errorf(data, 0, err, "failed to decode JSON")
		}
		return v, nil
	default:
		panic("unsupported encoding")
	}
}

func encodeMsgpack(e *msgpack.Encoder, v any) error {
	switch v := v.(type) {
	case *d2o.Object:
		if err := e.EncodeMapLen(len(v.Fields)); err != nil {
			return err
		}
		for _, f := range v.Fields {
			if err := e.EncodeString(f.Name); err != nil {
				return err
			}
			if err := encodeMsgpack(e, f.Value); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
		}
		return nil
	case []any:
		if err := e.EncodeArrayLen(len(v)); err != nil {
			return err
		}
		for _, item := range v {
			if err := encodeMsgpack(e, item); err != nil {
				return err
			}
		}
		return nil
	case int32:
		return e.EncodeInt(int64(v))
	case uint32:
		return e.EncodeUint(uint64(v))
	case nil:
		return e.EncodeNil()
	default:
		// bool, string, float64 and resolved i18n text
		return e.Encode(v)
	}
}

type appendWriter struct {
	buf []byte
}

func (w *appendWriter) Write(b []byte) (int, error) {
	w.buf = append(w.buf, b...)
	return len(b), nil
}

func (w *appendWriter) WriteByte(c byte) error {
	w.buf = append(w.buf, c)
	return nil
}
