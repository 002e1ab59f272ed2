package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/andreyvit/d2data/d2o"
	"github.com/andreyvit/d2data/export"
)

// emit writes one result value in the selected format. JSON values are
// indented and newline-terminated; msgpack values are concatenated.
func (a *app) emit(v any) error {
	switch a.format {
	case "msgpack":
		var raw []byte
		var err error
		if obj, ok := v.(*d2o.Object); ok {
			raw, err = export.MsgPack.Encode(nil, obj)
		} else {
			raw, err = msgpack.Marshal(v)
		}
		if err != nil {
			return err
		}
		_, err = a.out.Write(raw)
		return err
	default:
		raw, err := d2o.MarshalJSONValue(v)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return err
		}
		_, err = fmt.Fprintf(a.out, "%s\n", buf.Bytes())
		return err
	}
}

func (a *app) emitObjects(objs []*d2o.Object) error {
	for _, obj := range objs {
		if err := a.emit(obj); err != nil {
			return err
		}
	}
	return nil
}
