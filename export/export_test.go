package export_test

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andreyvit/d2data/bin/bintest"
	"github.com/andreyvit/d2data/d2o"
	"github.com/andreyvit/d2data/d2o/d2otest"
	"github.com/andreyvit/d2data/export"
)

func spellsFile(level int32) *d2otest.File {
	return &d2otest.File{
		Classes: []d2o.Class{
			{ID: 1, Name: "Spell", Package: "com.ankamagames.dofus.datacenter.spells", Fields: []d2o.Field{
				d2otest.F("id", d2o.TypeInt),
				d2otest.F("nameId", d2o.TypeI18N),
				d2otest.F("levels", d2o.TypeVector, d2o.TypeUint),
				d2otest.F("ratio", d2o.TypeDouble),
				d2otest.F("icon", d2o.TypeString),
			}},
		},
		Objects: []d2otest.Object{
			{ID: 1, Data: func(b *bintest.Builder) {
				b.Int32(1).Int32(1).Int32(501)
				b.Int32(2).Uint32(1).Uint32(uint32(level))
				b.Double(0.5).String("fire")
			}},
			{ID: -3, Data: func(b *bintest.Builder) {
				b.Int32(1).Int32(-3).Int32(502)
				b.Int32(0)
				b.Double(-1).String("")
			}},
		},
	}
}

func openReader(t *testing.T, f *d2otest.File) *d2o.Reader {
	r, err := d2o.New(f.Build(), d2o.Options{})
	require.NoError(t, err)
	return r
}

func openStore(t *testing.T, enc export.Encoding) *export.Store {
	s, err := export.OpenStore(filepath.Join(t.TempDir(), "export.db"), export.Options{Encoding: enc, IsTesting: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func jsonOf(t *testing.T, v any) string {
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

func TestStore_Export(t *testing.T) {
	for _, enc := range []export.Encoding{export.MsgPack, export.JSON} {
		t.Run(enc.String(), func(t *testing.T) {
			s := openStore(t, enc)
			r := openReader(t, spellsFile(20))

			st, err := s.Export("Spells", r, false)
			require.NoError(t, err)
			require.Equal(t, export.Stats{Objects: 2, Bytes: st.Bytes}, st)
			require.Positive(t, st.Bytes)

			n, err := s.Count("Spells")
			require.NoError(t, err)
			require.Equal(t, 2, n)

			obj, err := s.Get("Spells", 1)
			require.NoError(t, err)
			require.JSONEq(t, `{"id":1,"nameId":501,"levels":[1,20],"ratio":0.5,"icon":"fire"}`, jsonOf(t, obj))

			obj, err = s.Get("Spells", -3)
			require.NoError(t, err)
			require.JSONEq(t, `{"id":-3,"nameId":502,"levels":[],"ratio":-1,"icon":""}`, jsonOf(t, obj))

			digest, err := s.Digest("Spells")
			require.NoError(t, err)
			require.Equal(t, r.Digest(), digest)

			names, err := s.Names()
			require.NoError(t, err)
			require.Equal(t, []string{"Spells"}, names)
		})
	}
}

func TestStore_ExportSkipsUnchanged(t *testing.T) {
	s := openStore(t, export.MsgPack)

	st, err := s.Export("Spells", openReader(t, spellsFile(20)), false)
	require.NoError(t, err)
	require.False(t, st.Skipped)

	st, err = s.Export("Spells", openReader(t, spellsFile(20)), false)
	require.NoError(t, err)
	require.True(t, st.Skipped)
	require.Zero(t, st.Objects)

	st, err = s.Export("Spells", openReader(t, spellsFile(20)), true)
	require.NoError(t, err)
	require.False(t, st.Skipped)
	require.Equal(t, 2, st.Objects)

	st, err = s.Export("Spells", openReader(t, spellsFile(30)), false)
	require.NoError(t, err)
	require.False(t, st.Skipped)

	obj, err := s.Get("Spells", 1)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":1,"nameId":501,"levels":[1,30],"ratio":0.5,"icon":"fire"}`, jsonOf(t, obj))
}

func TestStore_ExportFailureKeepsPrevious(t *testing.T) {
	s := openStore(t, export.MsgPack)
	_, err := s.Export("Spells", openReader(t, spellsFile(20)), false)
	require.NoError(t, err)

	broken := spellsFile(30)
	broken.Objects = append(broken.Objects, d2otest.Object{ID: 9, Data: func(b *bintest.Builder) { b.Int32(77) }})
	_, err = s.Export("Spells", openReader(t, broken), false)
	require.ErrorIs(t, err, d2o.ErrUnknownClass)

	n, err := s.Count("Spells")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	obj, err := s.Get("Spells", 1)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":1,"nameId":501,"levels":[1,20],"ratio":0.5,"icon":"fire"}`, jsonOf(t, obj))
}

func TestStore_ExportNonFinite(t *testing.T) {
	f := &d2otest.File{
		Classes: []d2o.Class{{ID: 1, Name: "R", Fields: []d2o.Field{d2otest.F("ratio", d2o.TypeDouble)}}},
		Objects: []d2otest.Object{
			{ID: 1, Data: func(b *bintest.Builder) { b.Int32(1).Double(math.NaN()) }},
			{ID: 2, Data: func(b *bintest.Builder) { b.Int32(1).Double(math.Inf(-1)) }},
		},
	}
	s := openStore(t, export.JSON)
	st, err := s.Export("Ratios", openReader(t, f), false)
	require.NoError(t, err)
	require.Equal(t, 2, st.Objects)

	obj, err := s.Get("Ratios", 1)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"ratio": "NaN"}, obj)
	obj, err = s.Get("Ratios", 2)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"ratio": "-Inf"}, obj)
}

func TestStore_Classes(t *testing.T) {
	s := openStore(t, export.JSON)
	_, err := s.Export("Spells", openReader(t, spellsFile(1)), false)
	require.NoError(t, err)

	classes, err := s.Classes("Spells")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	require.Equal(t, "Spell", classes[0].Name)
	require.Equal(t, "com.ankamagames.dofus.datacenter.spells", classes[0].Package)
	require.Equal(t, []export.FieldInfo{
		{Name: "id", Type: "int"},
		{Name: "nameId", Type: "i18n"},
		{Name: "levels", Type: "Vector<uint>"},
		{Name: "ratio", Type: "double"},
		{Name: "icon", Type: "string"},
	}, classes[0].Fields)
}

func TestStore_Missing(t *testing.T) {
	s := openStore(t, export.MsgPack)
	_, err := s.Get("Nope", 1)
	require.ErrorIs(t, err, export.ErrNotExported)
	_, err = s.Count("Nope")
	require.ErrorIs(t, err, export.ErrNotExported)

	_, err = s.Export("Spells", openReader(t, spellsFile(1)), false)
	require.NoError(t, err)
	_, err = s.Get("Spells", 404)
	require.ErrorIs(t, err, export.ErrNotFound)
}

func TestEncoding_KeepsFieldOrder(t *testing.T) {
	r := openReader(t, spellsFile(5))
	obj, err := r.Get(1)
	require.NoError(t, err)

	raw, err := export.JSON.Encode(nil, obj)
	require.NoError(t, err)
	require.Equal(t, `{"id":1,"nameId":501,"levels":[1,5],"ratio":0.5,"icon":"fire"}`, string(raw))

	raw, err = export.MsgPack.Encode([]byte{0xAA}, obj)
	require.NoError(t, err)
	require.Equal(t, byte(0xAA), raw[0])
	// fixmap with 5 entries, then fixstr "id"
	require.Equal(t, []byte{0x85, 0xA2, 'i', 'd'}, raw[1:5])
}

func TestParseEncoding(t *testing.T) {
	for _, enc := range []export.Encoding{export.MsgPack, export.JSON} {
		got, err := export.ParseEncoding(enc.String())
		require.NoError(t, err)
		require.Equal(t, enc, got)
	}
	_, err := export.ParseEncoding("xml")
	require.Error(t, err)
}
