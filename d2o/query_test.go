package d2o_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/andreyvit/d2data/d2o"
	"github.com/andreyvit/d2data/d2o/d2otest"
)

func queryFile(queries ...d2otest.Query) *d2otest.File {
	f := monstersFile()
	f.Queries = queries
	f.QueryTrailer = int32(len(queries))
	return f
}

func gt(n int32) d2o.Predicate {
	return func(v any) bool { return v.(int32) > n }
}

func TestQuery_SkipsNonMatchingBuckets(t *testing.T) {
	// The skipped bucket lists ids that don't exist, so reading it would
	// fail the query.
	r := open(t, queryFile(d2otest.Query{
		Name: "level",
		Type: d2o.TypeInt,
		Buckets: []d2otest.Bucket{
			{Value: 10, IDs: []int32{404, 405}},
			{Value: 20, IDs: []int32{3}},
		},
	}))

	objs, err := r.Query("level", gt(15))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(objs) != 1 || objs[0].ClassName != "Monster" || field(objs[0], "id") != any(int32(3)) {
		t.Fatalf("Query = %v, wanted [craqueleur]", objs)
	}

	st := r.Stats()
	if st.IndexLookups != 1 {
		t.Fatalf("IndexLookups = %d, wanted 1", st.IndexLookups)
	}
	if st.BucketsMatched != 1 || st.BucketsSkipped != 1 {
		t.Fatalf("buckets matched/skipped = %d/%d, wanted 1/1", st.BucketsMatched, st.BucketsSkipped)
	}
}

func TestQuery_NoMatchesNoLookups(t *testing.T) {
	r := open(t, queryFile(d2otest.Query{
		Name: "level",
		Type: d2o.TypeInt,
		Buckets: []d2otest.Bucket{
			{Value: 10, IDs: []int32{1, 2}},
			{Value: 20, IDs: []int32{3}},
		},
	}))

	objs, err := r.Query("level", gt(100))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(objs) != 0 {
		t.Fatalf("Query = %v, wanted none", objs)
	}
	if st := r.Stats(); st.IndexLookups != 0 || st.ObjectsDecoded != 0 {
		t.Fatalf("Stats = %+v, wanted no lookups and no decodes", st)
	}
}

func TestQuery_OrderAcrossBuckets(t *testing.T) {
	r := open(t, queryFile(d2otest.Query{
		Name: "tag",
		Type: d2o.TypeInt,
		Buckets: []d2otest.Bucket{
			{Value: 5, IDs: []int32{3, 1}},
			{Value: 6, IDs: []int32{}},
			{Value: 7, IDs: []int32{2, 3}},
		},
	}))

	ids := must(r.QueryIDs("tag", func(any) bool { return true }))
	deepEqual(t, ids, []int32{3, 1, 2, 3})

	objs := must(r.Query("tag", func(any) bool { return true }))
	var got []int32
	for _, o := range objs {
		got = append(got, field(o, "id").(int32))
	}
	deepEqual(t, got, []int32{3, 1, 2, 3})
}

func TestQuery_MatchesPossibleValues(t *testing.T) {
	q := d2otest.Query{
		Name: "level",
		Type: d2o.TypeInt,
		Buckets: []d2otest.Bucket{
			{Value: 10, IDs: []int32{1}},
			{Value: 20, IDs: []int32{2}},
			{Value: 30, IDs: []int32{3}},
		},
	}
	r := open(t, queryFile(q))

	values := must(r.PossibleValues("level"))
	deepEqual(t, values, []any{int32(10), int32(20), int32(30)})

	for _, n := range []int32{0, 10, 15, 30} {
		pred := gt(n)
		var want []int32
		for i, v := range values {
			if pred(v) {
				want = append(want, q.Buckets[i].IDs...)
			}
		}
		got := must(r.QueryIDs("level", pred))
		if !slices.Equal(got, want) {
			t.Fatalf("QueryIDs(> %d) = %v, wanted %v", n, got, want)
		}
	}
}

func TestPossibleValues_KeepsDuplicates(t *testing.T) {
	r := open(t, queryFile(d2otest.Query{
		Name: "boss",
		Type: d2o.TypeBool,
		Buckets: []d2otest.Bucket{
			{Value: false, IDs: []int32{1}},
			{Value: true, IDs: []int32{2}},
			{Value: true, IDs: []int32{3}},
		},
	}))
	deepEqual(t, must(r.PossibleValues("boss")), []any{false, true, true})

	ids := must(r.QueryIDs("boss", func(v any) bool { return v.(bool) }))
	deepEqual(t, ids, []int32{2, 3})
}

func TestQuery_StringAndDoubleKeys(t *testing.T) {
	r := open(t, queryFile(
		d2otest.Query{
			Name: "look",
			Type: d2o.TypeString,
			Buckets: []d2otest.Bucket{
				{Value: "", IDs: []int32{2}},
				{Value: "{1|2}", IDs: []int32{1}},
				{Value: "é", IDs: []int32{3}},
			},
		},
		d2otest.Query{
			Name: "speed",
			Type: d2o.TypeDouble,
			Buckets: []d2otest.Bucket{
				{Value: -0.25, IDs: []int32{2}},
				{Value: 1.5, IDs: []int32{1}},
			},
		},
	))

	deepEqual(t, r.QueryableKeys(), []string{"look", "speed"})

	ids := must(r.QueryIDs("look", func(v any) bool { return v.(string) == "é" }))
	deepEqual(t, ids, []int32{3})

	ids = must(r.QueryIDs("speed", func(v any) bool { return v.(float64) > 0 }))
	deepEqual(t, ids, []int32{1})

	spec := must(r.QuerySpec("speed"))
	if spec.Name != "speed" || spec.Type != d2o.TypeDouble || spec.Count != 2 {
		t.Fatalf("QuerySpec = %+v", spec)
	}
}

func TestQuery_UnknownKey(t *testing.T) {
	r := open(t, queryFile(d2otest.Query{
		Name:    "level",
		Type:    d2o.TypeInt,
		Buckets: []d2otest.Bucket{{Value: 10, IDs: []int32{1}}},
	}))

	if _, err := r.Query("nope", gt(0)); !errors.Is(err, d2o.ErrUnknownQueryKey) {
		t.Fatalf("Query err = %v, wanted ErrUnknownQueryKey", err)
	}
	if _, err := r.PossibleValues("nope"); !errors.Is(err, d2o.ErrUnknownQueryKey) {
		t.Fatalf("PossibleValues err = %v, wanted ErrUnknownQueryKey", err)
	}
	if _, err := r.QuerySpec("nope"); !errors.Is(err, d2o.ErrUnknownQueryKey) {
		t.Fatalf("QuerySpec err = %v, wanted ErrUnknownQueryKey", err)
	}

	deepEqual(t, must(r.QueryIDs("level", gt(0))), []int32{1})
}

func TestQuery_UnsupportedType(t *testing.T) {
	r := open(t, &d2otest.File{
		Classes: []d2o.Class{monsterSchema, gradeSchema},
		Objects: []d2otest.Object{bouftou.object()},
		Queries: []d2otest.Query{{Name: "grades", Type: d2o.TypeVector}},
	})
	if _, err := r.PossibleValues("grades"); !errors.Is(err, d2o.ErrUnsupportedQueryType) {
		t.Fatalf("err = %v, wanted ErrUnsupportedQueryType", err)
	}
}

func TestQuery_UnalignedIDList(t *testing.T) {
	r := open(t, queryFile(d2otest.Query{
		Name: "level",
		Type: d2o.TypeInt,
		Buckets: []d2otest.Bucket{
			{Value: 10, Raw: []byte{0, 0, 0, 1, 0xEE}},
			{Value: 20, IDs: []int32{2}},
		},
	}))
	deepEqual(t, must(r.QueryIDs("level", gt(0))), []int32{1, 2})
	deepEqual(t, must(r.PossibleValues("level")), []any{int32(10), int32(20)})
}

func TestQuery_NoSection(t *testing.T) {
	r := open(t, monstersFile())
	if keys := r.QueryableKeys(); len(keys) != 0 {
		t.Fatalf("QueryableKeys = %v, wanted none", keys)
	}
}

func TestQuery_PointerBase(t *testing.T) {
	f := queryFile(
		d2otest.Query{Name: "a", Type: d2o.TypeInt, Buckets: []d2otest.Bucket{{Value: 1, IDs: []int32{1}}}},
		d2otest.Query{Name: "b", Type: d2o.TypeInt, Buckets: []d2otest.Bucket{{Value: 2, IDs: []int32{2}}}},
	)
	data, lay := f.BuildLayout()
	r := must(d2o.New(data, d2o.Options{}))

	for _, key := range []string{"a", "b"} {
		spec := must(r.QuerySpec(key))
		// One int32 value and the id list length precede the body.
		if want := lay.Buckets[key][0].Start - 8; spec.Pointer != want {
			t.Fatalf("%s: Pointer = %d, wanted %d", key, spec.Pointer, want)
		}
	}
}

func field(o *d2o.Object, name string) any {
	v, _ := o.Get(name)
	return v
}
