package mmap

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOptionsHas(t *testing.T) {
	var o Options = RandomAccess | Prefault
	if !o.Has(RandomAccess) || !o.Has(Prefault) || o.Has(SequentialAccess) {
		t.Fatalf("Options.Has returned unexpected results for %v", o)
	}
}

func TestMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	want := []byte("D2O\x00\x00\x00\x07hello")
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatal(err)
	}

	for _, opt := range []Options{0, SequentialAccess, RandomAccess | Prefault} {
		m, err := Map(path, opt)
		if err != nil {
			t.Fatalf("Map(%v): %v", opt, err)
		}
		if m.Len() != len(want) || string(m.Bytes()) != string(want) {
			t.Fatalf("Map(%v).Bytes() = %q, wanted %q", opt, m.Bytes(), want)
		}
		if m.Path() != path {
			t.Fatalf("Path() = %q, wanted %q", m.Path(), path)
		}
		if err := m.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if err := m.Close(); err != nil {
			t.Fatalf("second Close: %v", err)
		}
	}
}

func TestMap_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := Map(path, 0)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if m.Len() != 0 || m.Bytes() == nil {
		t.Fatalf("Map(empty) = %v, wanted empty non-nil slice", m.Bytes())
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestMap_Missing(t *testing.T) {
	_, err := Map(filepath.Join(t.TempDir(), "nope.bin"), 0)
	if !os.IsNotExist(err) {
		t.Fatalf("err = %v, wanted not-exist", err)
	}
}

func TestMmap_PanicsOnNonZeroOffset(t *testing.T) {
	f := must(os.CreateTemp(t.TempDir(), "mmap_test_*"))
	defer f.Close()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	_, _ = Mmap(f, 1, 1, 0)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
