// Package d2itest assembles D2I tables for tests.
package d2itest

import "github.com/andreyvit/d2data/bin/bintest"

type File struct {
	Texts []Text
	Keys  []Key
}

// Text is a numeric entry. Diacritical is stored only if HasDiacritical.
type Text struct {
	ID             int32
	Text           string
	Diacritical    string
	HasDiacritical bool
}

type Key struct {
	Key  string
	Text string
}

func (f *File) Build() []byte {
	var b bintest.Builder
	ptrSlot := b.Placeholder()

	textPtrs := make([]int32, len(f.Texts))
	diaPtrs := make([]int32, len(f.Texts))
	for i, t := range f.Texts {
		textPtrs[i] = int32(b.Off())
		b.String(t.Text)
		if t.HasDiacritical {
			diaPtrs[i] = int32(b.Off())
			b.String(t.Diacritical)
		}
	}
	keyPtrs := make([]int32, len(f.Keys))
	for i, k := range f.Keys {
		keyPtrs[i] = int32(b.Off())
		b.String(k.Text)
	}

	b.PutInt32(ptrSlot, int32(b.Off()))
	sizeSlot := b.Placeholder()
	start := b.Off()
	for i, t := range f.Texts {
		b.Int32(t.ID).Bool(t.HasDiacritical).Int32(textPtrs[i])
		if t.HasDiacritical {
			b.Int32(diaPtrs[i])
		}
	}
	b.PutInt32(sizeSlot, int32(b.Off()-start))

	sizeSlot = b.Placeholder()
	start = b.Off()
	for i, k := range f.Keys {
		b.String(k.Key).Int32(keyPtrs[i])
	}
	b.PutInt32(sizeSlot, int32(b.Off()-start))
	return b.Bytes()
}
