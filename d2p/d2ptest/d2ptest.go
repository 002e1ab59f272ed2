// Package d2ptest assembles D2P archives for tests.
package d2ptest

import (
	"os"
	"path/filepath"

	"github.com/andreyvit/d2data/bin/bintest"
	"github.com/andreyvit/d2data/d2p"
)

type File struct {
	VersionMajor uint8
	VersionMinor uint8
	Files        []Packed
	Properties   []d2p.Property
}

type Packed struct {
	Path string
	Data []byte
}

// Build lays out the header, file data, index, properties and trailer in that
// order.
func (f *File) Build() []byte {
	var b bintest.Builder
	b.Uint8(f.VersionMajor).Uint8(f.VersionMinor)

	dataOff := b.Off()
	offsets := make([]int, len(f.Files))
	for i, p := range f.Files {
		offsets[i] = b.Off() - dataOff
		b.Raw(p.Data...)
	}
	dataLen := b.Off() - dataOff

	indexOff := b.Off()
	for i, p := range f.Files {
		b.String(p.Path).Int32(int32(offsets[i])).Int32(int32(len(p.Data)))
	}

	propsOff := b.Off()
	for _, p := range f.Properties {
		b.String(p.Name).String(p.Value)
	}

	b.Uint32(uint32(dataOff)).Uint32(uint32(dataLen))
	b.Uint32(uint32(indexOff)).Uint32(uint32(len(f.Files)))
	b.Uint32(uint32(propsOff)).Uint32(uint32(len(f.Properties)))
	return b.Bytes()
}

// Write builds the archive into dir/name and returns the path.
func (f *File) Write(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	return path, os.WriteFile(path, f.Build(), 0o644)
}

func Link(name string) []d2p.Property {
	return []d2p.Property{{Name: d2p.LinkProperty, Value: name}}
}
