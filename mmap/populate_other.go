//go:build unix && !linux

package mmap

// Prefault has no equivalent outside Linux.
const mapPopulate = 0
