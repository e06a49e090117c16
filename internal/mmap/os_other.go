//go:build !unix && !windows

package mmap

import "unsafe"

func osMapAnon(size int) ([]byte, func([]byte) error, error) {
	// Round up so Float64s can view the whole buffer with 8-byte alignment.
	words := make([]uint64, (size+7)/8)
	data := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size) //nolint:gosec // alignment for float64 views
	return data, nil, nil
}

func osAdvise([]byte, AccessPattern) error {
	return nil
}
