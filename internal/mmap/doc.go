// Package mmap provides anonymous memory mappings for off-heap storage.
//
// # Overview
//
// Large record pools keep millions of float64 slots alive for the lifetime of
// a tree. Backing them with an anonymous mapping keeps that memory outside the
// Go heap, so the garbage collector never scans or moves it.
//
// # Usage
//
//	m, err := mmap.MapAnon(1 << 20)
//	if err != nil { ... }
//	defer m.Close()
//
//	slots := m.Float64s()        // 131072 float64 slots
//	m.Advise(mmap.AccessRandom)  // KD-tree traversal is random access
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON and madvise(2) hints
//   - Windows: VirtualAlloc/VirtualFree (Advise is a no-op)
//   - Other platforms: a plain heap slice
//
// # Thread Safety
//
// Close is idempotent and protected by an atomic flag. Callers must ensure no
// goroutine touches Bytes() or Float64s() after Close returns.
package mmap
