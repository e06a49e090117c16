// Package pool provides flyweight object pools over contiguous float64 storage.
//
// A Pool stores fixed-size records of Stride() float64 slots in a single flat
// slice, addressed by dense integer index. Records are never boxed: callers
// read and write them through a Ref, a mutable cursor that is repointed to any
// record in O(1) without allocation.
//
// # Flyweight Refs
//
//	ref := p.CreateRef()
//	defer p.ReleaseRef(ref)
//
//	p.GetByIndex(42, ref)
//	x := ref.Float(0)
//
// Two refs pointing at the same index alias the same memory: a write through
// one is visible through the other. Refs are never duplicated implicitly; use
// RefTo to point a second ref at the same record.
//
// # Index Lifecycle
//
// An index identifies a record for the record's entire lifetime. Deleted
// indices go to a free list and are handed out again only by a later Create.
//
// # Backing Storage
//
// Storage lives on the Go heap by default. WithOffHeap moves it into an
// anonymous memory mapping, which keeps large pools out of the garbage
// collector's view. Growth can be accounted against a MemoryAcquirer.
//
// # Thread Safety
//
// Pools and refs are not safe for concurrent mutation. Concurrent readers are
// fine as long as each goroutine uses its own refs.
package pool
