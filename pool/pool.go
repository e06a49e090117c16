package pool

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/kdpool/internal/mmap"
)

var (
	// ErrInvalidStride is returned when a pool is created with a non-positive stride.
	ErrInvalidStride = errors.New("pool: stride must be positive")
	// ErrPoolFull is returned when backing storage cannot grow.
	ErrPoolFull = errors.New("pool: cannot grow backing storage")
	// ErrClosed is returned when allocating from a closed pool.
	ErrClosed = errors.New("pool: closed")
)

const (
	minCapacity = 16
	slotBytes   = 8

	// acquireTimeout bounds how long growth waits for a memory reservation.
	acquireTimeout = 100 * time.Millisecond
)

// Pool owns contiguous backing storage for fixed-size float64 records.
type Pool struct {
	stride   int
	data     []float64
	capacity int // records the backing storage can hold
	size     int // records ever handed out; valid indices are [0,size)
	live     int

	free  []int
	freed *bitset.BitSet // bit i set => index i is on the free list
	refs  []*Ref         // released refs

	offHeap  bool
	mapping  *mmap.Mapping
	acquirer MemoryAcquirer
	reserved int64
	closed   bool
}

// New creates a pool of records with stride float64 slots each.
func New(stride int, optFns ...Option) (*Pool, error) {
	if stride <= 0 {
		return nil, ErrInvalidStride
	}

	var o options
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	p := &Pool{
		stride:   stride,
		freed:    bitset.New(0),
		offHeap:  o.offHeap,
		acquirer: o.acquirer,
	}

	if o.capacity > 0 {
		if err := p.grow(o.capacity); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Stride returns the number of float64 slots per record.
func (p *Pool) Stride() int { return p.stride }

// Len returns the number of live records.
func (p *Pool) Len() int { return p.live }

// Size returns the exclusive upper bound of handed-out indices, live or free.
func (p *Pool) Size() int { return p.size }

// Cap returns the number of records the current backing storage can hold.
func (p *Pool) Cap() int { return p.capacity }

// OffHeap reports whether the pool is backed by mapped memory.
func (p *Pool) OffHeap() bool { return p.offHeap }

// Data returns the flat backing slots of all handed-out records.
// Record i occupies Data()[i*Stride() : (i+1)*Stride()].
// The slice is invalidated by the next growth of the pool.
func (p *Pool) Data() []float64 {
	return p.data[:p.size*p.stride]
}

// IsLive reports whether index i refers to a live record.
func (p *Pool) IsLive(i int) bool {
	return i >= 0 && i < p.size && !p.freed.Test(uint(i))
}

// CreateRef returns a flyweight cursor that is not bound to any record.
func (p *Pool) CreateRef() *Ref {
	if n := len(p.refs); n > 0 {
		r := p.refs[n-1]
		p.refs = p.refs[:n-1]
		return r
	}
	return &Ref{pool: p, index: -1}
}

// ReleaseRef returns ref to the pool for reuse by a later CreateRef.
// The caller must not use ref afterwards.
func (p *Pool) ReleaseRef(ref *Ref) {
	if ref == nil {
		return
	}
	ref.index = -1
	ref.base = 0
	p.refs = append(p.refs, ref)
}

// Create allocates a zeroed record and points ref at it.
func (p *Pool) Create(ref *Ref) (*Ref, error) {
	if p.closed {
		return nil, ErrClosed
	}

	var idx int
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
		p.freed.Clear(uint(idx))
		clear(p.data[idx*p.stride : (idx+1)*p.stride])
	} else {
		if p.size == p.capacity {
			if err := p.grow(p.size + 1); err != nil {
				return nil, err
			}
		}
		idx = p.size
		p.size++
	}
	p.live++

	return p.GetByIndex(idx, ref), nil
}

// Delete frees the record ref points at. Its index may be recycled by a later Create.
// Deleting a record that is already free is a no-op.
func (p *Pool) Delete(ref *Ref) {
	idx := ref.index
	if !p.IsLive(idx) {
		return
	}
	p.freed.Set(uint(idx))
	p.free = append(p.free, idx)
	p.live--
}

// GetByIndex points ref at record index and returns it.
func (p *Pool) GetByIndex(index int, ref *Ref) *Ref {
	if uint(index) >= uint(p.size) {
		panic(fmt.Sprintf("pool: index %d out of range [0,%d)", index, p.size))
	}
	ref.pool = p
	ref.index = index
	ref.base = index * p.stride
	return ref
}

// Swap exchanges the storage of records i and j in place.
// Refs keep pointing at their index, so they observe the swapped contents.
func (p *Pool) Swap(i, j int) {
	if i == j {
		return
	}
	s := p.stride
	a := p.data[i*s : i*s+s]
	b := p.data[j*s : j*s+s]
	for k := range a {
		a[k], b[k] = b[k], a[k]
	}
}

// All iterates the live records in index order through ref.
func (p *Pool) All(ref *Ref) iter.Seq[*Ref] {
	return func(yield func(*Ref) bool) {
		for i := 0; i < p.size; i++ {
			if p.freed.Test(uint(i)) {
				continue
			}
			if !yield(p.GetByIndex(i, ref)) {
				return
			}
		}
	}
}

// MemoryUsage returns the bytes of backing storage held by the pool.
func (p *Pool) MemoryUsage() int64 {
	return int64(p.capacity) * int64(p.stride) * slotBytes
}

// Close releases the backing storage. It is idempotent.
func (p *Pool) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	var err error
	if p.mapping != nil {
		err = p.mapping.Close()
		p.mapping = nil
	}
	p.data = nil
	p.capacity = 0
	p.size = 0
	p.live = 0
	p.free = nil
	p.freed.ClearAll()

	if p.acquirer != nil && p.reserved > 0 {
		p.acquirer.ReleaseMemory(p.reserved)
		p.reserved = 0
	}
	return err
}

func (p *Pool) grow(minCap int) error {
	newCap := max(minCap, 2*p.capacity, minCapacity)
	extra := int64(newCap-p.capacity) * int64(p.stride) * slotBytes

	if p.acquirer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), acquireTimeout)
		defer cancel()
		if err := p.acquirer.AcquireMemory(ctx, extra); err != nil {
			return fmt.Errorf("%w: %w", ErrPoolFull, err)
		}
		p.reserved += extra
	}

	slots := newCap * p.stride
	if !p.offHeap {
		data := make([]float64, slots)
		copy(data, p.data)
		p.data = data
		p.capacity = newCap
		return nil
	}

	m, err := mmap.MapAnon(slots * slotBytes)
	if err != nil {
		if p.acquirer != nil {
			p.acquirer.ReleaseMemory(extra)
			p.reserved -= extra
		}
		return fmt.Errorf("%w: %w", ErrPoolFull, err)
	}
	_ = m.Advise(mmap.AccessRandom)

	data := m.Float64s()[:slots]
	copy(data, p.data)
	if p.mapping != nil {
		_ = p.mapping.Close()
	}
	p.mapping = m
	p.data = data
	p.capacity = newCap
	return nil
}
