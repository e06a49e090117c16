package pool

import "math"

// Ref is a flyweight cursor over one record of a Pool.
// It is not an owning handle: repointing it never copies record data.
type Ref struct {
	pool  *Pool
	index int
	base  int // index * stride
}

// Index returns the record index the ref points at, or -1 if unbound.
func (r *Ref) Index() int { return r.index }

// Pool returns the pool the ref belongs to.
func (r *Ref) Pool() *Pool { return r.pool }

// Float returns slot s of the record.
func (r *Ref) Float(s int) float64 {
	return r.pool.data[r.base+s]
}

// SetFloat sets slot s of the record.
func (r *Ref) SetFloat(s int, v float64) {
	r.pool.data[r.base+s] = v
}

// Bits returns slot s of the record as a raw 64-bit pattern.
func (r *Ref) Bits(s int) uint64 {
	return math.Float64bits(r.pool.data[r.base+s])
}

// SetBits stores a raw 64-bit pattern in slot s of the record.
func (r *Ref) SetBits(s int, b uint64) {
	r.pool.data[r.base+s] = math.Float64frombits(b)
}

// Slots returns the record's slots. The slice aliases pool storage and is
// invalidated by pool growth.
func (r *Ref) Slots() []float64 {
	end := r.base + r.pool.stride
	return r.pool.data[r.base:end:end]
}

// RefTo points r at the record other points at and returns r.
func (r *Ref) RefTo(other *Ref) *Ref {
	r.pool = other.pool
	r.index = other.index
	r.base = other.base
	return r
}

// Equal reports whether both refs point at the same record of the same pool.
func (r *Ref) Equal(other *Ref) bool {
	return r.pool == other.pool && r.index == other.index
}
