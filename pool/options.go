package pool

import "context"

// MemoryAcquirer is an interface for acquiring memory.
type MemoryAcquirer interface {
	AcquireMemory(ctx context.Context, amount int64) error
	ReleaseMemory(amount int64)
}

type options struct {
	capacity int
	offHeap  bool
	acquirer MemoryAcquirer
}

// Option is a configuration option for Pool.
type Option func(*options)

// WithCapacity pre-allocates room for n records.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithOffHeap backs the pool with anonymous mapped memory instead of the Go heap.
func WithOffHeap() Option {
	return func(o *options) {
		o.offHeap = true
	}
}

// WithMemoryAcquirer sets the memory acquirer charged for backing storage.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(o *options) {
		o.acquirer = acquirer
	}
}
