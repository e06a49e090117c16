package kdpool

// Close releases the node pool held by this index.
//
// The object pool is not touched. Close is idempotent; every other operation
// on a closed index returns ErrClosed.
func (idx *Index[O]) Close() error {
	if idx == nil {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return nil
	}
	idx.closed = true

	return idx.tree.Close()
}
