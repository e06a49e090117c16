package kdpool

import (
	"errors"
	"fmt"

	"github.com/hupe1980/kdpool/kdtree"
)

var (
	// ErrClosed is returned by operations on a closed index.
	ErrClosed = errors.New("kdpool: index is closed")

	// ErrNotFound is returned when a query has no matching point.
	ErrNotFound = errors.New("kdpool: not found")

	// ErrInvalidQuery is returned for a query point with a non-finite coordinate.
	ErrInvalidQuery = errors.New("kdpool: invalid query")

	// ErrInvalidPlane is returned for a hyperplane with a wrong-sized or
	// non-finite normal or a non-finite offset.
	ErrInvalidPlane = errors.New("kdpool: invalid hyperplane")
)

// ErrDimensionMismatch indicates a query/index dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidDimension indicates input objects without a usable dimensionality.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidDimension struct {
	Dimension int
	cause     error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, kdtree.ErrNoDimensions) {
		return &ErrInvalidDimension{Dimension: 0, cause: err}
	}
	if errors.Is(err, kdtree.ErrMixedDimensions) {
		return &ErrInvalidDimension{Dimension: -1, cause: err}
	}

	return err
}
