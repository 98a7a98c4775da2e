package vector

import (
	"errors"
	"fmt"
)

var (
	// ErrModelUnavailable wraps any failure of the embedding backend
	ErrModelUnavailable = errors.New("embedding model unavailable")
	// ErrIndex wraps any failure of the vector store
	ErrIndex = errors.New("vector index error")
	// ErrEmptyText is returned when asked to embed blank text
	ErrEmptyText = errors.New("cannot embed empty text")
)

// DimensionError reports a vector whose length does not match the index
type DimensionError struct {
	Expected int
	Got      int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

func (e *DimensionError) Is(target error) bool {
	return target == ErrIndex
}
