package octree

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize signals a tree size that is not a power of two >= 2.
	ErrInvalidSize = errors.New("octree: invalid size")
	// ErrOutOfRange signals a coordinate outside of the tree.
	ErrOutOfRange = errors.New("octree: coordinate out of range")
	// ErrInvalidVoxelID signals a voxel id that does not fit in 31 bits.
	ErrInvalidVoxelID = errors.New("octree: invalid voxel id")
	// ErrInvalidNodes signals a node list that cannot be imported.
	ErrInvalidNodes = errors.New("octree: invalid node list")
	// ErrInvariantViolation marks internal corruption. It is raised with panic,
	// never returned from an API call.
	ErrInvariantViolation = errors.New("octree: invariant violation")
)

// invariant panics with an error wrapping ErrInvariantViolation if cond is false.
func invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...)))
	}
}
