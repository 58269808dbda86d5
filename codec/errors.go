package codec

import "errors"

var (
	// ErrCorruptSnapshot signals snapshot bytes that cannot be decoded.
	ErrCorruptSnapshot = errors.New("codec: corrupt snapshot")
	// ErrCorruptEdits signals an edit stream that cannot be decoded.
	ErrCorruptEdits = errors.New("codec: corrupt edit stream")
	// ErrTooManyEdits signals a tree with too many voxels to list as edits.
	ErrTooManyEdits = errors.New("codec: too many edits")
)
