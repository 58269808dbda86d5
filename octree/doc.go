/*
Package octree implements a sparse voxel octree: a mutable store of 31-bit voxel
identifiers over a cube whose edge length is a power of two.

Nodes live in a hash-consed arena (Pool). Structurally identical subtrees share
one slot, so a volume made of large homogeneous regions costs memory in
proportion to its distinct substructure, not to its volume. Nodes are never
changed in place: a write copies the path from the root down to the written
voxel, deduplicates every copy against the arena and releases what the old path
no longer needs.

Coordinates passed to an Octree are relative to its own corner. The tree also
carries a world-space origin; moving it with SetPosition evicts the voxels that
leave the window, so a caller can stream a fixed-size volume around a moving
viewer.

An Octree is not safe for concurrent use. Any number of read cursors may be
used together, but a write (through Octree.SetVoxel, a CursorMut, SetPosition
or Clear) requires exclusive access and invalidates cursors created before it.
*/
package octree
