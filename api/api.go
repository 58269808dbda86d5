package api

import (
	"fmt"

	"github.com/voxelsplace/svo/codec"
	"github.com/voxelsplace/svo/octree"
)

// NewSnapshot returns the snapshot of an empty tree with edge length size.
func NewSnapshot(size uint32, comp codec.Compression) ([]byte, error) {
	tree, err := octree.New(size)
	if err != nil {
		return nil, err
	}
	return codec.Marshal(tree, comp)
}

// ApplyEdits applies an edit stream to a snapshot and returns the new
// snapshot.
func ApplyEdits(snapshot, edits []byte, comp codec.Compression, opts ...octree.Option) ([]byte, error) {
	tree, err := codec.Unmarshal(snapshot, opts...)
	if err != nil {
		return nil, err
	}
	list, err := codec.DecodeEdits(edits)
	if err != nil {
		return nil, err
	}
	if err := codec.ApplyEdits(tree, list); err != nil {
		return nil, fmt.Errorf("apply edits: %w", err)
	}
	return codec.Marshal(tree, comp)
}

// ExportEdits returns an edit stream that rebuilds the snapshot's content on
// an empty tree.
func ExportEdits(snapshot []byte) ([]byte, error) {
	tree, err := codec.Unmarshal(snapshot)
	if err != nil {
		return nil, err
	}
	list, err := codec.EditsFromTree(tree)
	if err != nil {
		return nil, err
	}
	return codec.EncodeEdits(list)
}

// Shift moves the window of a snapshot by d and returns the new snapshot.
func Shift(snapshot []byte, d octree.IVec3, comp codec.Compression, opts ...octree.Option) ([]byte, error) {
	tree, err := codec.Unmarshal(snapshot, opts...)
	if err != nil {
		return nil, err
	}
	p := tree.Position()
	tree.SetPosition(octree.IVec3{X: p.X + d.X, Y: p.Y + d.Y, Z: p.Z + d.Z})
	return codec.Marshal(tree, comp)
}

// Summary describes a snapshot.
type Summary struct {
	Size     uint32
	Depth    int
	Position octree.IVec3
	Voxels   uint64
	Stats    octree.Stats
}

// Describe decodes a snapshot and summarizes it.
func Describe(snapshot []byte) (Summary, error) {
	tree, err := codec.Unmarshal(snapshot)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Size:     tree.Size(),
		Depth:    tree.Depth(),
		Position: tree.Position(),
		Voxels:   tree.CountVoxels(),
		Stats:    tree.Stats(),
	}, nil
}
