package codec

import (
	"cmp"
	"fmt"
	"math/bits"
	"slices"

	"github.com/voxelsplace/svo/octree"
)

// Edit sets the voxel at Pos to ID. An ID of 0 clears the voxel.
type Edit struct {
	Pos octree.UVec3
	ID  uint32
}

// An edit stream starts with two bytes, the bits per axis b and the id width
// w, followed by the number of entries as a uvarint. Each entry is a 3b-bit
// Morton code of the position and a w-bit id, packed LSB first without
// padding between entries.
const editHeaderLen = 2

// EncodeEdits packs edits in the given order. Field widths are the smallest
// that hold every position and id.
func EncodeEdits(edits []Edit) ([]byte, error) {
	var maxAxis, maxID uint32
	for _, e := range edits {
		maxAxis = max(maxAxis, e.Pos.X, e.Pos.Y, e.Pos.Z)
		maxID = max(maxID, e.ID)
	}
	if maxID > octree.MaxVoxelID {
		return nil, fmt.Errorf("%w: %d", octree.ErrInvalidVoxelID, maxID)
	}
	axisBits := max(uint(bits.Len32(maxAxis)), 1)
	if axisBits > MaxAxisBits {
		return nil, fmt.Errorf("%w: coordinate %d needs %d bits, at most %d fit",
			octree.ErrOutOfRange, maxAxis, axisBits, MaxAxisBits)
	}
	idBits := max(uint(bits.Len32(maxID)), 1)

	out := []byte{byte(axisBits), byte(idBits)}
	out = appendUvarint(out, uint32(len(edits)))
	bw := newBitWriter((len(edits)*int(3*axisBits+idBits) + 7) / 8)
	for _, e := range edits {
		bw.writeBits(MortonOf(e.Pos), 3*axisBits)
		bw.writeBits(uint64(e.ID), idBits)
	}
	return append(out, bw.bytes()...), nil
}

// DecodeEdits unpacks a stream written by EncodeEdits.
func DecodeEdits(data []byte) ([]Edit, error) {
	if len(data) < editHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorruptEdits, len(data))
	}
	axisBits, idBits := uint(data[0]), uint(data[1])
	if axisBits < 1 || axisBits > MaxAxisBits || idBits < 1 || idBits > 31 {
		return nil, fmt.Errorf("%w: field widths %d/%d", ErrCorruptEdits, axisBits, idBits)
	}
	pos := editHeaderLen
	count, err := readUvarint(data, &pos)
	if err != nil {
		return nil, fmt.Errorf("%w: entry count: %w", ErrCorruptEdits, err)
	}
	payload := data[pos:]
	entryBits := uint64(3*axisBits + idBits)
	if need := (uint64(count)*entryBits + 7) / 8; need != uint64(len(payload)) {
		return nil, fmt.Errorf("%w: %d entries need %d bytes, got %d", ErrCorruptEdits, count, need, len(payload))
	}

	edits := make([]Edit, count)
	br := newBitReader(payload)
	for i := range edits {
		code, err := br.readBits(3 * axisBits)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrCorruptEdits, i, err)
		}
		id, err := br.readBits(idBits)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrCorruptEdits, i, err)
		}
		edits[i] = Edit{Pos: PosOf(code), ID: uint32(id)}
	}
	return edits, nil
}

// ApplyEdits writes edits to tree in order with a single write cursor. It
// stops at the first edit outside the tree; the edits before it stay applied.
func ApplyEdits(tree *octree.Octree, edits []Edit) error {
	if len(edits) == 0 {
		return nil
	}
	c, err := tree.CursorMut(edits[0].Pos)
	if err != nil {
		return fmt.Errorf("edit 0: %w", err)
	}
	for i, e := range edits {
		cur := c.Pos()
		c.MoveBy(octree.IVec3{
			X: int32(int64(e.Pos.X) - int64(cur.X)),
			Y: int32(int64(e.Pos.Y) - int64(cur.Y)),
			Z: int32(int64(e.Pos.Z) - int64(cur.Z)),
		})
		if err := c.SetVoxel(e.ID); err != nil {
			return fmt.Errorf("edit %d: %w", i, err)
		}
	}
	return nil
}

// MaxExportEdits bounds the number of edits EditsFromTree expands a tree to.
const MaxExportEdits = 1 << 22

// EditsFromTree lists every non-empty voxel of tree in Morton order. Trees
// whose coordinates do not fit an edit stream, or that hold more than
// MaxExportEdits voxels, are rejected before anything is expanded.
func EditsFromTree(tree *octree.Octree) ([]Edit, error) {
	if tree.Size() > 1<<MaxAxisBits {
		return nil, fmt.Errorf("%w: tree size %d needs more than %d bits per axis",
			octree.ErrOutOfRange, tree.Size(), MaxAxisBits)
	}
	count := tree.CountVoxels()
	if count > MaxExportEdits {
		return nil, fmt.Errorf("%w: %d voxels, at most %d", ErrTooManyEdits, count, MaxExportEdits)
	}
	edits := make([]Edit, 0, count)
	tree.Walk(func(r octree.Region) bool {
		if r.ID == 0 {
			return true
		}
		for x := uint32(0); x < r.Size; x++ {
			for y := uint32(0); y < r.Size; y++ {
				for z := uint32(0); z < r.Size; z++ {
					p := octree.UVec3{X: r.Min.X + x, Y: r.Min.Y + y, Z: r.Min.Z + z}
					edits = append(edits, Edit{Pos: p, ID: r.ID})
				}
			}
		}
		return true
	})
	slices.SortFunc(edits, func(a, b Edit) int {
		return cmp.Compare(MortonOf(a.Pos), MortonOf(b.Pos))
	})
	return edits, nil
}
