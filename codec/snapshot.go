package codec

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/voxelsplace/svo/octree"
)

// Compression selects how the content section of a snapshot is stored.
type Compression uint8

const (
	CompNone Compression = 0
	CompZlib Compression = 1
	CompZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompNone:
		return "none"
	case CompZlib:
		return "zlib"
	case CompZstd:
		return "zstd"
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

// ParseCompression maps "none", "zlib" or "zstd" to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompNone, nil
	case "zlib":
		return CompZlib, nil
	case "zstd":
		return CompZstd, nil
	}
	return 0, fmt.Errorf("unknown compression %q", s)
}

const (
	snapshotMagic   = "SVOT"
	snapshotVersion = 1
	// magic, version, compression
	snapshotHeaderLen = len(snapshotMagic) + 2
	// quadrant size and origin
	snapshotFixedLen = 4 + 3*4
)

// Marshal encodes tree as a snapshot. The content holds the quadrant size and
// origin as little-endian integers followed by the node count and every node
// reachable from the root as eight uvarints, children before parents and the
// root last.
func Marshal(tree *octree.Octree, comp Compression) ([]byte, error) {
	nodes := tree.ExportNodes()
	content := make([]byte, snapshotFixedLen, snapshotFixedLen+len(nodes)*8*2)
	pos := tree.Position()
	binary.LittleEndian.PutUint32(content[0:], tree.QuadrantSize())
	binary.LittleEndian.PutUint32(content[4:], uint32(pos.X))
	binary.LittleEndian.PutUint32(content[8:], uint32(pos.Y))
	binary.LittleEndian.PutUint32(content[12:], uint32(pos.Z))
	content = appendUvarint(content, uint32(len(nodes)))
	for _, n := range nodes {
		for _, v := range n {
			content = appendUvarint(content, uint32(v))
		}
	}

	var body []byte
	switch comp {
	case CompNone:
		body = content
	case CompZlib:
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(content); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		body = buf.Bytes()
	case CompZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		body = enc.EncodeAll(content, nil)
		if err := enc.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported compression %d", comp)
	}

	out := make([]byte, 0, snapshotHeaderLen+len(body))
	out = append(out, snapshotMagic...)
	out = append(out, snapshotVersion, byte(comp))
	return append(out, body...), nil
}

// Unmarshal decodes a snapshot written by Marshal. opts are passed on to the
// new tree; its origin comes from the snapshot.
func Unmarshal(data []byte, opts ...octree.Option) (*octree.Octree, error) {
	if len(data) < snapshotHeaderLen || string(data[:len(snapshotMagic)]) != snapshotMagic {
		return nil, fmt.Errorf("%w: missing %s header", ErrCorruptSnapshot, snapshotMagic)
	}
	if v := data[len(snapshotMagic)]; v != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, v)
	}
	content, err := decompress(Compression(data[len(snapshotMagic)+1]), data[snapshotHeaderLen:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}

	if len(content) < snapshotFixedLen {
		return nil, fmt.Errorf("%w: content too short", ErrCorruptSnapshot)
	}
	quadrantSize := binary.LittleEndian.Uint32(content[0:])
	if quadrantSize == 0 || bits.OnesCount32(quadrantSize) != 1 || quadrantSize > 1<<30 {
		return nil, fmt.Errorf("%w: quadrant size %d", ErrCorruptSnapshot, quadrantSize)
	}
	origin := octree.IVec3{
		X: int32(binary.LittleEndian.Uint32(content[4:])),
		Y: int32(binary.LittleEndian.Uint32(content[8:])),
		Z: int32(binary.LittleEndian.Uint32(content[12:])),
	}

	pos := snapshotFixedLen
	count, err := readUvarint(content, &pos)
	if err != nil {
		return nil, fmt.Errorf("%w: node count: %w", ErrCorruptSnapshot, err)
	}
	// every node takes at least eight bytes
	if uint64(count)*8 > uint64(len(content)-pos) {
		return nil, fmt.Errorf("%w: %d nodes in %d bytes", ErrCorruptSnapshot, count, len(content)-pos)
	}
	nodes := make([]octree.Node, count)
	for i := range nodes {
		for j := range nodes[i] {
			v, err := readUvarint(content, &pos)
			if err != nil {
				return nil, fmt.Errorf("%w: node %d: %w", ErrCorruptSnapshot, i, err)
			}
			nodes[i][j] = octree.Value(v)
		}
	}
	if pos != len(content) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptSnapshot, len(content)-pos)
	}

	opts = append(opts, octree.WithPosition(origin))
	tree, err := octree.Import(quadrantSize*2, nodes, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	return tree, nil
}

func decompress(comp Compression, body []byte) ([]byte, error) {
	switch comp {
	case CompNone:
		return body, nil
	case CompZlib:
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case CompZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(body, nil)
	}
	return nil, fmt.Errorf("unsupported compression %d", comp)
}
