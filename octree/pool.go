package octree

import (
	xxhash "github.com/cespare/xxhash/v2"
)

// Pool is a hash-consed arena of nodes. Equal nodes are stored once; every
// slot carries a reference count and slots whose count drops to zero are
// recycled through a free list.
//
// A reference is held by every pointer stored in a live node, by the tree
// entry and by callers of GetOrInsert until they Release. A node therefore
// keeps its children alive, and releasing the last reference to a node
// releases its children in turn.
type Pool struct {
	nodes []Node
	refs  []uint32
	// index maps the xxhash of a node's encoding to the slots holding nodes
	// with that hash. Hits are verified against the arena.
	index map[uint64][]uint32
	free  freeRanges
	live  int
	// scratch buffer for hashing
	buf []byte
}

// NewPool returns a pool holding the empty node at slot 0 with one reference.
func NewPool() *Pool {
	p := &Pool{
		index: make(map[uint64][]uint32, 64),
		buf:   make([]byte, 0, 32),
	}
	p.nodes = append(p.nodes, emptyNode)
	p.refs = append(p.refs, 1)
	p.index[p.hash(&emptyNode)] = []uint32{0}
	p.live = 1
	return p
}

func (p *Pool) hash(n *Node) uint64 {
	p.buf = n.appendBytes(p.buf[:0])
	return xxhash.Sum64(p.buf)
}

// lookup returns the slot holding a node equal to n.
func (p *Pool) lookup(h uint64, n *Node) (uint32, bool) {
	for _, idx := range p.index[h] {
		if p.nodes[idx] == *n {
			return idx, true
		}
	}
	return 0, false
}

// GetOrInsert returns the slot holding n and takes a reference on it for the
// caller. A node not yet in the pool is stored in the lowest free slot, or
// appended, and takes a reference on each child it points to.
func (p *Pool) GetOrInsert(n Node) uint32 {
	h := p.hash(&n)
	if idx, ok := p.lookup(h, &n); ok {
		p.refs[idx]++
		return idx
	}
	idx, ok := p.free.take()
	if ok {
		p.nodes[idx] = n
		p.refs[idx] = 1
	} else {
		idx = uint32(len(p.nodes))
		p.nodes = append(p.nodes, n)
		p.refs = append(p.refs, 1)
	}
	p.index[h] = append(p.index[h], idx)
	p.live++
	for _, v := range n {
		if child, ok := v.PointerIndex(); ok {
			p.retain(child)
		}
	}
	return idx
}

func (p *Pool) retain(idx uint32) {
	invariant(int(idx) < len(p.refs) && p.refs[idx] > 0, "retain of untracked slot %d", idx)
	p.refs[idx]++
}

// Release drops one reference on slot idx. At zero the slot is freed and its
// children are released. Releasing a slot that holds no tracked node panics.
func (p *Pool) Release(idx uint32) {
	p.release(idx)
	if n := p.free.trimTail(uint32(len(p.nodes))); n < uint32(len(p.nodes)) {
		p.nodes = p.nodes[:n]
		p.refs = p.refs[:n]
	}
}

func (p *Pool) release(idx uint32) {
	invariant(int(idx) < len(p.refs) && p.refs[idx] > 0, "release of untracked slot %d", idx)
	p.refs[idx]--
	if p.refs[idx] > 0 {
		return
	}
	n := p.nodes[idx]
	p.unindex(idx, &n)
	p.free.insert(idx)
	p.live--
	for _, v := range n {
		if child, ok := v.PointerIndex(); ok {
			p.release(child)
		}
	}
}

func (p *Pool) unindex(idx uint32, n *Node) {
	h := p.hash(n)
	bucket := p.index[h]
	for i, s := range bucket {
		if s != idx {
			continue
		}
		if len(bucket) == 1 {
			delete(p.index, h)
		} else {
			p.index[h] = append(bucket[:i], bucket[i+1:]...)
		}
		return
	}
	invariant(false, "slot %d missing from the content index", idx)
}

// Node returns the node stored at slot idx.
func (p *Pool) Node(idx uint32) Node { return p.nodes[idx] }

// Refs returns the reference count of slot idx; 0 means the slot is free.
func (p *Pool) Refs(idx uint32) uint32 {
	if int(idx) >= len(p.refs) {
		return 0
	}
	return p.refs[idx]
}

// Len returns the arena length, free slots included.
func (p *Pool) Len() int { return len(p.nodes) }

// Live returns the number of slots holding a node.
func (p *Pool) Live() int { return p.live }

// FreeRanges returns a copy of the free slot ranges in ascending order.
func (p *Pool) FreeRanges() []Range {
	out := make([]Range, len(p.free))
	copy(out, p.free)
	return out
}
