package octree

import "fmt"

// Check validates the structural invariants of the tree and its pool:
//
//   - reference counts match a recount from the entry and every live node,
//   - the content index holds every live node exactly once and nothing else,
//   - free ranges are sorted, non-adjacent, cover exactly the free slots and
//     never end at the end of the arena,
//   - no pointer reaches below unit voxels and no node below the root is a
//     uniform leaf block.
//
// It is meant for tests and debugging; it visits every slot.
func (t *Octree) Check() error {
	p := t.pool
	if int(t.entry) >= len(p.nodes) || p.refs[t.entry] == 0 {
		return fmt.Errorf("%w: entry %d is not live", ErrInvariantViolation, t.entry)
	}
	if len(p.refs) != len(p.nodes) {
		return fmt.Errorf("%w: %d refcounts for %d nodes", ErrInvariantViolation, len(p.refs), len(p.nodes))
	}

	want := make([]uint32, len(p.nodes))
	want[t.entry]++
	live := 0
	for idx, n := range p.nodes {
		if p.refs[idx] == 0 {
			continue
		}
		live++
		for _, v := range n {
			child, ok := v.PointerIndex()
			if !ok {
				continue
			}
			if int(child) >= len(p.nodes) || p.refs[child] == 0 {
				return fmt.Errorf("%w: node %d points at dead slot %d", ErrInvariantViolation, idx, child)
			}
			want[child]++
		}
	}
	for idx, r := range p.refs {
		if r != want[idx] {
			return fmt.Errorf("%w: slot %d has %d references, counted %d", ErrInvariantViolation, idx, r, want[idx])
		}
	}
	if live != p.live {
		return fmt.Errorf("%w: %d live slots, pool reports %d", ErrInvariantViolation, live, p.live)
	}

	if err := t.checkIndex(); err != nil {
		return err
	}
	if err := t.checkFree(); err != nil {
		return err
	}
	return t.checkShape(t.entry, t.quadrantSize, true, make(map[[2]uint32]bool))
}

func (t *Octree) checkIndex() error {
	p := t.pool
	indexed := 0
	for h, bucket := range p.index {
		for i, idx := range bucket {
			if int(idx) >= len(p.nodes) || p.refs[idx] == 0 {
				return fmt.Errorf("%w: index holds dead slot %d", ErrInvariantViolation, idx)
			}
			n := p.nodes[idx]
			if p.hash(&n) != h {
				return fmt.Errorf("%w: slot %d filed under the wrong hash", ErrInvariantViolation, idx)
			}
			for _, other := range bucket[i+1:] {
				if p.nodes[other] == n {
					return fmt.Errorf("%w: slots %d and %d hold equal nodes", ErrInvariantViolation, idx, other)
				}
			}
			indexed++
		}
	}
	if indexed != p.live {
		return fmt.Errorf("%w: index holds %d slots, %d are live", ErrInvariantViolation, indexed, p.live)
	}
	return nil
}

func (t *Octree) checkFree() error {
	p := t.pool
	var prevEnd uint32
	for i, r := range p.free {
		if r.Start >= r.End {
			return fmt.Errorf("%w: empty free range %v", ErrInvariantViolation, r)
		}
		if i > 0 && r.Start <= prevEnd {
			return fmt.Errorf("%w: free range %v touches or overlaps its predecessor", ErrInvariantViolation, r)
		}
		if r.End >= uint32(len(p.nodes)) {
			return fmt.Errorf("%w: free range %v reaches the arena end %d", ErrInvariantViolation, r, len(p.nodes))
		}
		prevEnd = r.End
	}
	for idx, r := range p.refs {
		if (r == 0) != p.free.contains(uint32(idx)) {
			return fmt.Errorf("%w: slot %d has %d references but free=%t",
				ErrInvariantViolation, idx, r, p.free.contains(uint32(idx)))
		}
	}
	return nil
}

// checkShape visits each (slot, level) pair once; shared subtrees would
// otherwise be walked once per path.
func (t *Octree) checkShape(idx, quadrantSize uint32, root bool, seen map[[2]uint32]bool) error {
	key := [2]uint32{idx, quadrantSize}
	if seen[key] {
		return nil
	}
	seen[key] = true
	n := t.pool.nodes[idx]
	if _, ok := n.uniform(); ok && !root {
		return fmt.Errorf("%w: node %d is a uniform leaf block below the root", ErrInvariantViolation, idx)
	}
	for _, v := range n {
		child, ok := v.PointerIndex()
		if !ok {
			continue
		}
		if quadrantSize == 1 {
			return fmt.Errorf("%w: node %d points below unit voxels", ErrInvariantViolation, idx)
		}
		if err := t.checkShape(child, quadrantSize/2, false, seen); err != nil {
			return err
		}
	}
	return nil
}
