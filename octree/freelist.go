package octree

import "sort"

// Range is a half-open range [Start, End) of pool slots.
type Range struct {
	Start, End uint32
}

// Len returns the number of slots in r.
func (r Range) Len() uint32 { return r.End - r.Start }

// freeRanges is a sorted list of disjoint free slot ranges. Adjacent ranges are
// always merged, so no two entries touch.
type freeRanges []Range

// take removes and returns the lowest free slot.
func (f *freeRanges) take() (uint32, bool) {
	if len(*f) == 0 {
		return 0, false
	}
	r := &(*f)[0]
	idx := r.Start
	r.Start++
	if r.Start == r.End {
		*f = (*f)[1:]
	}
	return idx, true
}

// insert marks idx as free, merging it into its neighbours where they touch.
func (f *freeRanges) insert(idx uint32) {
	rs := *f
	// first range starting after idx
	i := sort.Search(len(rs), func(i int) bool { return rs[i].Start > idx })
	invariant(i == 0 || rs[i-1].End <= idx, "slot %d freed twice", idx)

	joinPrev := i > 0 && rs[i-1].End == idx
	joinNext := i < len(rs) && rs[i].Start == idx+1
	switch {
	case joinPrev && joinNext:
		rs[i-1].End = rs[i].End
		*f = append(rs[:i], rs[i+1:]...)
	case joinPrev:
		rs[i-1].End++
	case joinNext:
		rs[i].Start--
	default:
		rs = append(rs, Range{})
		copy(rs[i+1:], rs[i:])
		rs[i] = Range{Start: idx, End: idx + 1}
		*f = rs
	}
}

// trimTail drops a trailing range ending at n and returns the new arena length.
func (f *freeRanges) trimTail(n uint32) uint32 {
	rs := *f
	if len(rs) == 0 || rs[len(rs)-1].End != n {
		return n
	}
	n = rs[len(rs)-1].Start
	*f = rs[:len(rs)-1]
	return n
}

// contains reports whether idx is free.
func (f freeRanges) contains(idx uint32) bool {
	i := sort.Search(len(f), func(i int) bool { return f[i].End > idx })
	return i < len(f) && f[i].Start <= idx
}

// count returns the total number of free slots.
func (f freeRanges) count() uint32 {
	var n uint32
	for _, r := range f {
		n += r.Len()
	}
	return n
}
