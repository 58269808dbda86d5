package octree

import "github.com/sirupsen/logrus"

// SetPosition moves the world-space origin of the tree to pos.
//
// Tree coordinates are relative to the origin, so after a move the same
// coordinates name other world positions. The voxels that leave the window are
// reset to 0: for a positive shift d on an axis that is the slab [0, d) of the
// axis, for a negative one the slab [size-|d|, size). A shift of at least the
// tree size on any axis clears the whole tree.
func (t *Octree) SetPosition(pos IVec3) {
	if pos == t.position {
		return
	}
	dx, dy, dz := pos.offsetFrom(t.position)
	size := t.Size()
	log := t.logger.WithFields(logrus.Fields{
		"action": "octree_window_shift",
		"from":   t.position.String(),
		"to":     pos.String(),
	})
	if leavesWindow(dx, size) || leavesWindow(dy, size) || leavesWindow(dz, size) {
		t.Clear()
		t.position = pos
		log.Debug("window moved past its own size, tree cleared")
		return
	}

	startX, sizeX := slab(dx, size)
	startY, sizeY := slab(dy, size)
	startZ, sizeZ := slab(dz, size)

	cleared := t.clearBox(UVec3{X: startX}, UVec3{X: sizeX, Y: size, Z: size})

	// skip the part of the X slab already cleared
	startX, sizeX = remainder(startX, sizeX, size)
	cleared += t.clearBox(UVec3{X: startX, Y: startY}, UVec3{X: sizeX, Y: sizeY, Z: size})

	startY, sizeY = remainder(startY, sizeY, size)
	cleared += t.clearBox(UVec3{X: startX, Y: startY, Z: startZ}, UVec3{X: sizeX, Y: sizeY, Z: sizeZ})

	t.position = pos
	log.WithField("cleared", cleared).
		WithField("live_nodes", t.pool.Live()).
		Debug("window moved")
}

func leavesWindow(d int64, size uint32) bool {
	if d < 0 {
		return -d >= int64(size)
	}
	return d >= int64(size)
}

// slab returns the start and width of the region evicted by a shift of d.
// A zero shift yields an empty region starting at size.
// |d| must be smaller than size.
func slab(d int64, size uint32) (start, width uint32) {
	switch {
	case d > 0:
		return 0, uint32(d)
	case d < 0:
		w := uint32(-d)
		return size - w, w
	}
	return size, 0
}

// remainder returns the part of [0, size) outside the slab [start, start+width).
func remainder(start, width, size uint32) (uint32, uint32) {
	if start == 0 {
		return width, size - width
	}
	return 0, start
}

// clearBox sets every voxel of the box at min with extent size to 0 and
// returns how many voxels changed.
func (t *Octree) clearBox(min, size UVec3) int {
	if size.X == 0 || size.Y == 0 || size.Z == 0 {
		return 0
	}
	end := UVec3{X: min.X + size.X, Y: min.Y + size.Y, Z: min.Z + size.Z}
	c := newCursorMut(t, min)
	cleared := 0
	for c.Pos().X < end.X {
		for c.Pos().Y < end.Y {
			for c.Pos().Z < end.Z {
				if c.setVoxel(0) {
					cleared++
				}
				c.MoveBy(IVec3{Z: 1})
			}
			c.MoveBy(IVec3{Y: 1, Z: -int32(size.Z)})
		}
		c.MoveBy(IVec3{X: 1, Y: -int32(size.Y)})
	}
	return cleared
}
