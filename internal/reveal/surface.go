package reveal

import "github.com/Faultbox/meshfold/pkg/math"

// Surface receives the live mesh as it is revealed. The slices passed in are
// owned by the engine and only valid for the duration of the call.
type Surface interface {
	// SetMesh replaces the displayed geometry.
	SetMesh(positions []math.Vec3, indices []uint32)
	// UpdatePositions replaces vertex positions; the index list is unchanged.
	UpdatePositions(positions []math.Vec3)
	// RecalculateNormals rederives shading normals from the current geometry.
	RecalculateNormals()
	// Clear removes all geometry.
	Clear()
}

// buffers is the live mesh handed to the surface.
type buffers struct {
	positions []math.Vec3
	indices   []uint32
}

func (b *buffers) clear() {
	b.positions = b.positions[:0]
	b.indices = b.indices[:0]
}

// compact returns a copy holding only the positions the index list
// references, renumbered in order of first use.
func (b *buffers) compact() ([]math.Vec3, []uint32) {
	remap := make([]int, len(b.positions))
	for i := range remap {
		remap[i] = -1
	}

	positions := make([]math.Vec3, 0, len(b.positions))
	indices := make([]uint32, len(b.indices))
	for i, idx := range b.indices {
		if remap[idx] < 0 {
			remap[idx] = len(positions)
			positions = append(positions, b.positions[idx])
		}
		indices[i] = uint32(remap[idx])
	}
	return positions, indices
}
