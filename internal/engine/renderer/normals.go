package renderer

import "github.com/Faultbox/meshfold/pkg/math"

// SmoothNormals returns one normal per position: the area-weighted sum of the
// face normals of every triangle using it. Positions no triangle references
// get a zero normal. The dst slice is reused when it has enough capacity.
func SmoothNormals(dst []math.Vec3, positions []math.Vec3, indices []uint32) []math.Vec3 {
	if cap(dst) < len(positions) {
		dst = make([]math.Vec3, len(positions))
	}
	dst = dst[:len(positions)]
	clear(dst)

	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		// The unnormalized cross product is twice the face area.
		n := positions[b].Sub(positions[a]).Cross(positions[c].Sub(positions[a]))
		dst[a] = dst[a].Add(n)
		dst[b] = dst[b].Add(n)
		dst[c] = dst[c].Add(n)
	}

	for i := range dst {
		dst[i] = dst[i].Normalize()
	}
	return dst
}
