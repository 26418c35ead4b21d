// Package picking turns screen clicks into triangle hits.
package picking

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/meshfold/pkg/math"
)

// parallelEpsilon rejects rays nearly parallel to a triangle's plane.
const parallelEpsilon = 1e-7

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// ScreenToRay converts pixel coordinates to a world-space ray leaving a
// perspective camera at eye looking at target with vertical field of view
// fovY (radians). Y grows downward on screen.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, eye, target math.Vec3, fovY float32) Ray {
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH

	forward := target.Sub(eye).Normalize()
	right := forward.Cross(math.Vec3{Y: 1}).Normalize()
	if right.IsZero() {
		right = math.Vec3{X: 1}
	}
	up := right.Cross(forward)

	halfH := math32.Tan(fovY / 2)
	halfW := halfH * viewportW / viewportH

	dir := forward.
		Add(right.Scale(ndcX * halfW)).
		Add(up.Scale(ndcY * halfH))
	return Ray{Origin: eye, Direction: dir.Normalize()}
}

// IntersectTriangle tests the ray against triangle (a, b, c) from either side
// (Möller–Trumbore). It returns the hit distance.
func (r Ray) IntersectTriangle(a, b, c math.Vec3) (t float32, hit bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if math32.Abs(det) < parallelEpsilon {
		return 0, false
	}
	inv := 1 / det

	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t = e2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// IntersectAABB tests ray intersection with an axis-aligned box using the
// slab method. If the ray starts inside the box, the exit distance is returned.
func (r Ray) IntersectAABB(lo, hi math.Vec3) (t float32, hit bool) {
	tmin, tmax := math32.Inf(-1), math32.Inf(1)

	o, d := r.Origin.Array(), r.Direction.Array()
	bmin, bmax := lo.Array(), hi.Array()
	for axis := 0; axis < 3; axis++ {
		if d[axis] == 0 {
			if o[axis] < bmin[axis] || o[axis] > bmax[axis] {
				return 0, false
			}
			continue
		}
		t1 := (bmin[axis] - o[axis]) / d[axis]
		t2 := (bmax[axis] - o[axis]) / d[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// PickTriangle returns the index of the nearest triangle hit by the ray.
func PickTriangle(r Ray, positions []math.Vec3, indices []uint32) (tri int, t float32, ok bool) {
	lo, hi := math.Bounds(positions)
	if _, hit := r.IntersectAABB(lo, hi); !hit {
		return -1, 0, false
	}

	tri = -1
	for i := 0; i+2 < len(indices); i += 3 {
		d, hit := r.IntersectTriangle(positions[indices[i]], positions[indices[i+1]], positions[indices[i+2]])
		if hit && (tri < 0 || d < t) {
			tri, t = i/3, d
		}
	}
	return tri, t, tri >= 0
}
