package picking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshfold/pkg/math"
	"github.com/Faultbox/meshfold/pkg/meshio"
)

func TestScreenToRay_Center(t *testing.T) {
	eye := math.Vec3{Z: 5}
	r := ScreenToRay(400, 300, 800, 600, eye, math.Vec3{}, 0.8)

	assert.Equal(t, eye, r.Origin)
	assert.InDelta(t, 0, r.Direction.X, 1e-6)
	assert.InDelta(t, 0, r.Direction.Y, 1e-6)
	assert.InDelta(t, -1, r.Direction.Z, 1e-6)
}

func TestScreenToRay_Corners(t *testing.T) {
	eye := math.Vec3{Z: 5}
	topLeft := ScreenToRay(0, 0, 800, 600, eye, math.Vec3{}, 0.8)
	assert.Less(t, topLeft.Direction.X, float32(0))
	assert.Greater(t, topLeft.Direction.Y, float32(0))

	bottomRight := ScreenToRay(800, 600, 800, 600, eye, math.Vec3{}, 0.8)
	assert.Greater(t, bottomRight.Direction.X, float32(0))
	assert.Less(t, bottomRight.Direction.Y, float32(0))
	assert.InDelta(t, 1, bottomRight.Direction.Length(), 1e-5)
}

func TestIntersectTriangle(t *testing.T) {
	a, b, c := math.Vec3{X: -1, Y: -1}, math.Vec3{X: 1, Y: -1}, math.Vec3{Y: 1}

	tests := []struct {
		name  string
		ray   Ray
		hit   bool
		wantT float32
	}{
		{"front", Ray{Origin: math.Vec3{Z: 3}, Direction: math.Vec3{Z: -1}}, true, 3},
		{"back side", Ray{Origin: math.Vec3{Z: -2}, Direction: math.Vec3{Z: 1}}, true, 2},
		{"miss", Ray{Origin: math.Vec3{X: 2, Z: 3}, Direction: math.Vec3{Z: -1}}, false, 0},
		{"pointing away", Ray{Origin: math.Vec3{Z: 3}, Direction: math.Vec3{Z: 1}}, false, 0},
		{"parallel", Ray{Origin: math.Vec3{Z: 1}, Direction: math.Vec3{X: 1}}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, hit := tt.ray.IntersectTriangle(a, b, c)
			assert.Equal(t, tt.hit, hit)
			if tt.hit {
				assert.InDelta(t, tt.wantT, d, 1e-5)
			}
		})
	}
}

func TestIntersectAABB(t *testing.T) {
	lo, hi := math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1}

	d, hit := Ray{Origin: math.Vec3{Z: 5}, Direction: math.Vec3{Z: -1}}.IntersectAABB(lo, hi)
	require.True(t, hit)
	assert.InDelta(t, 4, d, 1e-6)

	d, hit = Ray{Origin: math.Vec3{}, Direction: math.Vec3{X: 1}}.IntersectAABB(lo, hi)
	require.True(t, hit, "ray from inside")
	assert.InDelta(t, 1, d, 1e-6)

	_, hit = Ray{Origin: math.Vec3{Y: 3, Z: 5}, Direction: math.Vec3{Z: -1}}.IntersectAABB(lo, hi)
	assert.False(t, hit)
}

func TestPickTriangle(t *testing.T) {
	cube := meshio.Cube(2)

	// Straight down the +Z axis hits the +Z face first.
	r := Ray{Origin: math.Vec3{X: 0.3, Y: 0.2, Z: 10}, Direction: math.Vec3{Z: -1}}
	tri, d, ok := PickTriangle(r, cube.Positions, cube.Indices)
	require.True(t, ok)
	assert.Contains(t, []int{2, 3}, tri)
	assert.InDelta(t, 9, d, 1e-5)
	assert.InDelta(t, 1, r.At(d).Z, 1e-5)

	_, _, ok = PickTriangle(Ray{Origin: math.Vec3{X: 5, Z: 10}, Direction: math.Vec3{Z: -1}}, cube.Positions, cube.Indices)
	assert.False(t, ok)
}
