package meshio

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chewxy/math32"

	"github.com/Faultbox/meshfold/pkg/math"
)

// ErrUnknownPrimitive is returned by Primitive for an unknown name.
var ErrUnknownPrimitive = errors.New("unknown primitive")

// MaxSubdivisions caps icosphere refinement (20 * 4^6 triangles).
const MaxSubdivisions = 6

// Primitive builds a named built-in mesh. The detail argument is the
// subdivision level for "icosphere", the cell count per side for "grid" and
// the segment count for "disc"; other shapes ignore it.
func Primitive(name string, detail int) (Mesh, error) {
	switch name {
	case "triangle":
		return Triangle(), nil
	case "quad":
		return Quad(), nil
	case "cube":
		return Cube(1), nil
	case "grid":
		if detail < 1 {
			detail = 8
		}
		return Grid(detail, detail, 2), nil
	case "disc":
		if detail < 3 {
			detail = 6
		}
		return Disc(detail, 1), nil
	case "icosphere":
		return Icosphere(detail), nil
	}
	return Mesh{}, fmt.Errorf("%w: %q", ErrUnknownPrimitive, name)
}

// PrimitiveNames lists the names accepted by Primitive.
func PrimitiveNames() []string {
	names := []string{"triangle", "quad", "cube", "grid", "disc", "icosphere"}
	sort.Strings(names)
	return names
}

// Triangle returns a single triangle in the XY plane.
func Triangle() Mesh {
	return Mesh{
		Positions: []math.Vec3{{X: -0.5, Y: -0.5}, {X: 0.5, Y: -0.5}, {Y: 0.5}},
		Indices:   []uint32{0, 1, 2},
	}
}

// Quad returns a unit square made of two triangles.
func Quad() Mesh {
	return Mesh{
		Positions: []math.Vec3{
			{X: -0.5, Y: -0.5}, {X: 0.5, Y: -0.5},
			{X: 0.5, Y: 0.5}, {X: -0.5, Y: 0.5},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// Cube returns a closed cube with 8 shared corners and outward winding.
func Cube(size float32) Mesh {
	h := size / 2
	return Mesh{
		Positions: []math.Vec3{
			{X: -h, Y: -h, Z: -h}, {X: h, Y: -h, Z: -h},
			{X: h, Y: h, Z: -h}, {X: -h, Y: h, Z: -h},
			{X: -h, Y: -h, Z: h}, {X: h, Y: -h, Z: h},
			{X: h, Y: h, Z: h}, {X: -h, Y: h, Z: h},
		},
		Indices: []uint32{
			0, 3, 2, 0, 2, 1, // -Z
			4, 5, 6, 4, 6, 7, // +Z
			0, 4, 7, 0, 7, 3, // -X
			1, 2, 6, 1, 6, 5, // +X
			0, 1, 5, 0, 5, 4, // -Y
			3, 7, 6, 3, 6, 2, // +Y
		},
	}
}

// Grid returns a flat XZ grid of nx by nz cells, two triangles per cell.
func Grid(nx, nz int, size float32) Mesh {
	var m Mesh
	for z := 0; z <= nz; z++ {
		for x := 0; x <= nx; x++ {
			m.Positions = append(m.Positions, math.Vec3{
				X: (float32(x)/float32(nx) - 0.5) * size,
				Z: (float32(z)/float32(nz) - 0.5) * size,
			})
		}
	}
	row := uint32(nx + 1)
	for z := 0; z < nz; z++ {
		for x := 0; x < nx; x++ {
			i := uint32(z)*row + uint32(x)
			m.Indices = append(m.Indices, i, i+row, i+1, i+1, i+row, i+row+1)
		}
	}
	return m
}

// Disc returns a triangle fan around the origin with the given segment count.
// Vertex 0 is the center.
func Disc(segments int, radius float32) Mesh {
	m := Mesh{Positions: []math.Vec3{{}}}
	for i := 0; i < segments; i++ {
		a := 2 * math32.Pi * float32(i) / float32(segments)
		m.Positions = append(m.Positions, math.Vec3{X: math32.Cos(a) * radius, Y: math32.Sin(a) * radius})
	}
	n := uint32(segments)
	for i := uint32(0); i < n; i++ {
		m.Indices = append(m.Indices, 0, 1+i, 1+(i+1)%n)
	}
	return m
}

var icoFaces = []uint32{
	0, 11, 5, 0, 5, 1, 0, 1, 7, 0, 7, 10, 0, 10, 11,
	1, 5, 9, 5, 11, 4, 11, 10, 2, 10, 7, 6, 7, 1, 8,
	3, 9, 4, 3, 4, 2, 3, 2, 6, 3, 6, 8, 3, 8, 9,
	4, 9, 5, 2, 4, 11, 6, 2, 10, 8, 6, 7, 9, 8, 1,
}

// Icosphere returns a unit sphere built by subdividing an icosahedron.
func Icosphere(subdivisions int) Mesh {
	if subdivisions < 0 {
		subdivisions = 0
	}
	if subdivisions > MaxSubdivisions {
		subdivisions = MaxSubdivisions
	}

	t := (1 + math32.Sqrt(5)) / 2
	m := Mesh{Indices: append([]uint32(nil), icoFaces...)}
	for _, p := range []math.Vec3{
		{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
		{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
		{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
	} {
		m.Positions = append(m.Positions, p.Normalize())
	}

	for s := 0; s < subdivisions; s++ {
		mids := make(map[[2]uint32]uint32)
		midpoint := func(a, b uint32) uint32 {
			key := [2]uint32{min(a, b), max(a, b)}
			if id, ok := mids[key]; ok {
				return id
			}
			id := uint32(len(m.Positions))
			m.Positions = append(m.Positions, m.Positions[a].Midpoint(m.Positions[b]).Normalize())
			mids[key] = id
			return id
		}

		next := make([]uint32, 0, len(m.Indices)*4)
		for i := 0; i < len(m.Indices); i += 3 {
			a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
			ab, bc, ca := midpoint(a, b), midpoint(b, c), midpoint(c, a)
			next = append(next,
				a, ab, ca,
				b, bc, ab,
				c, ca, bc,
				ab, bc, ca,
			)
		}
		m.Indices = next
	}
	return m
}
