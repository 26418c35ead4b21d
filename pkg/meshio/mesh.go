// Package meshio provides triangle meshes: built-in primitives and readers
// for Wavefront OBJ and STL files.
package meshio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshfold/pkg/math"
)

// Loader errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported mesh format")
	ErrEmptyMesh         = errors.New("mesh contains no triangles")
)

// Mesh is an indexed triangle list.
type Mesh struct {
	Positions []math.Vec3
	Indices   []uint32
}

// NumTriangles returns the number of triangles.
func (m Mesh) NumTriangles() int {
	return len(m.Indices) / 3
}

// Bounds returns the axis-aligned bounds of the mesh.
func (m Mesh) Bounds() (lo, hi math.Vec3) {
	return math.Bounds(m.Positions)
}

// Clone returns a deep copy.
func (m Mesh) Clone() Mesh {
	return Mesh{
		Positions: append([]math.Vec3(nil), m.Positions...),
		Indices:   append([]uint32(nil), m.Indices...),
	}
}

// Weld merges vertices with identical positions and rewrites the indices.
// Formats that store one vertex per corner (STL) need this to form a
// connected surface.
func (m Mesh) Weld() Mesh {
	seen := make(map[math.Vec3]uint32, len(m.Positions))
	remap := make([]uint32, len(m.Positions))
	out := Mesh{Indices: make([]uint32, len(m.Indices))}

	for i, p := range m.Positions {
		id, ok := seen[p]
		if !ok {
			id = uint32(len(out.Positions))
			seen[p] = id
			out.Positions = append(out.Positions, p)
		}
		remap[i] = id
	}
	for i, idx := range m.Indices {
		out.Indices[i] = remap[idx]
	}
	return out
}

// Load reads a mesh file, picking the reader from the file extension.
func Load(path string) (Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return Mesh{}, fmt.Errorf("opening mesh: %w", err)
	}
	defer f.Close()

	var m Mesh
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		m, err = ReadOBJ(f)
	case ".stl":
		m, err = ReadSTL(f)
	default:
		return Mesh{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return Mesh{}, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return m, nil
}
