package meshio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/meshfold/pkg/math"
)

// OBJ errors.
var (
	ErrMalformedOBJ = errors.New("malformed OBJ data")
	ErrOBJFaceIndex = errors.New("OBJ face references a missing vertex")
)

// ReadOBJ reads the geometry of a Wavefront OBJ stream. Only "v" and "f"
// records are used; polygons are fan-triangulated and all groups are merged
// into one mesh.
func ReadOBJ(r io.Reader) (Mesh, error) {
	var m Mesh
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return Mesh{}, fmt.Errorf("%w: line %d: vertex needs 3 coordinates", ErrMalformedOBJ, line)
			}
			var p [3]float32
			for i := 0; i < 3; i++ {
				f, err := strconv.ParseFloat(fields[i+1], 32)
				if err != nil {
					return Mesh{}, fmt.Errorf("%w: line %d: %v", ErrMalformedOBJ, line, err)
				}
				p[i] = float32(f)
			}
			m.Positions = append(m.Positions, math.Vec3{X: p[0], Y: p[1], Z: p[2]})

		case "f":
			if len(fields) < 4 {
				return Mesh{}, fmt.Errorf("%w: line %d: face needs 3 vertices", ErrMalformedOBJ, line)
			}
			poly := make([]uint32, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				idx, err := parseOBJIndex(ref, len(m.Positions))
				if err != nil {
					return Mesh{}, fmt.Errorf("line %d: %w", line, err)
				}
				poly = append(poly, idx)
			}
			for i := 1; i+1 < len(poly); i++ {
				m.Indices = append(m.Indices, poly[0], poly[i], poly[i+1])
			}
		}
	}
	if err := sc.Err(); err != nil {
		return Mesh{}, fmt.Errorf("scanning OBJ: %w", err)
	}
	if len(m.Indices) == 0 {
		return Mesh{}, ErrEmptyMesh
	}
	return m, nil
}

// parseOBJIndex resolves a face reference such as "7", "7/2" or "-1//3" to a
// zero-based position index.
func parseOBJIndex(ref string, count int) (uint32, error) {
	if slash := strings.IndexByte(ref, '/'); slash >= 0 {
		ref = ref[:slash]
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedOBJ, ref)
	}
	switch {
	case n > 0 && n <= count:
		return uint32(n - 1), nil
	case n < 0 && -n <= count:
		return uint32(count + n), nil
	}
	return 0, fmt.Errorf("%w: %d of %d", ErrOBJFaceIndex, n, count)
}
