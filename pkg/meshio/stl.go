package meshio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/meshfold/pkg/math"
)

// STL errors.
var (
	ErrTruncatedSTL = errors.New("truncated STL data")
	ErrMalformedSTL = errors.New("malformed STL data")
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50 // normal, 3 corners, attribute count
)

// ReadSTL reads an ASCII or binary STL stream. The result is welded so that
// adjacent facets share vertices.
func ReadSTL(r io.Reader) (Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Mesh{}, fmt.Errorf("reading STL: %w", err)
	}

	var m Mesh
	if isBinarySTL(data) {
		m, err = parseBinarySTL(data)
	} else {
		m, err = parseASCIISTL(data)
	}
	if err != nil {
		return Mesh{}, err
	}
	if len(m.Indices) == 0 {
		return Mesh{}, ErrEmptyMesh
	}
	return m.Weld(), nil
}

// isBinarySTL decides by size: binary files often start with "solid" too, but
// their length always matches the facet count in the header.
func isBinarySTL(data []byte) bool {
	if len(data) < stlHeaderSize+4 {
		return !bytes.HasPrefix(bytes.TrimSpace(data), []byte("solid"))
	}
	count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	return uint64(len(data)) == stlHeaderSize+4+uint64(count)*stlTriangleSize
}

func parseBinarySTL(data []byte) (Mesh, error) {
	if len(data) < stlHeaderSize+4 {
		return Mesh{}, ErrTruncatedSTL
	}
	r := bytes.NewReader(data[stlHeaderSize:])

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return Mesh{}, ErrTruncatedSTL
	}

	var facet struct {
		Normal  [3]float32
		Corners [3][3]float32
		Attr    uint16
	}
	m := Mesh{
		Positions: make([]math.Vec3, 0, count*3),
		Indices:   make([]uint32, 0, count*3),
	}
	for i := uint32(0); i < count; i++ {
		if err := binary.Read(r, binary.LittleEndian, &facet); err != nil {
			return Mesh{}, fmt.Errorf("%w: facet %d", ErrTruncatedSTL, i)
		}
		for _, c := range facet.Corners {
			m.Indices = append(m.Indices, uint32(len(m.Positions)))
			m.Positions = append(m.Positions, math.Vec3{X: c[0], Y: c[1], Z: c[2]})
		}
	}
	return m, nil
}

func parseASCIISTL(data []byte) (Mesh, error) {
	var m Mesh
	sc := bufio.NewScanner(bytes.NewReader(data))

	line, corners := 0, 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "facet":
			corners = 0
		case "vertex":
			if len(fields) != 4 {
				return Mesh{}, fmt.Errorf("%w: line %d: vertex needs 3 coordinates", ErrMalformedSTL, line)
			}
			var p [3]float32
			for i := range p {
				f, err := strconv.ParseFloat(fields[i+1], 32)
				if err != nil {
					return Mesh{}, fmt.Errorf("%w: line %d: %v", ErrMalformedSTL, line, err)
				}
				p[i] = float32(f)
			}
			m.Indices = append(m.Indices, uint32(len(m.Positions)))
			m.Positions = append(m.Positions, math.Vec3{X: p[0], Y: p[1], Z: p[2]})
			corners++
		case "endfacet":
			if corners != 3 {
				return Mesh{}, fmt.Errorf("%w: line %d: facet has %d vertices", ErrMalformedSTL, line, corners)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return Mesh{}, fmt.Errorf("scanning STL: %w", err)
	}
	return m, nil
}
