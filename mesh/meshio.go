package mesh

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/smr-robotics/weldcore/pointcloud"
)

// SavePLY writes the mesh as ASCII PLY: vertex positions with normals, then
// faces as "3 i j k".
func (m *Mesh) SavePLY(fn string) (err error) {
	f, err := os.Create(fn) //nolint:gosec
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "ply\nformat ascii 1.0\n")
	fmt.Fprintf(w, "element vertex %d\n", m.VertexCount())
	fmt.Fprintf(w, "property float x\nproperty float y\nproperty float z\n")
	fmt.Fprintf(w, "property float nx\nproperty float ny\nproperty float nz\n")
	fmt.Fprintf(w, "element face %d\n", m.TriangleCount())
	fmt.Fprintf(w, "property list uchar int vertex_indices\nend_header\n")

	for i := 0; i < m.VertexCount(); i++ {
		v, n := m.vertices[i], m.normals[i]
		fmt.Fprintf(w, "%g %g %g %g %g %g\n", v.X, v.Y, v.Z, n.X, n.Y, n.Z)
	}
	for _, tri := range m.triangles {
		fmt.Fprintf(w, "3 %d %d %d\n", tri[0], tri[1], tri[2])
	}
	return w.Flush()
}

// SaveOBJ writes the mesh as Wavefront OBJ with per-vertex normals
// (1-indexed "f v//n v//n v//n" faces).
func (m *Mesh) SaveOBJ(fn string) (err error) {
	f, err := os.Create(fn) //nolint:gosec
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# weldcore surface mesh\n")
	fmt.Fprintf(w, "# vertices: %d\n# faces: %d\n\n", m.VertexCount(), m.TriangleCount())
	for _, v := range m.vertices {
		fmt.Fprintf(w, "v %g %g %g\n", v.X, v.Y, v.Z)
	}
	for _, n := range m.normals {
		fmt.Fprintf(w, "vn %g %g %g\n", n.X, n.Y, n.Z)
	}
	for _, tri := range m.triangles {
		a, b, c := tri[0]+1, tri[1]+1, tri[2]+1
		fmt.Fprintf(w, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
	}
	return w.Flush()
}

// LoadPLY reads an ASCII PLY mesh with vertex positions, optional normals,
// and triangular faces.
func LoadPLY(fn string, logger golog.Logger) (*Mesh, error) {
	f, err := os.Open(fn) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	scanner := bufio.NewScanner(f)
	vertexCount, faceCount := -1, 0
	hasNormals := false
	inHeader := true

	for inHeader && scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "element":
			if len(fields) == 3 {
				n, err := strconv.Atoi(fields[2])
				if err != nil {
					return nil, errors.Wrapf(pointcloud.ErrMalformedFile, "bad element count %q", fields[2])
				}
				switch fields[1] {
				case "vertex":
					vertexCount = n
				case "face":
					faceCount = n
				}
			}
		case "property":
			if len(fields) == 3 && fields[2] == "nx" {
				hasNormals = true
			}
		case "end_header":
			inHeader = false
		}
	}
	if inHeader || vertexCount < 0 {
		return nil, errors.Wrap(pointcloud.ErrMalformedFile, "PLY header incomplete")
	}

	m := New()
	for i := 0; i < vertexCount; i++ {
		if !scanner.Scan() {
			return nil, errors.Wrapf(pointcloud.ErrMalformedFile, "PLY ends after %d of %d vertices", i, vertexCount)
		}
		fields := strings.Fields(scanner.Text())
		need := 3
		if hasNormals {
			need = 6
		}
		if len(fields) < need {
			return nil, errors.Wrapf(pointcloud.ErrMalformedFile, "PLY vertex %d has %d fields, want %d", i, len(fields), need)
		}
		vals := make([]float64, need)
		for j := 0; j < need; j++ {
			vals[j], err = strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return nil, errors.Wrapf(pointcloud.ErrMalformedFile, "PLY vertex %d", i)
			}
		}
		normal := r3.Vector{Z: 1}
		if hasNormals {
			normal = r3.Vector{X: vals[3], Y: vals[4], Z: vals[5]}
		}
		m.AddVertex(r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]}, normal, 0)
	}

	for i := 0; i < faceCount; i++ {
		if !scanner.Scan() {
			return nil, errors.Wrapf(pointcloud.ErrMalformedFile, "PLY ends after %d of %d faces", i, faceCount)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] != "3" {
			return nil, errors.Wrapf(pointcloud.ErrMalformedFile, "PLY face %d is not a triangle", i)
		}
		var idx [3]int
		for j := 0; j < 3; j++ {
			idx[j], err = strconv.Atoi(fields[j+1])
			if err != nil {
				return nil, errors.Wrapf(pointcloud.ErrMalformedFile, "PLY face %d", i)
			}
		}
		if err := m.AddTriangle(idx[0], idx[1], idx[2]); err != nil {
			return nil, errors.Wrapf(pointcloud.ErrMalformedFile, "PLY face %d: %v", i, err)
		}
	}
	m.densities = nil
	logger.Debugf("read mesh with %d vertices, %d triangles from %s", m.VertexCount(), m.TriangleCount(), fn)
	return m, nil
}
