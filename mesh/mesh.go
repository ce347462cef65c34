// Package mesh builds and manipulates the indexed triangle surface that the
// weld-path planner traces: reconstruction from an oriented point cloud,
// low-density trimming, decimation and file export.
package mesh

import (
	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// Triangle is a triple of vertex indices.
type Triangle [3]int

// Mesh is an indexed triangle mesh with unit per-vertex normals and an
// optional per-vertex density channel carried through from reconstruction.
type Mesh struct {
	vertices  []r3.Vector
	normals   []r3.Vector
	triangles []Triangle
	densities []float64
}

// New returns an empty mesh.
func New() *Mesh {
	return &Mesh{}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.vertices)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.triangles)
}

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i int) r3.Vector {
	return m.vertices[i]
}

// Normal returns the normal of vertex i.
func (m *Mesh) Normal(i int) r3.Vector {
	return m.normals[i]
}

// TriangleAt returns triangle i.
func (m *Mesh) TriangleAt(i int) Triangle {
	return m.triangles[i]
}

// Density returns the density of vertex i, 0 when the channel is absent.
func (m *Mesh) Density(i int) float64 {
	if m.densities == nil {
		return 0
	}
	return m.densities[i]
}

// HasDensities reports whether the density channel is present.
func (m *Mesh) HasDensities() bool {
	return m.densities != nil
}

// AddVertex appends a vertex with its normal and density, returning its
// index.
func (m *Mesh) AddVertex(pos, normal r3.Vector, density float64) int {
	m.vertices = append(m.vertices, pos)
	m.normals = append(m.normals, normal)
	m.densities = append(m.densities, density)
	return len(m.vertices) - 1
}

// AddTriangle appends a triangle. Indices must refer to existing vertices.
func (m *Mesh) AddTriangle(a, b, c int) error {
	n := len(m.vertices)
	if a < 0 || a >= n || b < 0 || b >= n || c < 0 || c >= n {
		return errors.Errorf("triangle (%d,%d,%d) out of range for %d vertices", a, b, c, n)
	}
	m.triangles = append(m.triangles, Triangle{a, b, c})
	return nil
}

// Bounds returns the min and max corners of the vertex bounding box.
func (m *Mesh) Bounds() (r3.Vector, r3.Vector) {
	if len(m.vertices) == 0 {
		return r3.Vector{}, r3.Vector{}
	}
	min, max := m.vertices[0], m.vertices[0]
	for _, v := range m.vertices[1:] {
		min.X, max.X = minMax(min.X, max.X, v.X)
		min.Y, max.Y = minMax(min.Y, max.Y, v.Y)
		min.Z, max.Z = minMax(min.Z, max.Z, v.Z)
	}
	return min, max
}

func minMax(lo, hi, v float64) (float64, float64) {
	if v < lo {
		lo = v
	}
	if v > hi {
		hi = v
	}
	return lo, hi
}

// Validate checks that every triangle index refers to a live vertex.
func (m *Mesh) Validate() error {
	n := len(m.vertices)
	for i, tri := range m.triangles {
		for _, v := range tri {
			if v < 0 || v >= n {
				return errors.Errorf("triangle %d references vertex %d of %d", i, v, n)
			}
		}
	}
	return nil
}

// RemoveLowDensity drops the vertices whose density falls below the given
// quantile of the density distribution, along with every triangle touching
// them, and compacts the index space. Quantiles outside (0,1) and meshes
// without a density channel are a no-op.
func (m *Mesh) RemoveLowDensity(quantile float64) error {
	if quantile <= 0 || quantile >= 1 || len(m.densities) == 0 {
		return nil
	}

	threshold, err := stats.Percentile(append([]float64(nil), m.densities...), quantile*100)
	if err != nil {
		return errors.Wrap(err, "density quantile")
	}

	vertexMap := make([]int, len(m.vertices))
	newVertices := make([]r3.Vector, 0, len(m.vertices))
	newNormals := make([]r3.Vector, 0, len(m.vertices))
	newDensities := make([]float64, 0, len(m.vertices))
	for i := range m.vertices {
		if m.densities[i] < threshold {
			vertexMap[i] = -1
			continue
		}
		vertexMap[i] = len(newVertices)
		newVertices = append(newVertices, m.vertices[i])
		newNormals = append(newNormals, m.normals[i])
		newDensities = append(newDensities, m.densities[i])
	}

	newTriangles := make([]Triangle, 0, len(m.triangles))
	for _, tri := range m.triangles {
		a, b, c := vertexMap[tri[0]], vertexMap[tri[1]], vertexMap[tri[2]]
		if a < 0 || b < 0 || c < 0 {
			continue
		}
		newTriangles = append(newTriangles, Triangle{a, b, c})
	}

	m.vertices = newVertices
	m.normals = newNormals
	m.densities = newDensities
	m.triangles = newTriangles
	return nil
}

func unitOr(v r3.Vector, fallback r3.Vector) r3.Vector {
	n := v.Norm()
	if n < 1e-12 {
		return fallback
	}
	return v.Mul(1 / n)
}
