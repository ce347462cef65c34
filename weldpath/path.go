// Package weldpath turns a guided curve on a reconstructed surface into an
// oriented weld path and, through the kinematics engine, into a joint-space
// trajectory: curve construction, weave modulation, arc-length resampling,
// smoothing and per-point inverse kinematics with continuity bias.
package weldpath

import (
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/smr-robotics/weldcore/mesh"
)

// WeaveKind selects the periodic tool oscillation applied along the path.
type WeaveKind int

// The supported weave patterns.
const (
	WeaveNone WeaveKind = iota
	WeaveZigzag
	WeaveCircular
	WeaveTriangle
	WeaveFigureEight
)

// Params is the parameter block carried by a path.
type Params struct {
	StepSize         float64
	StandoffDistance float64
	ApproachAngle    float64
	TravelAngle      float64
	WeaveKind        WeaveKind
	WeaveAmplitude   float64
	WeaveFrequency   float64
}

// DefaultParams returns the parameter block used when the caller has no
// opinion: 5mm steps, 15mm standoff, no weave.
func DefaultParams() Params {
	return Params{
		StepSize:         0.005,
		StandoffDistance: 0.015,
		WeaveKind:        WeaveNone,
		WeaveAmplitude:   0.002,
		WeaveFrequency:   2.0,
	}
}

// WeldPoint is one oriented sample of the weld path: position on the
// surface, unit surface normal, unit travel tangent and arc length from the
// path start.
type WeldPoint struct {
	Position  r3.Vector
	Normal    r3.Vector
	Tangent   r3.Vector
	ArcLength float64
}

// Path is an ordered sequence of weld points with its parameter block.
type Path struct {
	points []WeldPoint
	params Params
}

// NewPathFromPoints builds a path over the given positions and normals:
// normals are unit-normalized, tangents come from central differences of the
// positions, and arc length accumulates chord lengths from zero.
func NewPathFromPoints(positions, normals []r3.Vector, params Params) (*Path, error) {
	if len(positions) == 0 {
		return nil, errors.New("path needs at least one point")
	}
	if len(normals) != len(positions) {
		return nil, errors.Errorf("got %d normals for %d positions", len(normals), len(positions))
	}

	p := &Path{params: params, points: make([]WeldPoint, len(positions))}
	for i := range positions {
		p.points[i] = WeldPoint{
			Position: positions[i],
			Normal:   unitOr(normals[i], r3.Vector{Z: 1}),
		}
	}
	p.recomputeTangents()
	p.recomputeArcLength()
	return p, nil
}

// Size returns the number of weld points.
func (p *Path) Size() int {
	return len(p.points)
}

// Point returns weld point i.
func (p *Path) Point(i int) WeldPoint {
	return p.points[i]
}

// Params returns the path's parameter block.
func (p *Path) Params() Params {
	return p.params
}

// Length returns the total arc length.
func (p *Path) Length() float64 {
	if len(p.points) == 0 {
		return 0
	}
	return p.points[len(p.points)-1].ArcLength
}

// recomputeTangents sets each tangent to the normalized central difference
// of positions, one-sided at the ends.
func (p *Path) recomputeTangents() {
	n := len(p.points)
	if n < 2 {
		return
	}
	for i := range p.points {
		next := i + 1
		if next > n-1 {
			next = n - 1
		}
		prev := i - 1
		if prev < 0 {
			prev = 0
		}
		secant := p.points[next].Position.Sub(p.points[prev].Position)
		p.points[i].Tangent = unitOr(secant, p.points[i].Tangent)
	}
}

// recomputeArcLength accumulates chord lengths from zero.
func (p *Path) recomputeArcLength() {
	arc := 0.0
	for i := range p.points {
		if i > 0 {
			arc += p.points[i].Position.Sub(p.points[i-1].Position).Norm()
		}
		p.points[i].ArcLength = arc
	}
}

// NewPathFromMeshBoundary extracts the boundary polyline of the mesh (the
// chain of edges with exactly one incident triangle) and builds a path over
// it. Normals come from the faces adjacent to each boundary vertex. When the
// mesh has several boundary components the longest one wins; a closed
// surface has none and yields an error.
func NewPathFromMeshBoundary(m *mesh.Mesh, params Params) (*Path, error) {
	if m == nil || m.TriangleCount() == 0 {
		return nil, errors.New("boundary extraction needs a non-empty mesh")
	}

	loop, err := boundaryLoop(m)
	if err != nil {
		return nil, err
	}

	positions := make([]r3.Vector, len(loop))
	normals := make([]r3.Vector, len(loop))
	faceNormals := vertexFaceNormals(m)
	for i, v := range loop {
		positions[i] = m.Vertex(v)
		normals[i] = unitOr(faceNormals[v], m.Normal(v))
	}
	return NewPathFromPoints(positions, normals, params)
}

// boundaryLoop chains the mesh's boundary edges into the longest polyline,
// returned as an ordered vertex index list.
func boundaryLoop(m *mesh.Mesh) ([]int, error) {
	type edge [2]int
	counts := map[edge]int{}
	for i := 0; i < m.TriangleCount(); i++ {
		tri := m.TriangleAt(i)
		for e := 0; e < 3; e++ {
			a, b := tri[e], tri[(e+1)%3]
			if a > b {
				a, b = b, a
			}
			counts[edge{a, b}]++
		}
	}

	adjacency := map[int][]int{}
	for e, c := range counts {
		if c != 1 {
			continue
		}
		adjacency[e[0]] = append(adjacency[e[0]], e[1])
		adjacency[e[1]] = append(adjacency[e[1]], e[0])
	}
	if len(adjacency) == 0 {
		return nil, errors.New("mesh has no boundary edges")
	}

	// Walk every component once; open chains start at odd-degree vertices,
	// closed loops anywhere.
	visited := map[int]bool{}
	var best []int

	walk := func(start int) []int {
		chain := []int{start}
		visited[start] = true
		cur, prev := start, -1
		for {
			nextVert := -1
			for _, nb := range adjacency[cur] {
				if nb != prev && !visited[nb] {
					nextVert = nb
					break
				}
			}
			if nextVert == -1 {
				break
			}
			visited[nextVert] = true
			chain = append(chain, nextVert)
			prev, cur = cur, nextVert
		}
		return chain
	}

	// Deterministic start order: ascending vertex index, endpoints first.
	var starts []int
	for v, nbs := range adjacency {
		if len(nbs) == 1 {
			starts = append(starts, v)
		}
	}
	var interior []int
	for v := range adjacency {
		interior = append(interior, v)
	}
	sort.Ints(starts)
	sort.Ints(interior)
	for _, v := range append(starts, interior...) {
		if visited[v] {
			continue
		}
		if chain := walk(v); len(chain) > len(best) {
			best = chain
		}
	}
	if len(best) < 2 {
		return nil, errors.New("boundary is degenerate")
	}
	return best, nil
}

// vertexFaceNormals accumulates area-weighted face normals onto their
// vertices.
func vertexFaceNormals(m *mesh.Mesh) []r3.Vector {
	out := make([]r3.Vector, m.VertexCount())
	for i := 0; i < m.TriangleCount(); i++ {
		tri := m.TriangleAt(i)
		a, b, c := m.Vertex(tri[0]), m.Vertex(tri[1]), m.Vertex(tri[2])
		fn := b.Sub(a).Cross(c.Sub(a))
		for _, v := range tri {
			out[v] = out[v].Add(fn)
		}
	}
	return out
}

func unitOr(v r3.Vector, fallback r3.Vector) r3.Vector {
	n := v.Norm()
	if n < 1e-12 {
		return fallback
	}
	return v.Mul(1 / n)
}
