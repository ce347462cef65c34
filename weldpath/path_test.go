package weldpath

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/smr-robotics/weldcore/mesh"
)

// straightPath returns an n-point path along +x with +z normals.
func straightPath(t *testing.T, n int, spacing float64) *Path {
	t.Helper()
	positions := make([]r3.Vector, n)
	normals := make([]r3.Vector, n)
	for i := range positions {
		positions[i] = r3.Vector{X: float64(i) * spacing}
		normals[i] = r3.Vector{Z: 1}
	}
	p, err := NewPathFromPoints(positions, normals, DefaultParams())
	test.That(t, err, test.ShouldBeNil)
	return p
}

func TestNewPathFromPoints(t *testing.T) {
	_, err := NewPathFromPoints(nil, nil, DefaultParams())
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPathFromPoints([]r3.Vector{{}}, nil, DefaultParams())
	test.That(t, err, test.ShouldNotBeNil)

	p := straightPath(t, 10, 0.01)
	test.That(t, p.Size(), test.ShouldEqual, 10)
	test.That(t, p.Point(0).ArcLength, test.ShouldEqual, 0)
	test.That(t, p.Length(), test.ShouldAlmostEqual, 0.09, 1e-9)

	for i := 0; i < p.Size(); i++ {
		wp := p.Point(i)
		test.That(t, wp.Normal.Norm(), test.ShouldAlmostEqual, 1, 1e-6)
		test.That(t, wp.Tangent.X, test.ShouldAlmostEqual, 1, 1e-9)
		if i > 0 {
			test.That(t, wp.ArcLength, test.ShouldBeGreaterThanOrEqualTo, p.Point(i-1).ArcLength)
		}
	}
}

func TestNormalsAreNormalized(t *testing.T) {
	p, err := NewPathFromPoints(
		[]r3.Vector{{}, {X: 1}},
		[]r3.Vector{{Z: 5}, {}},
		DefaultParams(),
	)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Point(0).Normal, test.ShouldResemble, r3.Vector{Z: 1})
	// A zero input normal falls back to +z.
	test.That(t, p.Point(1).Normal, test.ShouldResemble, r3.Vector{Z: 1})
}

// patchMesh builds a flat 3x3-vertex patch whose boundary is the square
// perimeter.
func patchMesh(t *testing.T) *mesh.Mesh {
	t.Helper()
	m := mesh.New()
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			m.AddVertex(r3.Vector{X: float64(i), Y: float64(j)}, r3.Vector{Z: 1}, 1)
		}
	}
	for j := 0; j < 2; j++ {
		for i := 0; i < 2; i++ {
			a := j*3 + i
			test.That(t, m.AddTriangle(a, a+1, a+3), test.ShouldBeNil)
			test.That(t, m.AddTriangle(a+1, a+4, a+3), test.ShouldBeNil)
		}
	}
	return m
}

func TestNewPathFromMeshBoundary(t *testing.T) {
	_, err := NewPathFromMeshBoundary(nil, DefaultParams())
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPathFromMeshBoundary(mesh.New(), DefaultParams())
	test.That(t, err, test.ShouldNotBeNil)

	m := patchMesh(t)
	p, err := NewPathFromMeshBoundary(m, DefaultParams())
	test.That(t, err, test.ShouldBeNil)
	// The perimeter has 8 of the 9 vertices; only the center is interior.
	test.That(t, p.Size(), test.ShouldEqual, 8)

	for i := 0; i < p.Size(); i++ {
		wp := p.Point(i)
		// Boundary points lie on the patch edge, never at the center.
		onEdge := wp.Position.X == 0 || wp.Position.X == 2 || wp.Position.Y == 0 || wp.Position.Y == 2
		test.That(t, onEdge, test.ShouldBeTrue)
		test.That(t, wp.Normal.Norm(), test.ShouldAlmostEqual, 1, 1e-9)
		if i > 0 {
			test.That(t, wp.ArcLength, test.ShouldBeGreaterThan, p.Point(i-1).ArcLength)
		}
	}
	// Consecutive boundary points are adjacent on the perimeter.
	for i := 1; i < p.Size(); i++ {
		step := p.Point(i).Position.Sub(p.Point(i - 1).Position).Norm()
		test.That(t, step, test.ShouldAlmostEqual, 1, 1e-9)
	}
}
