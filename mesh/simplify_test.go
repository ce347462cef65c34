package mesh

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

// gridPatch builds an (n+1)x(n+1) vertex planar patch triangulated into
// 2*n*n triangles.
func gridPatch(n int) *Mesh {
	m := New()
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			m.AddVertex(r3.Vector{X: float64(i), Y: float64(j)}, r3.Vector{Z: 1}, 1)
		}
	}
	stride := n + 1
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			a := j*stride + i
			if err := m.AddTriangle(a, a+1, a+stride); err != nil {
				panic(err)
			}
			if err := m.AddTriangle(a+1, a+stride+1, a+stride); err != nil {
				panic(err)
			}
		}
	}
	return m
}

func TestSimplifyNoOp(t *testing.T) {
	m := gridPatch(4)
	before := m.TriangleCount()
	test.That(t, m.Simplify(0), test.ShouldBeNil)
	test.That(t, m.Simplify(1), test.ShouldBeNil)
	test.That(t, m.Simplify(1.5), test.ShouldBeNil)
	test.That(t, m.TriangleCount(), test.ShouldEqual, before)
}

func TestSimplifyReduces(t *testing.T) {
	m := gridPatch(8)
	before := m.TriangleCount()
	test.That(t, m.Simplify(0.5), test.ShouldBeNil)
	test.That(t, m.TriangleCount(), test.ShouldBeLessThanOrEqualTo, before/2)
	test.That(t, m.TriangleCount(), test.ShouldBeGreaterThan, 0)
	test.That(t, m.Validate(), test.ShouldBeNil)

	// The patch is planar; collapsed vertices must stay on the plane and
	// normals stay unit.
	for i := 0; i < m.VertexCount(); i++ {
		test.That(t, m.Vertex(i).Z, test.ShouldAlmostEqual, 0, 1e-12)
		test.That(t, m.Normal(i).Norm(), test.ShouldAlmostEqual, 1, 1e-9)
	}
}

func TestSimplifyDeterministic(t *testing.T) {
	a, b := gridPatch(6), gridPatch(6)
	test.That(t, a.Simplify(0.4), test.ShouldBeNil)
	test.That(t, b.Simplify(0.4), test.ShouldBeNil)
	test.That(t, a.TriangleCount(), test.ShouldEqual, b.TriangleCount())
	for i := 0; i < a.VertexCount(); i++ {
		d := a.Vertex(i).Sub(b.Vertex(i)).Norm()
		test.That(t, math.IsNaN(d), test.ShouldBeFalse)
		test.That(t, d, test.ShouldEqual, 0)
	}
}
