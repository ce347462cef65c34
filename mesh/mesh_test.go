package mesh

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

// quadMesh builds two triangles sharing an edge, with densities rising by
// vertex index.
func quadMesh() *Mesh {
	m := New()
	m.AddVertex(r3.Vector{}, r3.Vector{Z: 1}, 0)
	m.AddVertex(r3.Vector{X: 1}, r3.Vector{Z: 1}, 1)
	m.AddVertex(r3.Vector{X: 1, Y: 1}, r3.Vector{Z: 1}, 2)
	m.AddVertex(r3.Vector{Y: 1}, r3.Vector{Z: 1}, 3)
	if err := m.AddTriangle(0, 1, 2); err != nil {
		panic(err)
	}
	if err := m.AddTriangle(0, 2, 3); err != nil {
		panic(err)
	}
	return m
}

func TestMeshBasics(t *testing.T) {
	m := quadMesh()
	test.That(t, m.VertexCount(), test.ShouldEqual, 4)
	test.That(t, m.TriangleCount(), test.ShouldEqual, 2)
	test.That(t, m.Validate(), test.ShouldBeNil)

	err := m.AddTriangle(0, 1, 99)
	test.That(t, err, test.ShouldNotBeNil)

	min, max := m.Bounds()
	test.That(t, min, test.ShouldResemble, r3.Vector{})
	test.That(t, max, test.ShouldResemble, r3.Vector{X: 1, Y: 1})
}

func TestRemoveLowDensity(t *testing.T) {
	m := quadMesh()

	// Out-of-range quantiles are no-ops.
	test.That(t, m.RemoveLowDensity(0), test.ShouldBeNil)
	test.That(t, m.RemoveLowDensity(1), test.ShouldBeNil)
	test.That(t, m.VertexCount(), test.ShouldEqual, 4)

	// The 50th percentile of densities 0..3 is 1, so only vertex 0 falls
	// below it; both triangles touch vertex 0 and go with it.
	test.That(t, m.RemoveLowDensity(0.5), test.ShouldBeNil)
	test.That(t, m.VertexCount(), test.ShouldBeLessThan, 4)
	test.That(t, m.Validate(), test.ShouldBeNil)
	for i := 0; i < m.TriangleCount(); i++ {
		tri := m.TriangleAt(i)
		for _, v := range tri {
			test.That(t, v, test.ShouldBeLessThan, m.VertexCount())
			test.That(t, v, test.ShouldBeGreaterThanOrEqualTo, 0)
		}
	}
}

func TestRemoveLowDensityNoChannel(t *testing.T) {
	m := New()
	m.AddVertex(r3.Vector{}, r3.Vector{Z: 1}, 0)
	m.densities = nil
	test.That(t, m.RemoveLowDensity(0.5), test.ShouldBeNil)
	test.That(t, m.VertexCount(), test.ShouldEqual, 1)
}
