package weldpath

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestWeaveNone(t *testing.T) {
	p := straightPath(t, 50, 0.001)
	before := make([]float64, p.Size())
	for i := range before {
		before[i] = p.Point(i).Position.X
	}
	p.ApplyWeave(WeaveNone, 0.002, 2)
	for i := range before {
		test.That(t, p.Point(i).Position.X, test.ShouldEqual, before[i])
	}
}

func TestZigzagWeave(t *testing.T) {
	// Straight path along +x with +z normals: the lateral direction is
	// tangent x normal = -y, so zigzag moves points along y only.
	const amplitude = 0.002
	p := straightPath(t, 100, 0.001)
	p.ApplyWeave(WeaveZigzag, amplitude, 2)

	maxLateral := 0.0
	for i := 0; i < p.Size(); i++ {
		wp := p.Point(i)
		test.That(t, wp.Position.Z, test.ShouldEqual, 0)
		if d := math.Abs(wp.Position.Y); d > maxLateral {
			maxLateral = d
		}
	}
	test.That(t, maxLateral, test.ShouldBeLessThanOrEqualTo, amplitude+1e-7)
	test.That(t, maxLateral, test.ShouldBeGreaterThan, 0)
}

func TestCircularWeaveOscillatesNormal(t *testing.T) {
	const amplitude = 0.002
	p := straightPath(t, 100, 0.001)
	p.ApplyWeave(WeaveCircular, amplitude, 2)

	maxNormal := 0.0
	for i := 0; i < p.Size(); i++ {
		if d := math.Abs(p.Point(i).Position.Z); d > maxNormal {
			maxNormal = d
		}
	}
	// The normal component oscillates at half amplitude.
	test.That(t, maxNormal, test.ShouldBeGreaterThan, 0)
	test.That(t, maxNormal, test.ShouldBeLessThanOrEqualTo, 0.5*amplitude+1e-9)
}

func TestFigureEightWeave(t *testing.T) {
	const amplitude = 0.002
	p := straightPath(t, 100, 0.001)
	p.ApplyWeave(WeaveFigureEight, amplitude, 2)
	for i := 0; i < p.Size(); i++ {
		wp := p.Point(i)
		test.That(t, math.Abs(wp.Position.Y), test.ShouldBeLessThanOrEqualTo, amplitude+1e-9)
		test.That(t, math.Abs(wp.Position.Z), test.ShouldBeLessThanOrEqualTo, 0.5*amplitude+1e-9)
	}
}

func TestTriangleWeaveBounded(t *testing.T) {
	const amplitude = 0.002
	p := straightPath(t, 100, 0.001)
	p.ApplyWeave(WeaveTriangle, amplitude, 2)
	for i := 0; i < p.Size(); i++ {
		test.That(t, math.Abs(p.Point(i).Position.Y), test.ShouldBeLessThanOrEqualTo, amplitude+1e-9)
		test.That(t, p.Point(i).Position.Z, test.ShouldEqual, 0)
	}
}

func TestWeaveUpdatesParams(t *testing.T) {
	p := straightPath(t, 10, 0.001)
	p.ApplyWeave(WeaveZigzag, 0.003, 4)
	test.That(t, p.Params().WeaveKind, test.ShouldEqual, WeaveZigzag)
	test.That(t, p.Params().WeaveAmplitude, test.ShouldEqual, 0.003)
	test.That(t, p.Params().WeaveFrequency, test.ShouldEqual, 4.0)
}
