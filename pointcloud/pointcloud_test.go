package pointcloud

import (
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestBasic(t *testing.T) {
	cloud := New()
	test.That(t, cloud.Size(), test.ShouldEqual, 0)
	test.That(t, cloud.HasNormals(), test.ShouldBeFalse)
	test.That(t, cloud.HasColors(), test.ShouldBeFalse)

	cloud.Append(r3.Vector{X: 1, Y: 2, Z: 3})
	cloud.Append(r3.Vector{X: -1, Y: 0, Z: 5})
	test.That(t, cloud.Size(), test.ShouldEqual, 2)
	test.That(t, cloud.Position(0), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})

	meta := cloud.MetaData()
	test.That(t, meta.MinX, test.ShouldEqual, -1)
	test.That(t, meta.MaxZ, test.ShouldEqual, 5)

	err := cloud.SetNormals([]r3.Vector{{Z: 1}})
	test.That(t, err, test.ShouldNotBeNil)
	err = cloud.SetNormals([]r3.Vector{{Z: 1}, {Z: 1}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cloud.HasNormals(), test.ShouldBeTrue)

	cloud.Clear()
	test.That(t, cloud.Size(), test.ShouldEqual, 0)
	test.That(t, cloud.HasNormals(), test.ShouldBeFalse)
}

func TestSetPointsDropsChannels(t *testing.T) {
	cloud := New()
	cloud.Append(r3.Vector{X: 1})
	test.That(t, cloud.SetNormals([]r3.Vector{{Z: 1}}), test.ShouldBeNil)

	cloud.SetPoints([]r3.Vector{{X: 2}, {X: 3}})
	test.That(t, cloud.Size(), test.ShouldEqual, 2)
	test.That(t, cloud.HasNormals(), test.ShouldBeFalse)
}

func TestDownsampleVoxel(t *testing.T) {
	cloud := New()
	err := cloud.DownsampleVoxel(-1)
	test.That(t, err, test.ShouldNotBeNil)

	// Two clusters in well-separated cubes plus a lone point.
	cloud.Append(r3.Vector{X: 0.01, Y: 0.01, Z: 0.01})
	cloud.Append(r3.Vector{X: 0.02, Y: 0.02, Z: 0.02})
	cloud.Append(r3.Vector{X: 1.01, Y: 0.01, Z: 0.01})
	cloud.Append(r3.Vector{X: 1.02, Y: 0.02, Z: 0.02})
	cloud.Append(r3.Vector{X: 2.5, Y: 2.5, Z: 2.5})
	test.That(t, cloud.SetNormals([]r3.Vector{{Z: 1}, {Z: 1}, {X: 1}, {X: 1}, {Y: 1}}), test.ShouldBeNil)

	err = cloud.DownsampleVoxel(0.1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cloud.Size(), test.ShouldEqual, 3)
	test.That(t, cloud.HasNormals(), test.ShouldBeTrue)
	for i := 0; i < cloud.Size(); i++ {
		test.That(t, cloud.Normal(i).Norm(), test.ShouldAlmostEqual, 1, 1e-9)
	}

	// A voxel wider than the whole cloud collapses everything to one point.
	err = cloud.DownsampleVoxel(100)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cloud.Size(), test.ShouldEqual, 1)
}

func TestDownsampleVoxelBounds(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	cloud := NewWithPrealloc(20000)
	for i := 0; i < 20000; i++ {
		cloud.Append(r3.Vector{X: r.Float64(), Y: r.Float64(), Z: r.Float64()})
	}
	before := cloud.Size()
	test.That(t, cloud.DownsampleVoxel(0.1), test.ShouldBeNil)
	test.That(t, cloud.Size(), test.ShouldBeLessThanOrEqualTo, before)
	// [0,1)^3 at side 0.1 has at most 1000 occupied cubes, and dense
	// sampling should occupy nearly all of them.
	test.That(t, cloud.Size(), test.ShouldBeLessThanOrEqualTo, 1000)
	test.That(t, cloud.Size(), test.ShouldBeGreaterThan, 900)
	// Every centroid stays within sqrt(3)*side of some input point; the
	// cube itself bounds that.
	diag := math.Sqrt(3) * 0.1
	for i := 0; i < cloud.Size(); i++ {
		p := cloud.Position(i)
		test.That(t, p.X, test.ShouldBeGreaterThan, -diag)
		test.That(t, p.X, test.ShouldBeLessThan, 1+diag)
	}
}

func TestRemoveStatisticalOutliers(t *testing.T) {
	cloud := New()
	test.That(t, cloud.RemoveStatisticalOutliers(0, 1), test.ShouldNotBeNil)
	test.That(t, cloud.RemoveStatisticalOutliers(5, 0), test.ShouldNotBeNil)

	// Uniform grid plus one far-away outlier.
	for x := 0; x < 5; x++ {
		for y := 0; y < 5; y++ {
			cloud.Append(r3.Vector{X: float64(x) * 0.01, Y: float64(y) * 0.01})
		}
	}
	cloud.Append(r3.Vector{X: 10, Y: 10, Z: 10})
	colors := make([]color.NRGBA, cloud.Size())
	test.That(t, cloud.SetColors(colors), test.ShouldBeNil)

	before := cloud.Size()
	test.That(t, cloud.RemoveStatisticalOutliers(4, 1.0), test.ShouldBeNil)
	test.That(t, cloud.Size(), test.ShouldEqual, before-1)
	test.That(t, cloud.HasColors(), test.ShouldBeTrue)
	test.That(t, cloud.MetaData().MaxX, test.ShouldBeLessThan, 1)
}

func TestRemoveStatisticalOutliersNoOp(t *testing.T) {
	cloud := New()
	cloud.Append(r3.Vector{})
	cloud.Append(r3.Vector{X: 1})
	// N <= k: nothing happens.
	test.That(t, cloud.RemoveStatisticalOutliers(5, 1.0), test.ShouldBeNil)
	test.That(t, cloud.Size(), test.ShouldEqual, 2)

	// A perfectly regular grid is all inliers.
	cloud.Clear()
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			cloud.Append(r3.Vector{X: float64(x), Y: float64(y)})
		}
	}
	before := cloud.Size()
	test.That(t, cloud.RemoveStatisticalOutliers(3, 2.0), test.ShouldBeNil)
	test.That(t, cloud.Size(), test.ShouldEqual, before)
}
