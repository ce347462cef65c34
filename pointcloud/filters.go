package pointcloud

import (
	"image/color"
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// voxelCoords keys a cubic cell of the downsampling grid.
type voxelCoords struct {
	I, J, K int64
}

func voxelKey(p r3.Vector, size float64) voxelCoords {
	return voxelCoords{
		I: int64(math.Floor(p.X / size)),
		J: int64(math.Floor(p.Y / size)),
		K: int64(math.Floor(p.Z / size)),
	}
}

type voxelAccum struct {
	posSum    r3.Vector
	normalSum r3.Vector
	rSum      int
	gSum      int
	bSum      int
	count     int
}

// DownsampleVoxel partitions space into axis-aligned cubes of the given side
// and keeps one point per occupied cube: the centroid of its members. When
// normals are present the output normal is the normalized sum; colors
// average channel-wise. Output ordering follows cube coordinates.
func (cloud *PointCloud) DownsampleVoxel(size float64) error {
	if size <= 0 {
		return errors.Errorf("voxel size must be positive, got %v", size)
	}
	if cloud.Size() == 0 {
		return nil
	}

	voxels := map[voxelCoords]*voxelAccum{}
	for i, p := range cloud.positions {
		key := voxelKey(p, size)
		acc, ok := voxels[key]
		if !ok {
			acc = &voxelAccum{}
			voxels[key] = acc
		}
		acc.posSum = acc.posSum.Add(p)
		if cloud.normals != nil {
			acc.normalSum = acc.normalSum.Add(cloud.normals[i])
		}
		if cloud.colors != nil {
			c := cloud.colors[i]
			acc.rSum += int(c.R)
			acc.gSum += int(c.G)
			acc.bSum += int(c.B)
		}
		acc.count++
	}

	keys := make([]voxelCoords, 0, len(voxels))
	for key := range voxels {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.I != b.I {
			return a.I < b.I
		}
		if a.J != b.J {
			return a.J < b.J
		}
		return a.K < b.K
	})

	positions := make([]r3.Vector, 0, len(keys))
	var normals []r3.Vector
	var colors []color.NRGBA
	if cloud.normals != nil {
		normals = make([]r3.Vector, 0, len(keys))
	}
	if cloud.colors != nil {
		colors = make([]color.NRGBA, 0, len(keys))
	}

	for _, key := range keys {
		acc := voxels[key]
		inv := 1 / float64(acc.count)
		positions = append(positions, acc.posSum.Mul(inv))
		if normals != nil {
			normals = append(normals, unitOr(acc.normalSum, r3.Vector{Z: 1}))
		}
		if colors != nil {
			colors = append(colors, color.NRGBA{
				R: uint8(float64(acc.rSum)*inv + 0.5),
				G: uint8(float64(acc.gSum)*inv + 0.5),
				B: uint8(float64(acc.bSum)*inv + 0.5),
				A: 255,
			})
		}
	}

	cloud.replace(positions, normals, colors)
	return nil
}

// RemoveStatisticalOutliers drops points whose mean distance to their k
// nearest neighbors exceeds mean + stdRatio*stddev of that statistic over
// the whole cloud. A no-op when the cloud has k or fewer points.
func (cloud *PointCloud) RemoveStatisticalOutliers(k int, stdRatio float64) error {
	if k < 1 {
		return errors.Errorf("neighbor count must be at least 1, got %d", k)
	}
	if stdRatio <= 0 {
		return errors.Errorf("std ratio must be positive, got %v", stdRatio)
	}
	n := cloud.Size()
	if n <= k {
		return nil
	}

	index := newNeighborIndex(cloud.positions)
	meanDists := make([]float64, n)
	for i := range cloud.positions {
		meanDists[i] = index.meanNeighborDistance(i, k)
	}

	mean, err := stats.Mean(meanDists)
	if err != nil {
		return errors.Wrap(err, "outlier statistics")
	}
	stddev, err := stats.StandardDeviation(meanDists)
	if err != nil {
		return errors.Wrap(err, "outlier statistics")
	}
	threshold := mean + stdRatio*stddev

	positions := make([]r3.Vector, 0, n)
	var normals []r3.Vector
	var colors []color.NRGBA
	if cloud.normals != nil {
		normals = make([]r3.Vector, 0, n)
	}
	if cloud.colors != nil {
		colors = make([]color.NRGBA, 0, n)
	}
	for i := range cloud.positions {
		if meanDists[i] > threshold {
			continue
		}
		positions = append(positions, cloud.positions[i])
		if normals != nil {
			normals = append(normals, cloud.normals[i])
		}
		if colors != nil {
			colors = append(colors, cloud.colors[i])
		}
	}

	cloud.replace(positions, normals, colors)
	return nil
}
