package capi

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/smr-robotics/weldcore/pointcloud"
)

var pointClouds registry[*pointcloud.PointCloud]

// logger backs the file-loading entry points; the handle ABI carries no
// logger argument.
var logger = golog.Global()

// CreatePointCloud allocates an empty point cloud and returns its handle.
func CreatePointCloud() Handle {
	return pointClouds.add(pointcloud.New())
}

// DestroyPointCloud releases the cloud. Stale or nil handles are ignored.
func DestroyPointCloud(h Handle) {
	pointClouds.remove(h)
}

// PointCloudLoadPLY replaces the cloud contents with an ASCII PLY file.
func PointCloudLoadPLY(h Handle, path string) Code {
	_, ok := pointClouds.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	loaded, err := pointcloud.NewFromPLYFile(path, logger)
	if err != nil {
		return fail(err)
	}
	return replaceCloud(h, loaded)
}

// PointCloudLoadPCD replaces the cloud contents with an ASCII PCD file.
func PointCloudLoadPCD(h Handle, path string) Code {
	_, ok := pointClouds.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	loaded, err := pointcloud.NewFromPCDFile(path, logger)
	if err != nil {
		return fail(err)
	}
	return replaceCloud(h, loaded)
}

func replaceCloud(h Handle, loaded *pointcloud.PointCloud) Code {
	cloud, ok := pointClouds.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	*cloud = *loaded
	return Success
}

// PointCloudSetPoints replaces the cloud with the given packed xyz floats.
func PointCloudSetPoints(h Handle, points []float32) Code {
	cloud, ok := pointClouds.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if len(points) == 0 || len(points)%3 != 0 {
		return failParam(errors.Errorf("point buffer length %d is not a positive multiple of 3", len(points)))
	}
	positions := make([]r3.Vector, len(points)/3)
	for i := range positions {
		positions[i] = r3.Vector{
			X: float64(points[i*3]),
			Y: float64(points[i*3+1]),
			Z: float64(points[i*3+2]),
		}
	}
	cloud.SetPoints(positions)
	return Success
}

// PointCloudCount returns the number of points, -1 for a bad handle.
func PointCloudCount(h Handle) int {
	cloud, ok := pointClouds.get(h)
	if !ok {
		return -1
	}
	return cloud.Size()
}

// PointCloudPoints fills out with packed xyz floats; it must hold 3*count
// entries.
func PointCloudPoints(h Handle, out []float32) Code {
	cloud, ok := pointClouds.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if len(out) < cloud.Size()*3 {
		return failParam(errors.Errorf("output buffer holds %d floats, need %d", len(out), cloud.Size()*3))
	}
	for i := 0; i < cloud.Size(); i++ {
		p := cloud.Position(i)
		out[i*3] = float32(p.X)
		out[i*3+1] = float32(p.Y)
		out[i*3+2] = float32(p.Z)
	}
	return Success
}

// PointCloudHasNormals reports whether the cloud has a normal channel.
func PointCloudHasNormals(h Handle) bool {
	cloud, ok := pointClouds.get(h)
	return ok && cloud.HasNormals()
}

// PointCloudNormals fills out with packed normal floats; it must hold
// 3*count entries. Fails when the cloud has no normals.
func PointCloudNormals(h Handle, out []float32) Code {
	cloud, ok := pointClouds.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if !cloud.HasNormals() {
		return fail(pointcloud.ErrNoNormals)
	}
	if len(out) < cloud.Size()*3 {
		return failParam(errors.Errorf("output buffer holds %d floats, need %d", len(out), cloud.Size()*3))
	}
	for i := 0; i < cloud.Size(); i++ {
		n := cloud.Normal(i)
		out[i*3] = float32(n.X)
		out[i*3+1] = float32(n.Y)
		out[i*3+2] = float32(n.Z)
	}
	return Success
}

// PointCloudEstimateNormalsKNN estimates normals over k nearest neighbors.
func PointCloudEstimateNormalsKNN(h Handle, k int) Code {
	cloud, ok := pointClouds.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if k <= 0 {
		return failParam(errors.Errorf("k must be positive, got %d", k))
	}
	if err := cloud.EstimateNormalsKNN(k); err != nil {
		return fail(err)
	}
	return Success
}

// PointCloudEstimateNormalsRadius estimates normals over a radius
// neighborhood.
func PointCloudEstimateNormalsRadius(h Handle, radius float64) Code {
	cloud, ok := pointClouds.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if radius <= 0 {
		return failParam(errors.Errorf("radius must be positive, got %v", radius))
	}
	if err := cloud.EstimateNormalsRadius(radius); err != nil {
		return fail(err)
	}
	return Success
}

// PointCloudOrientNormals flips normals toward the given viewpoint.
func PointCloudOrientNormals(h Handle, x, y, z float64) Code {
	cloud, ok := pointClouds.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	cloud.OrientNormalsTowards(r3.Vector{X: x, Y: y, Z: z})
	return Success
}

// PointCloudDownsampleVoxel keeps one centroid point per occupied cube of
// the given side.
func PointCloudDownsampleVoxel(h Handle, size float64) Code {
	cloud, ok := pointClouds.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if size <= 0 {
		return failParam(errors.Errorf("voxel size must be positive, got %v", size))
	}
	if err := cloud.DownsampleVoxel(size); err != nil {
		return fail(err)
	}
	return Success
}

// PointCloudRemoveOutliers drops statistical outliers by mean neighbor
// distance.
func PointCloudRemoveOutliers(h Handle, neighbors int, stdRatio float64) Code {
	cloud, ok := pointClouds.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if neighbors <= 0 || stdRatio <= 0 {
		return failParam(errors.Errorf("neighbors %d and std ratio %v must be positive", neighbors, stdRatio))
	}
	if err := cloud.RemoveStatisticalOutliers(neighbors, stdRatio); err != nil {
		return fail(err)
	}
	return Success
}
