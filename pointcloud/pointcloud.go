// Package pointcloud holds the scanned-surface representation the welding
// pipeline starts from: an ordered point set with optional parallel normal
// and color channels, plus the cleanup operations (normal estimation,
// orientation, voxel downsampling, outlier removal) that prepare a raw scan
// for surface reconstruction.
package pointcloud

import (
	"image/color"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrNoNormals is returned when an operation needs normals the cloud does
// not have.
var ErrNoNormals = errors.New("point cloud has no normals")

// MetaData tracks the axis-aligned bounds of the cloud as points are added.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData returns bounds ready to merge points into.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64, MaxX: -math.MaxFloat64,
		MinY: math.MaxFloat64, MaxY: -math.MaxFloat64,
		MinZ: math.MaxFloat64, MaxZ: -math.MaxFloat64,
	}
}

// Merge grows the bounds to include p.
func (meta *MetaData) Merge(p r3.Vector) {
	meta.MinX = math.Min(meta.MinX, p.X)
	meta.MaxX = math.Max(meta.MaxX, p.X)
	meta.MinY = math.Min(meta.MinY, p.Y)
	meta.MaxY = math.Max(meta.MaxY, p.Y)
	meta.MinZ = math.Min(meta.MinZ, p.Z)
	meta.MaxZ = math.Max(meta.MaxZ, p.Z)
}

// Diagonal returns the length of the bounding box diagonal, 0 for an empty
// cloud.
func (meta *MetaData) Diagonal() float64 {
	if meta.MinX > meta.MaxX {
		return 0
	}
	d := r3.Vector{X: meta.MaxX - meta.MinX, Y: meta.MaxY - meta.MinY, Z: meta.MaxZ - meta.MinZ}
	return d.Norm()
}

// PointCloud is an ordered collection of points with optional parallel
// normal and color channels. When a channel is present it has exactly one
// entry per point; every filtering operation keeps the channels aligned.
type PointCloud struct {
	positions []r3.Vector
	normals   []r3.Vector
	colors    []color.NRGBA
	meta      MetaData
}

// New returns an empty point cloud.
func New() *PointCloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty point cloud with capacity for size points.
func NewWithPrealloc(size int) *PointCloud {
	return &PointCloud{
		positions: make([]r3.Vector, 0, size),
		meta:      NewMetaData(),
	}
}

// Size returns the number of points.
func (cloud *PointCloud) Size() int {
	return len(cloud.positions)
}

// MetaData returns the current bounds.
func (cloud *PointCloud) MetaData() MetaData {
	return cloud.meta
}

// HasNormals reports whether a normal channel is present.
func (cloud *PointCloud) HasNormals() bool {
	return cloud.normals != nil
}

// HasColors reports whether a color channel is present.
func (cloud *PointCloud) HasColors() bool {
	return cloud.colors != nil
}

// Position returns the position of point i.
func (cloud *PointCloud) Position(i int) r3.Vector {
	return cloud.positions[i]
}

// Normal returns the normal of point i; the zero vector when the cloud has
// no normals.
func (cloud *PointCloud) Normal(i int) r3.Vector {
	if cloud.normals == nil {
		return r3.Vector{}
	}
	return cloud.normals[i]
}

// Color returns the color of point i.
func (cloud *PointCloud) Color(i int) color.NRGBA {
	if cloud.colors == nil {
		return color.NRGBA{}
	}
	return cloud.colors[i]
}

// Append adds a point. If normal or color channels exist, zero entries are
// appended to keep the channels parallel.
func (cloud *PointCloud) Append(p r3.Vector) {
	cloud.positions = append(cloud.positions, p)
	if cloud.normals != nil {
		cloud.normals = append(cloud.normals, r3.Vector{})
	}
	if cloud.colors != nil {
		cloud.colors = append(cloud.colors, color.NRGBA{})
	}
	cloud.meta.Merge(p)
}

// SetPoints replaces the cloud contents with the given positions, dropping
// any normal and color channels.
func (cloud *PointCloud) SetPoints(positions []r3.Vector) {
	cloud.Clear()
	cloud.positions = append(cloud.positions[:0], positions...)
	for _, p := range cloud.positions {
		cloud.meta.Merge(p)
	}
}

// SetNormals installs a normal channel. It must have one entry per point.
func (cloud *PointCloud) SetNormals(normals []r3.Vector) error {
	if len(normals) != len(cloud.positions) {
		return errors.Errorf("normal count %d does not match point count %d", len(normals), len(cloud.positions))
	}
	cloud.normals = append([]r3.Vector(nil), normals...)
	return nil
}

// SetColors installs a color channel. It must have one entry per point.
func (cloud *PointCloud) SetColors(colors []color.NRGBA) error {
	if len(colors) != len(cloud.positions) {
		return errors.Errorf("color count %d does not match point count %d", len(colors), len(cloud.positions))
	}
	cloud.colors = append([]color.NRGBA(nil), colors...)
	return nil
}

// Clear empties the cloud and drops all channels.
func (cloud *PointCloud) Clear() {
	cloud.positions = cloud.positions[:0]
	cloud.normals = nil
	cloud.colors = nil
	cloud.meta = NewMetaData()
}

// replace swaps in filtered parallel arrays and recomputes bounds. normals
// and colors may be nil when the corresponding channel is absent.
func (cloud *PointCloud) replace(positions, normals []r3.Vector, colors []color.NRGBA) {
	cloud.positions = positions
	cloud.normals = normals
	cloud.colors = colors
	cloud.meta = NewMetaData()
	for _, p := range positions {
		cloud.meta.Merge(p)
	}
}

func unitOr(v r3.Vector, fallback r3.Vector) r3.Vector {
	n := v.Norm()
	if n < 1e-12 {
		return fallback
	}
	return v.Mul(1 / n)
}
