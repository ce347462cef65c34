package capi

import (
	"github.com/pkg/errors"

	"github.com/smr-robotics/weldcore/mesh"
)

var meshes registry[*mesh.Mesh]

// ReconstructionSettings mirrors the reconstruction parameter block of the
// handle ABI.
type ReconstructionSettings struct {
	// Depth is the grid resolution exponent, [6, 12].
	Depth int
	// Scale expands the bounding box, [1.0, 1.5].
	Scale float64
	// DensityQuantile in (0,1) trims low-density vertices after
	// extraction; outside that range nothing is trimmed.
	DensityQuantile float64
}

// MeshCreateFromPointCloud reconstructs a surface from an oriented point
// cloud, returning the mesh handle. NilHandle and a code on failure.
func MeshCreateFromPointCloud(pc Handle, settings ReconstructionSettings) (Handle, Code) {
	cloud, ok := pointClouds.get(pc)
	if !ok {
		return NilHandle, ErrInvalidHandle
	}
	cfg := mesh.ReconstructionConfig{Depth: settings.Depth, Scale: settings.Scale}
	m, err := mesh.ReconstructSurface(cloud, cfg)
	if err != nil {
		return NilHandle, fail(err)
	}
	if err := m.RemoveLowDensity(settings.DensityQuantile); err != nil {
		return NilHandle, fail(err)
	}
	return meshes.add(m), Success
}

// DestroyMesh releases the mesh. Stale or nil handles are ignored.
func DestroyMesh(h Handle) {
	meshes.remove(h)
}

// MeshVertexCount returns the vertex count, -1 for a bad handle.
func MeshVertexCount(h Handle) int {
	m, ok := meshes.get(h)
	if !ok {
		return -1
	}
	return m.VertexCount()
}

// MeshTriangleCount returns the triangle count, -1 for a bad handle.
func MeshTriangleCount(h Handle) int {
	m, ok := meshes.get(h)
	if !ok {
		return -1
	}
	return m.TriangleCount()
}

// MeshVertices fills out with packed vertex xyz floats; it must hold
// 3*vertexCount entries.
func MeshVertices(h Handle, out []float32) Code {
	m, ok := meshes.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if len(out) < m.VertexCount()*3 {
		return failParam(errors.Errorf("output buffer holds %d floats, need %d", len(out), m.VertexCount()*3))
	}
	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		out[i*3] = float32(v.X)
		out[i*3+1] = float32(v.Y)
		out[i*3+2] = float32(v.Z)
	}
	return Success
}

// MeshNormals fills out with packed vertex normal floats; it must hold
// 3*vertexCount entries.
func MeshNormals(h Handle, out []float32) Code {
	m, ok := meshes.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if len(out) < m.VertexCount()*3 {
		return failParam(errors.Errorf("output buffer holds %d floats, need %d", len(out), m.VertexCount()*3))
	}
	for i := 0; i < m.VertexCount(); i++ {
		n := m.Normal(i)
		out[i*3] = float32(n.X)
		out[i*3+1] = float32(n.Y)
		out[i*3+2] = float32(n.Z)
	}
	return Success
}

// MeshTriangles fills out with packed triangle indices; it must hold
// 3*triangleCount entries.
func MeshTriangles(h Handle, out []int32) Code {
	m, ok := meshes.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if len(out) < m.TriangleCount()*3 {
		return failParam(errors.Errorf("output buffer holds %d indices, need %d", len(out), m.TriangleCount()*3))
	}
	for i := 0; i < m.TriangleCount(); i++ {
		tri := m.TriangleAt(i)
		out[i*3] = int32(tri[0])
		out[i*3+1] = int32(tri[1])
		out[i*3+2] = int32(tri[2])
	}
	return Success
}

// MeshRemoveLowDensity trims vertices below the given density quantile.
func MeshRemoveLowDensity(h Handle, quantile float64) Code {
	m, ok := meshes.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if err := m.RemoveLowDensity(quantile); err != nil {
		return fail(err)
	}
	return Success
}

// MeshSimplify decimates toward targetRatio x the triangle count.
func MeshSimplify(h Handle, targetRatio float64) Code {
	m, ok := meshes.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if err := m.Simplify(targetRatio); err != nil {
		return fail(err)
	}
	return Success
}

// MeshSavePLY writes the mesh as ASCII PLY.
func MeshSavePLY(h Handle, path string) Code {
	m, ok := meshes.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if err := m.SavePLY(path); err != nil {
		return fail(err)
	}
	return Success
}

// MeshSaveOBJ writes the mesh as Wavefront OBJ.
func MeshSaveOBJ(h Handle, path string) Code {
	m, ok := meshes.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if err := m.SaveOBJ(path); err != nil {
		return fail(err)
	}
	return Success
}
