package mesh

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/smr-robotics/weldcore/pointcloud"
)

// ReconstructionConfig controls indicator-field surface reconstruction.
type ReconstructionConfig struct {
	// Depth sets the grid resolution to 2^Depth nodes per axis. Valid
	// range [6, 12].
	Depth int
	// Scale expands the bounding box so each axis extent becomes
	// Scale x the original. Valid range [1.0, 1.5].
	Scale float64
	// Iso is the indicator level of the extracted surface.
	Iso float64
}

// DefaultReconstructionConfig returns the settings used by the pipeline
// when the caller has no opinion.
func DefaultReconstructionConfig() ReconstructionConfig {
	return ReconstructionConfig{Depth: 6, Scale: 1.2, Iso: 0}
}

const minAxisExtent = 1e-6

// indicatorGrid is a node-sampled scalar field over the expanded bounding
// box, with the per-node sample weight retained as a density estimate.
type indicatorGrid struct {
	res     int
	min     r3.Vector
	voxel   r3.Vector
	values  []float64
	weights []float64
}

func (g *indicatorGrid) index(i, j, k int) int {
	return (k*g.res+j)*g.res + i
}

// nodePos returns the world position of grid node (i,j,k).
func (g *indicatorGrid) nodePos(i, j, k int) r3.Vector {
	return r3.Vector{
		X: g.min.X + (float64(i)+0.5)*g.voxel.X,
		Y: g.min.Y + (float64(j)+0.5)*g.voxel.Y,
		Z: g.min.Z + (float64(k)+0.5)*g.voxel.Z,
	}
}

func clampIdx(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}

// gradient estimates the field gradient at node (i,j,k) by central
// differences, one-sided at the boundary.
func (g *indicatorGrid) gradient(i, j, k int) r3.Vector {
	lo, hi := clampIdx(i-1, g.res-1), clampIdx(i+1, g.res-1)
	gx := (g.values[g.index(hi, j, k)] - g.values[g.index(lo, j, k)]) / (float64(hi-lo) * g.voxel.X)
	lo, hi = clampIdx(j-1, g.res-1), clampIdx(j+1, g.res-1)
	gy := (g.values[g.index(i, hi, k)] - g.values[g.index(i, lo, k)]) / (float64(hi-lo) * g.voxel.Y)
	lo, hi = clampIdx(k-1, g.res-1), clampIdx(k+1, g.res-1)
	gz := (g.values[g.index(i, j, hi)] - g.values[g.index(i, j, lo)]) / (float64(hi-lo) * g.voxel.Z)
	return r3.Vector{X: gx, Y: gy, Z: gz}
}

// ReconstructSurface builds a triangle mesh approximating the oriented point
// set: the cloud's normals are splatted into a signed indicator field over a
// voxel grid and the iso-level surface is extracted with marching cubes.
// Vertex normals come from the negated field gradient; vertex density is the
// minimum sample weight of the supporting grid nodes.
func ReconstructSurface(cloud *pointcloud.PointCloud, cfg ReconstructionConfig) (*Mesh, error) {
	if cloud == nil || cloud.Size() == 0 {
		return nil, errors.New("reconstruction needs a non-empty point cloud")
	}
	if !cloud.HasNormals() {
		return nil, pointcloud.ErrNoNormals
	}
	if cfg.Depth < 6 || cfg.Depth > 12 {
		return nil, errors.Errorf("depth %d outside [6, 12]", cfg.Depth)
	}
	if cfg.Scale < 1.0 || cfg.Scale > 1.5 {
		return nil, errors.Errorf("scale %v outside [1.0, 1.5]", cfg.Scale)
	}

	grid := buildIndicatorGrid(cloud, cfg)
	m := marchGrid(grid, cfg.Iso)
	if m.VertexCount() == 0 {
		return nil, errors.New("reconstruction produced an empty surface")
	}
	return m, nil
}

func buildIndicatorGrid(cloud *pointcloud.PointCloud, cfg ReconstructionConfig) *indicatorGrid {
	meta := cloud.MetaData()
	min := r3.Vector{X: meta.MinX, Y: meta.MinY, Z: meta.MinZ}
	max := r3.Vector{X: meta.MaxX, Y: meta.MaxY, Z: meta.MaxZ}
	center := min.Add(max).Mul(0.5)
	extent := max.Sub(min)
	extent.X = maxf(extent.X, minAxisExtent) * cfg.Scale
	extent.Y = maxf(extent.Y, minAxisExtent) * cfg.Scale
	extent.Z = maxf(extent.Z, minAxisExtent) * cfg.Scale

	res := 1 << cfg.Depth
	g := &indicatorGrid{
		res:     res,
		min:     center.Sub(extent.Mul(0.5)),
		voxel:   extent.Mul(1 / float64(res)),
		values:  make([]float64, res*res*res),
		weights: make([]float64, res*res*res),
	}

	// Splat the signed projection (node - p) . n of each oriented point
	// into the 3x3x3 node neighborhood around its containing cell: the
	// field is negative on the inner side of the surface, positive on the
	// outer, and crosses zero at the samples.
	for idx := 0; idx < cloud.Size(); idx++ {
		p := cloud.Position(idx)
		n := cloud.Normal(idx)
		ci := clampIdx(int((p.X-g.min.X)/g.voxel.X), res-1)
		cj := clampIdx(int((p.Y-g.min.Y)/g.voxel.Y), res-1)
		ck := clampIdx(int((p.Z-g.min.Z)/g.voxel.Z), res-1)
		for dk := -1; dk <= 1; dk++ {
			for dj := -1; dj <= 1; dj++ {
				for di := -1; di <= 1; di++ {
					i, j, k := ci+di, cj+dj, ck+dk
					if i < 0 || i >= res || j < 0 || j >= res || k < 0 || k >= res {
						continue
					}
					at := g.index(i, j, k)
					g.values[at] += g.nodePos(i, j, k).Sub(p).Dot(n)
					g.weights[at]++
				}
			}
		}
	}
	for i, w := range g.weights {
		if w > 0 {
			g.values[i] /= w
		}
	}
	return g
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// cubeCorners lists the node offsets of a marching-cubes cell in table
// order: corners 0-3 on the low-z face, 4-7 above.
var cubeCorners = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

func marchGrid(g *indicatorGrid, iso float64) *Mesh {
	m := New()
	// Shared edge vertices are deduplicated by the node pair they span.
	edgeVertices := map[[2]int]int{}

	var cornerVal [8]float64
	var cornerNode [8][3]int
	for k := 0; k < g.res-1; k++ {
		for j := 0; j < g.res-1; j++ {
			for i := 0; i < g.res-1; i++ {
				cubeIndex := 0
				for c, off := range cubeCorners {
					ni, nj, nk := i+off[0], j+off[1], k+off[2]
					cornerNode[c] = [3]int{ni, nj, nk}
					cornerVal[c] = g.values[g.index(ni, nj, nk)]
					if cornerVal[c] < iso {
						cubeIndex |= 1 << c
					}
				}
				edges := edgeTable[cubeIndex]
				if edges == 0 {
					continue
				}

				var cellVertex [12]int
				for e := 0; e < 12; e++ {
					if edges&(1<<e) == 0 {
						continue
					}
					a, b := edgeCorners[e][0], edgeCorners[e][1]
					cellVertex[e] = m.edgeVertex(g, edgeVertices, cornerNode[a], cornerNode[b], cornerVal[a], cornerVal[b], iso)
				}

				row := triTable[cubeIndex]
				for t := 0; row[t] != -1; t += 3 {
					a := cellVertex[row[t]]
					b := cellVertex[row[t+1]]
					c := cellVertex[row[t+2]]
					if a == b || b == c || a == c {
						continue
					}
					m.triangles = append(m.triangles, Triangle{a, b, c})
				}
			}
		}
	}
	return m
}

// edgeVertex returns the index of the interpolated vertex on the grid edge
// between nodes na and nb, creating it on first use.
func (m *Mesh) edgeVertex(g *indicatorGrid, cache map[[2]int]int, na, nb [3]int, va, vb, iso float64) int {
	ia := g.index(na[0], na[1], na[2])
	ib := g.index(nb[0], nb[1], nb[2])
	key := [2]int{ia, ib}
	if ia > ib {
		key = [2]int{ib, ia}
	}
	if idx, ok := cache[key]; ok {
		return idx
	}

	t := 0.5
	if denom := vb - va; denom != 0 {
		t = (iso - va) / denom
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}

	pa := g.nodePos(na[0], na[1], na[2])
	pb := g.nodePos(nb[0], nb[1], nb[2])
	pos := pa.Add(pb.Sub(pa).Mul(t))

	ga := g.gradient(na[0], na[1], na[2])
	gb := g.gradient(nb[0], nb[1], nb[2])
	normal := unitOr(ga.Add(gb.Sub(ga).Mul(t)).Mul(-1), r3.Vector{Z: 1})

	density := minf(g.weights[ia], g.weights[ib])

	idx := m.AddVertex(pos, normal, density)
	cache[key] = idx
	return idx
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
