package pointcloud

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// radiusFallbackK is the neighborhood size used when a radius query yields
// too few points to fit a plane.
const radiusFallbackK = 20

// EstimateNormalsKNN estimates a normal for every point from the PCA of its
// k nearest other points: the normal is the eigenvector of the smallest
// eigenvalue of the neighborhood covariance. Degenerate neighborhoods fall
// back to (0,0,1). The operation is a no-op when k exceeds the number of
// other points.
func (cloud *PointCloud) EstimateNormalsKNN(k int) error {
	if k < 1 {
		return errors.Errorf("k must be at least 1, got %d", k)
	}
	n := cloud.Size()
	if k > n-1 {
		return nil
	}

	index := newNeighborIndex(cloud.positions)
	normals := make([]r3.Vector, n)
	for i := range cloud.positions {
		nbs := index.kNearest(cloud.positions[i], k, i)
		normals[i] = pcaNormal(cloud.positions, nbs)
	}
	cloud.normals = normals
	return nil
}

// EstimateNormalsRadius estimates normals from all neighbors within radius
// of each point. Neighborhoods with fewer than three members reuse the k-NN
// procedure with k=20.
func (cloud *PointCloud) EstimateNormalsRadius(radius float64) error {
	if radius <= 0 {
		return errors.Errorf("radius must be positive, got %v", radius)
	}
	n := cloud.Size()
	if n == 0 {
		return nil
	}

	fallbackK := radiusFallbackK
	if fallbackK > n-1 {
		fallbackK = n - 1
	}

	index := newNeighborIndex(cloud.positions)
	normals := make([]r3.Vector, n)
	for i := range cloud.positions {
		nbs := index.withinRadius(cloud.positions[i], radius, i)
		if len(nbs) < 3 {
			if fallbackK < 1 {
				normals[i] = r3.Vector{Z: 1}
				continue
			}
			nbs = index.kNearest(cloud.positions[i], fallbackK, i)
		}
		normals[i] = pcaNormal(cloud.positions, nbs)
	}
	cloud.normals = normals
	return nil
}

// OrientNormalsTowards flips every normal whose direction points away from
// the given viewpoint. This is a viewpoint alignment, not a surface
// propagation; without normals it is a no-op.
func (cloud *PointCloud) OrientNormalsTowards(viewpoint r3.Vector) {
	if cloud.normals == nil {
		return
	}
	for i, p := range cloud.positions {
		if viewpoint.Sub(p).Dot(cloud.normals[i]) < 0 {
			cloud.normals[i] = cloud.normals[i].Mul(-1)
		}
	}
}

// pcaNormal fits a plane to the given neighborhood and returns its unit
// normal, (0,0,1) when the neighborhood is degenerate.
func pcaNormal(positions []r3.Vector, neighborhood []int) r3.Vector {
	fallback := r3.Vector{Z: 1}
	if len(neighborhood) == 0 {
		return fallback
	}

	centroid := r3.Vector{}
	for _, j := range neighborhood {
		centroid = centroid.Add(positions[j])
	}
	centroid = centroid.Mul(1 / float64(len(neighborhood)))

	var cov [6]float64 // xx, xy, xz, yy, yz, zz
	for _, j := range neighborhood {
		d := positions[j].Sub(centroid)
		cov[0] += d.X * d.X
		cov[1] += d.X * d.Y
		cov[2] += d.X * d.Z
		cov[3] += d.Y * d.Y
		cov[4] += d.Y * d.Z
		cov[5] += d.Z * d.Z
	}
	// Coincident points leave no direction to fit.
	if cov[0]+cov[3]+cov[5] < 1e-24 {
		return fallback
	}

	sym := mat.NewSymDense(3, []float64{
		cov[0], cov[1], cov[2],
		cov[1], cov[3], cov[4],
		cov[2], cov[4], cov[5],
	})
	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return fallback
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Eigenvalues come back in ascending order; column 0 is the direction of
	// least variance.
	normal := r3.Vector{X: vecs.At(0, 0), Y: vecs.At(1, 0), Z: vecs.At(2, 0)}
	return unitOr(normal, fallback)
}
