package pointcloud

import (
	"sort"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Below this size a linear scan beats tree construction; queries stay exact
// either way.
const bruteForceThreshold = 2000

// indexedPoint carries its source index through the kd-tree so query results
// can be mapped back to cloud channels.
type indexedPoint struct {
	pos r3.Vector
	idx int
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	switch d {
	case 0:
		return p.pos.X - q.pos.X
	case 1:
		return p.pos.Y - q.pos.Y
	default:
		return p.pos.Z - q.pos.Z
	}
}

func (p indexedPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance; keepers below work in
// squared distances throughout.
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	d := p.pos.Sub(q.pos)
	return d.Dot(d)
}

// indexedPoints implements kdtree.Interface for tree construction.
type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p indexedPoints) Len() int                      { return len(p) }
func (p indexedPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

func (p indexedPoints) Pivot(d kdtree.Dim) int {
	return plane{Dim: d, indexedPoints: p}.Pivot()
}

type plane struct {
	kdtree.Dim
	indexedPoints
}

func (p plane) Less(i, j int) bool {
	a, b := p.indexedPoints[i].pos, p.indexedPoints[j].pos
	switch p.Dim {
	case 0:
		return a.X < b.X
	case 1:
		return a.Y < b.Y
	default:
		return a.Z < b.Z
	}
}

func (p plane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.indexedPoints = p.indexedPoints[start:end]
	return p
}

func (p plane) Swap(i, j int) {
	p.indexedPoints[i], p.indexedPoints[j] = p.indexedPoints[j], p.indexedPoints[i]
}

// neighborIndex answers exact k-nearest and radius queries over a frozen
// snapshot of positions. Results are sorted by distance with ties broken by
// ascending source index.
type neighborIndex struct {
	points indexedPoints
	tree   *kdtree.Tree
}

func newNeighborIndex(positions []r3.Vector) *neighborIndex {
	pts := make(indexedPoints, len(positions))
	for i, p := range positions {
		pts[i] = indexedPoint{pos: p, idx: i}
	}
	ni := &neighborIndex{points: pts}
	if len(pts) > bruteForceThreshold {
		// Tree construction reorders its input, so hand it a copy to keep
		// points addressable by index.
		treePts := make(indexedPoints, len(pts))
		copy(treePts, pts)
		ni.tree = kdtree.New(treePts, false)
	}
	return ni
}

type neighborHit struct {
	idx  int
	dist float64 // squared
}

func sortHits(hits []neighborHit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].idx < hits[j].idx
	})
}

// kNearest returns the indices of the k nearest points to q, nearest first.
// exclude removes one source index from consideration (pass -1 to keep all).
func (ni *neighborIndex) kNearest(q r3.Vector, k, exclude int) []int {
	if k <= 0 {
		return nil
	}
	want := k
	if exclude >= 0 {
		want++
	}
	if want > len(ni.points) {
		want = len(ni.points)
	}

	var hits []neighborHit
	if ni.tree != nil {
		keeper := kdtree.NewNKeeper(want)
		ni.tree.NearestSet(keeper, indexedPoint{pos: q, idx: -1})
		for _, cd := range keeper.Heap {
			if cd.Comparable == nil {
				continue
			}
			p := cd.Comparable.(indexedPoint)
			hits = append(hits, neighborHit{idx: p.idx, dist: cd.Dist})
		}
	} else {
		hits = make([]neighborHit, 0, len(ni.points))
		for _, p := range ni.points {
			d := p.pos.Sub(q)
			hits = append(hits, neighborHit{idx: p.idx, dist: d.Dot(d)})
		}
	}
	sortHits(hits)

	out := make([]int, 0, k)
	for _, h := range hits {
		if h.idx == exclude {
			continue
		}
		out = append(out, h.idx)
		if len(out) == k {
			break
		}
	}
	return out
}

// withinRadius returns the indices of all points within radius of q, nearest
// first. exclude removes one source index (pass -1 to keep all).
func (ni *neighborIndex) withinRadius(q r3.Vector, radius float64, exclude int) []int {
	if radius <= 0 {
		return nil
	}
	r2 := radius * radius

	var hits []neighborHit
	if ni.tree != nil {
		keeper := kdtree.NewDistKeeper(r2)
		ni.tree.NearestSet(keeper, indexedPoint{pos: q, idx: -1})
		for _, cd := range keeper.Heap {
			if cd.Comparable == nil || cd.Dist > r2 {
				continue
			}
			p := cd.Comparable.(indexedPoint)
			hits = append(hits, neighborHit{idx: p.idx, dist: cd.Dist})
		}
	} else {
		for _, p := range ni.points {
			d := p.pos.Sub(q)
			if d2 := d.Dot(d); d2 <= r2 {
				hits = append(hits, neighborHit{idx: p.idx, dist: d2})
			}
		}
	}
	sortHits(hits)

	out := make([]int, 0, len(hits))
	for _, h := range hits {
		if h.idx == exclude {
			continue
		}
		out = append(out, h.idx)
	}
	return out
}

// meanNeighborDistance returns the mean true distance from point i to its k
// nearest other points.
func (ni *neighborIndex) meanNeighborDistance(i, k int) float64 {
	nbs := ni.kNearest(ni.points[i].pos, k, i)
	if len(nbs) == 0 {
		return 0
	}
	sum := 0.0
	for _, j := range nbs {
		sum += ni.points[i].pos.Sub(ni.points[j].pos).Norm()
	}
	return sum / float64(len(nbs))
}
