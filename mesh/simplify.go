package mesh

import (
	"sort"

	"github.com/golang/geo/r3"
)

// quadric is a symmetric 4x4 error quadric stored as its upper triangle:
// a2 ab ac ad / b2 bc bd / c2 cd / d2 for the plane ax+by+cz+d=0.
type quadric [10]float64

func (q *quadric) addPlane(n r3.Vector, d float64) {
	q[0] += n.X * n.X
	q[1] += n.X * n.Y
	q[2] += n.X * n.Z
	q[3] += n.X * d
	q[4] += n.Y * n.Y
	q[5] += n.Y * n.Z
	q[6] += n.Y * d
	q[7] += n.Z * n.Z
	q[8] += n.Z * d
	q[9] += d * d
}

func (q *quadric) add(o *quadric) {
	for i := range q {
		q[i] += o[i]
	}
}

// evaluate returns v^T Q v, the squared distance integral of v against the
// accumulated planes.
func (q *quadric) evaluate(v r3.Vector) float64 {
	return q[0]*v.X*v.X + 2*q[1]*v.X*v.Y + 2*q[2]*v.X*v.Z + 2*q[3]*v.X +
		q[4]*v.Y*v.Y + 2*q[5]*v.Y*v.Z + 2*q[6]*v.Y +
		q[7]*v.Z*v.Z + 2*q[8]*v.Z +
		q[9]
}

// Simplify decimates the mesh toward targetRatio x the current triangle
// count using quadric-error edge collapse: each candidate edge is scored by
// the combined endpoint quadrics evaluated at the edge midpoint, and cheap
// edges collapse first. Ratios outside (0,1) are a no-op. The result has at
// most the requested triangle count; exact triangle identity is not
// promised.
func (m *Mesh) Simplify(targetRatio float64) error {
	if targetRatio <= 0 || targetRatio >= 1 || len(m.triangles) == 0 {
		return nil
	}
	target := int(float64(len(m.triangles)) * targetRatio)
	if target < 1 {
		target = 1
	}

	// Union-find over vertices; collapsed vertices forward to their
	// survivor.
	parent := make([]int, len(m.vertices))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(v int) int {
		for parent[v] != v {
			parent[v] = parent[parent[v]]
			v = parent[v]
		}
		return v
	}

	for len(m.triangles) > target {
		quadrics := make([]quadric, len(m.vertices))
		for _, tri := range m.triangles {
			a, b, c := m.vertices[tri[0]], m.vertices[tri[1]], m.vertices[tri[2]]
			n := b.Sub(a).Cross(c.Sub(a))
			n = unitOr(n, r3.Vector{})
			d := -n.Dot(a)
			for _, v := range tri {
				quadrics[v].addPlane(n, d)
			}
		}

		type candidate struct {
			a, b int
			cost float64
		}
		seen := map[[2]int]bool{}
		var candidates []candidate
		for _, tri := range m.triangles {
			for e := 0; e < 3; e++ {
				a, b := tri[e], tri[(e+1)%3]
				if a > b {
					a, b = b, a
				}
				key := [2]int{a, b}
				if seen[key] {
					continue
				}
				seen[key] = true
				var q quadric
				q = quadrics[a]
				q.add(&quadrics[b])
				mid := m.vertices[a].Add(m.vertices[b]).Mul(0.5)
				candidates = append(candidates, candidate{a, b, q.evaluate(mid)})
			}
		}
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].cost != candidates[j].cost {
				return candidates[i].cost < candidates[j].cost
			}
			if candidates[i].a != candidates[j].a {
				return candidates[i].a < candidates[j].a
			}
			return candidates[i].b < candidates[j].b
		})

		// Collapse an independent set of the cheapest edges: each vertex
		// participates in at most one collapse per pass so quadrics stay
		// honest.
		removed := len(m.triangles) - target
		touched := make([]bool, len(m.vertices))
		collapsed := 0
		for _, cand := range candidates {
			if collapsed*2 >= removed {
				break
			}
			if touched[cand.a] || touched[cand.b] {
				continue
			}
			touched[cand.a], touched[cand.b] = true, true
			parent[cand.b] = cand.a
			m.vertices[cand.a] = m.vertices[cand.a].Add(m.vertices[cand.b]).Mul(0.5)
			m.normals[cand.a] = unitOr(m.normals[cand.a].Add(m.normals[cand.b]), m.normals[cand.a])
			if m.densities != nil {
				m.densities[cand.a] = minf(m.densities[cand.a], m.densities[cand.b])
			}
			collapsed++
		}
		if collapsed == 0 {
			break
		}

		// Drop triangles degenerated by the collapses.
		kept := m.triangles[:0]
		for _, tri := range m.triangles {
			a, b, c := find(tri[0]), find(tri[1]), find(tri[2])
			if a == b || b == c || a == c {
				continue
			}
			kept = append(kept, Triangle{a, b, c})
		}
		m.triangles = kept
	}

	m.compact()
	return nil
}

// compact drops vertices no triangle references and reindexes.
func (m *Mesh) compact() {
	used := make([]bool, len(m.vertices))
	for _, tri := range m.triangles {
		for _, v := range tri {
			used[v] = true
		}
	}
	remap := make([]int, len(m.vertices))
	newVertices := m.vertices[:0]
	newNormals := m.normals[:0]
	var newDensities []float64
	if m.densities != nil {
		newDensities = m.densities[:0]
	}
	for i := range used {
		if !used[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(newVertices)
		newVertices = append(newVertices, m.vertices[i])
		newNormals = append(newNormals, m.normals[i])
		if m.densities != nil {
			newDensities = append(newDensities, m.densities[i])
		}
	}
	for i, tri := range m.triangles {
		m.triangles[i] = Triangle{remap[tri[0]], remap[tri[1]], remap[tri[2]]}
	}
	m.vertices = newVertices
	m.normals = newNormals
	m.densities = newDensities
}
