package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Jacobian computes the 6x6 geometric Jacobian at the given configuration:
// column i is (z_i x (p_e - p_i), z_i) with z_i the joint axis and p_i the
// joint origin in the base frame; linear rows on top, angular below.
func (m *Model) Jacobian(joints []float64) (*mat.Dense, error) {
	if err := m.checkJointCount(joints); err != nil {
		return nil, err
	}

	transforms := m.jointTransforms(joints)
	pe := transforms[NumJoints].Position()

	j := mat.NewDense(6, 6, nil)
	for i := 0; i < NumJoints; i++ {
		pi := transforms[i].Position()
		zi := transforms[i].RotationColumn(2)
		linear := zi.Cross(pe.Sub(pi))

		j.Set(0, i, linear.X)
		j.Set(1, i, linear.Y)
		j.Set(2, i, linear.Z)
		j.Set(3, i, zi.X)
		j.Set(4, i, zi.Y)
		j.Set(5, i, zi.Z)
	}
	return j, nil
}

// Manipulability returns the Yoshikawa measure sqrt(det(J J^T)). Near a
// singularity it approaches zero.
func (m *Model) Manipulability(joints []float64) (float64, error) {
	j, err := m.Jacobian(joints)
	if err != nil {
		return 0, err
	}
	var jjt mat.Dense
	jjt.Mul(j, j.T())
	det := mat.Det(&jjt)
	if det < 0 {
		det = 0
	}
	return math.Sqrt(det), nil
}

// ManipulabilityTrace returns the cheap trace approximation
// sqrt(trace(J J^T)/6). It does not vanish at singularities; use
// Manipulability for conditioning decisions.
func (m *Model) ManipulabilityTrace(joints []float64) (float64, error) {
	j, err := m.Jacobian(joints)
	if err != nil {
		return 0, err
	}
	var jjt mat.Dense
	jjt.Mul(j, j.T())
	trace := mat.Trace(&jjt)
	if trace < 0 {
		trace = 0
	}
	return math.Sqrt(trace / 6), nil
}

// applyJacobianTranspose returns dq = J^T * e without allocating gonum
// vectors in the inner IK loop.
func applyJacobianTranspose(j *mat.Dense, e [6]float64) [6]float64 {
	var dq [6]float64
	for i := 0; i < 6; i++ {
		sum := 0.0
		for row := 0; row < 6; row++ {
			sum += j.At(row, i) * e[row]
		}
		dq[i] = sum
	}
	return dq
}

// crossError accumulates the classic orientation error term between two
// rotation frames: 0.5 * sum of column cross products. It vanishes exactly
// when the frames agree.
func crossError(cur, target func(int) r3.Vector) r3.Vector {
	var sum r3.Vector
	for i := 0; i < 3; i++ {
		sum = sum.Add(cur(i).Cross(target(i)))
	}
	return sum.Mul(0.5)
}
