package weldpath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/smr-robotics/weldcore/kinematics"
	"github.com/smr-robotics/weldcore/spatialmath"
)

// JointTrajectory is the joint-space rendering of a path: one six-joint
// configuration and one reachability flag per weld point. Unreachable steps
// hold zeros and make no continuity promise across them.
type JointTrajectory struct {
	Joints    [][]float64
	Reachable []bool
}

// Size returns the number of trajectory steps.
func (jt *JointTrajectory) Size() int {
	return len(jt.Joints)
}

// ToolFrame builds the tool-frame target for a weld point: the tool z axis
// points into the surface (-normal), x follows the travel tangent, y
// completes the right-handed frame, and the origin backs off the surface by
// the standoff along the normal.
func ToolFrame(wp WeldPoint, standoff float64) *spatialmath.Transform {
	z := wp.Normal.Mul(-1)
	x := wp.Tangent
	y := z.Cross(x)
	if y.Norm() < 1e-12 {
		// Tangent degenerate or parallel to the normal: pick any x
		// orthogonal to z.
		x = arbitraryOrthogonal(z)
		y = z.Cross(x)
	}
	y = unitOr(y, r3.Vector{Y: 1})
	x = y.Cross(z)

	origin := wp.Position.Sub(wp.Normal.Mul(standoff))
	return spatialmath.NewTransformFromFrame(x, y, z, origin)
}

func arbitraryOrthogonal(v r3.Vector) r3.Vector {
	ref := r3.Vector{X: 1}
	if v.Cross(ref).Norm() < 1e-6 {
		ref = r3.Vector{Y: 1}
	}
	return unitOr(v.Cross(ref), r3.Vector{X: 1})
}

// ToJointTrajectory walks the path in order, solving nearest-solution IK at
// every weld point with the previous solution as the seed. Failed steps are
// recorded as unreachable with zero joints and do not advance the seed. The
// robot model is borrowed for the call; neither value owns the other.
func (p *Path) ToJointTrajectory(model *kinematics.Model, standoff float64) (*JointTrajectory, error) {
	if model == nil {
		return nil, errors.New("trajectory conversion needs a robot model")
	}

	jt := &JointTrajectory{
		Joints:    make([][]float64, len(p.points)),
		Reachable: make([]bool, len(p.points)),
	}

	seed := kinematics.StartSeed()
	for i, wp := range p.points {
		target := ToolFrame(wp, standoff)
		sol, err := model.SolveNearest(target, seed)
		if err != nil {
			jt.Joints[i] = make([]float64, kinematics.NumJoints)
			continue
		}
		jt.Joints[i] = sol
		jt.Reachable[i] = true
		seed = sol
	}
	return jt, nil
}
