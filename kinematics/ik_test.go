package kinematics

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/smr-robotics/weldcore/spatialmath"
)

func TestSolveNearestRoundTrip(t *testing.T) {
	m := ur5(t)
	joints := []float64{0.3, -1.0, 1.2, -0.4, 0.5, -0.2}
	target, err := m.Transform(joints)
	test.That(t, err, test.ShouldBeNil)

	sol, err := m.SolveNearest(target, joints)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, jointDistance(sol, joints), test.ShouldBeLessThan, 1e-3)
	test.That(t, m.CheckJointLimits(sol), test.ShouldBeTrue)

	// Forward kinematics of the solution reproduces the target pose.
	pose, err := m.Transform(sol)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Position().Sub(target.Position()).Norm(), test.ShouldBeLessThan, 1e-3)
	for i := 0; i < 3; i++ {
		diff := pose.RotationColumn(i).Sub(target.RotationColumn(i)).Norm()
		test.That(t, diff, test.ShouldBeLessThan, 0.05)
	}
}

func TestSolveNearestBadSeed(t *testing.T) {
	m := ur5(t)
	target, err := m.Transform(make([]float64, NumJoints))
	test.That(t, err, test.ShouldBeNil)
	_, err = m.SolveNearest(target, []float64{0})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSolveAllUnreachable(t *testing.T) {
	m := ur5(t)
	// Ten meters out is far beyond the arm's reach.
	far := spatialmath.NewTransformFromRowMajor([16]float64{
		1, 0, 0, 10,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	_, err := m.SolveAll(far)
	test.That(t, errors.Is(err, ErrNoSolution), test.ShouldBeTrue)

	_, err = m.SolveNearest(far, StartSeed())
	test.That(t, errors.Is(err, ErrNoSolution), test.ShouldBeTrue)
}

func TestSolveAllReachable(t *testing.T) {
	m := ur5(t)
	// A pose generated from a panel seed is reachable from that seed.
	target, err := m.Transform(StartSeed())
	test.That(t, err, test.ShouldBeNil)

	solutions, err := m.SolveAll(target)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(solutions), test.ShouldBeGreaterThan, 0)
	test.That(t, len(solutions), test.ShouldBeLessThanOrEqualTo, 8)
	for _, sol := range solutions {
		test.That(t, m.CheckJointLimits(sol), test.ShouldBeTrue)
	}
	// Distinct solutions are separated by the dedup threshold.
	for i := 0; i < len(solutions); i++ {
		for j := i + 1; j < len(solutions); j++ {
			test.That(t, jointDistance(solutions[i], solutions[j]),
				test.ShouldBeGreaterThanOrEqualTo, solutionDedupThreshold)
		}
	}
}

func TestSeedPanelShape(t *testing.T) {
	test.That(t, len(ikSeedPanel), test.ShouldEqual, 8)
	// The last panel entry is the all-zero configuration.
	test.That(t, ikSeedPanel[7], test.ShouldResemble, [NumJoints]float64{})
}
