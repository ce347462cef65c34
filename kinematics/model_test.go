package kinematics

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func ur5(t *testing.T) *Model {
	t.Helper()
	m, err := NewPresetModel(PresetUR5)
	test.That(t, err, test.ShouldBeNil)
	return m
}

func TestPresets(t *testing.T) {
	for _, p := range []Preset{PresetUR5, PresetUR10, PresetKukaKR6R700, PresetDoosanM1013} {
		m, err := NewPresetModel(p)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, m.Name(), test.ShouldEqual, string(p))
	}
	_, err := NewPresetModel("PR2")
	test.That(t, err, test.ShouldNotBeNil)

	// Spot-check shipped values.
	m := ur5(t)
	test.That(t, m.DH(0).D, test.ShouldAlmostEqual, 0.089159, 1e-12)
	test.That(t, m.DH(1).A, test.ShouldAlmostEqual, -0.425, 1e-12)
	test.That(t, m.Limit(3).MaxVelocity, test.ShouldAlmostEqual, 6.28, 1e-12)
}

func TestCustomModel(t *testing.T) {
	var dh [NumJoints]DHParam
	var limits [NumJoints]JointLimit
	for i := range dh {
		dh[i] = DHParam{D: 0.1}
		limits[i] = JointLimit{Min: -1, Max: 1}
	}
	m := NewCustomModel("test-arm", dh, limits)
	pose, err := m.Transform(make([]float64, NumJoints))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Position().Z, test.ShouldAlmostEqual, 0.6, 1e-12)
}

func TestUR5HomePose(t *testing.T) {
	m := ur5(t)
	joints := []float64{0, -math.Pi / 2, math.Pi / 2, 0, 0, 0}
	pose, err := m.Transform(joints)
	test.That(t, err, test.ShouldBeNil)

	// Link offsets d1+d4+d5 stack along z in this configuration.
	test.That(t, pose.Position().Z, test.ShouldAlmostEqual, 0.29296, 1e-3)

	// The rotation block stays orthonormal.
	for i := 0; i < 3; i++ {
		ci := pose.RotationColumn(i)
		test.That(t, ci.Norm(), test.ShouldAlmostEqual, 1, 1e-9)
		for j := i + 1; j < 3; j++ {
			test.That(t, ci.Dot(pose.RotationColumn(j)), test.ShouldAlmostEqual, 0, 1e-9)
		}
	}
}

func TestTransformJointCount(t *testing.T) {
	m := ur5(t)
	_, err := m.Transform([]float64{0, 0, 0})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCheckJointLimits(t *testing.T) {
	m := ur5(t)
	test.That(t, m.CheckJointLimits(make([]float64, NumJoints)), test.ShouldBeTrue)
	test.That(t, m.CheckJointLimits([]float64{7, 0, 0, 0, 0, 0}), test.ShouldBeFalse)
	test.That(t, m.CheckJointLimits([]float64{0, 0}), test.ShouldBeFalse)

	kuka, err := NewPresetModel(PresetKukaKR6R700)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, kuka.CheckJointLimits([]float64{0, 2.6, 0, 0, 0, 0}), test.ShouldBeFalse)
}

func TestJacobianMatchesFiniteDifferences(t *testing.T) {
	m := ur5(t)
	joints := []float64{0.3, -1.0, 1.2, -0.4, 0.5, -0.2}
	jac, err := m.Jacobian(joints)
	test.That(t, err, test.ShouldBeNil)

	const h = 1e-7
	base, err := m.Transform(joints)
	test.That(t, err, test.ShouldBeNil)
	for i := 0; i < NumJoints; i++ {
		bumped := append([]float64(nil), joints...)
		bumped[i] += h
		pose, err := m.Transform(bumped)
		test.That(t, err, test.ShouldBeNil)
		dp := pose.Position().Sub(base.Position()).Mul(1 / h)
		test.That(t, jac.At(0, i), test.ShouldAlmostEqual, dp.X, 1e-5)
		test.That(t, jac.At(1, i), test.ShouldAlmostEqual, dp.Y, 1e-5)
		test.That(t, jac.At(2, i), test.ShouldAlmostEqual, dp.Z, 1e-5)
	}
}

func TestManipulability(t *testing.T) {
	m := ur5(t)

	elbow := []float64{0.3, -1.0, 1.2, -0.4, 0.5, -0.2}
	w, err := m.Manipulability(elbow)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, w, test.ShouldBeGreaterThan, 0)

	// A fully stretched arm is singular; the determinant form collapses
	// while the trace approximation does not.
	stretched := make([]float64, NumJoints)
	ws, err := m.Manipulability(stretched)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ws, test.ShouldBeLessThan, w)

	wt, err := m.ManipulabilityTrace(stretched)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, wt, test.ShouldBeGreaterThan, 0)
}
