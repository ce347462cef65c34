package capi

import (
	"github.com/pkg/errors"

	"github.com/smr-robotics/weldcore/kinematics"
	"github.com/smr-robotics/weldcore/spatialmath"
)

var robots registry[*kinematics.Model]

// RobotType selects a shipped robot preset.
type RobotType int32

// The shipped robot types.
const (
	RobotUR5 RobotType = iota
	RobotUR10
	RobotKukaKR6R700
	RobotDoosanM1013
	RobotCustom RobotType = 99
)

func (t RobotType) preset() (kinematics.Preset, bool) {
	switch t {
	case RobotUR5:
		return kinematics.PresetUR5, true
	case RobotUR10:
		return kinematics.PresetUR10, true
	case RobotKukaKR6R700:
		return kinematics.PresetKukaKR6R700, true
	case RobotDoosanM1013:
		return kinematics.PresetDoosanM1013, true
	default:
		return "", false
	}
}

// CreateRobot builds a preset robot model. Unknown types fall back to UR5,
// matching the original ABI.
func CreateRobot(t RobotType) Handle {
	preset, ok := t.preset()
	if !ok {
		preset = kinematics.PresetUR5
	}
	m, err := kinematics.NewPresetModel(preset)
	if err != nil {
		setLastError(err.Error())
		return NilHandle
	}
	return robots.add(m)
}

// CreateRobotCustom builds a robot model from caller-supplied DH rows and
// limits.
func CreateRobotCustom(dh [kinematics.NumJoints]kinematics.DHParam, limits [kinematics.NumJoints]kinematics.JointLimit) Handle {
	return robots.add(kinematics.NewCustomModel("custom", dh, limits))
}

// DestroyRobot releases the model. Stale or nil handles are ignored.
func DestroyRobot(h Handle) {
	robots.remove(h)
}

// RobotForwardKinematics writes the row-major tool transform for the given
// six joint angles.
func RobotForwardKinematics(h Handle, joints []float64, out *[16]float64) Code {
	m, ok := robots.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if out == nil {
		return failParam(errors.New("nil output transform"))
	}
	pose, err := m.Transform(joints)
	if err != nil {
		return failParam(err)
	}
	*out = pose.RowMajor()
	return Success
}

// RobotInverseKinematics runs the fixed seed panel against the row-major
// target and writes up to 8 distinct solutions into outSolutions (6 angles
// each, so at least 48 entries). The count written lands in outCount.
func RobotInverseKinematics(h Handle, target [16]float64, outSolutions []float64, outCount *int) Code {
	m, ok := robots.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if outCount == nil {
		return failParam(errors.New("nil output count"))
	}
	*outCount = 0
	if len(outSolutions) < 8*kinematics.NumJoints {
		return failParam(errors.Errorf("solution buffer holds %d values, need %d", len(outSolutions), 8*kinematics.NumJoints))
	}

	solutions, err := m.SolveAll(spatialmath.NewTransformFromRowMajor(target))
	if err != nil {
		return fail(err)
	}
	for i, sol := range solutions {
		copy(outSolutions[i*kinematics.NumJoints:], sol)
	}
	*outCount = len(solutions)
	return Success
}

// RobotIKNearest runs damped-least-squares IK from the caller's reference
// configuration and writes the solution.
func RobotIKNearest(h Handle, target [16]float64, reference, out []float64) Code {
	m, ok := robots.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if len(out) < kinematics.NumJoints {
		return failParam(errors.Errorf("output buffer holds %d angles, need %d", len(out), kinematics.NumJoints))
	}
	sol, err := m.SolveNearest(spatialmath.NewTransformFromRowMajor(target), reference)
	if err != nil {
		if errors.Is(err, kinematics.ErrNoSolution) {
			return fail(err)
		}
		return failParam(err)
	}
	copy(out, sol)
	return Success
}

// RobotJacobian writes the 6x6 row-major geometric Jacobian.
func RobotJacobian(h Handle, joints []float64, out *[36]float64) Code {
	m, ok := robots.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if out == nil {
		return failParam(errors.New("nil output jacobian"))
	}
	jac, err := m.Jacobian(joints)
	if err != nil {
		return failParam(err)
	}
	for r := 0; r < 6; r++ {
		for c := 0; c < 6; c++ {
			out[r*6+c] = jac.At(r, c)
		}
	}
	return Success
}

// RobotManipulability returns sqrt(det(J J^T)), -1 for bad arguments.
func RobotManipulability(h Handle, joints []float64) float64 {
	m, ok := robots.get(h)
	if !ok {
		return -1
	}
	w, err := m.Manipulability(joints)
	if err != nil {
		setLastError(err.Error())
		return -1
	}
	return w
}

// RobotCheckJointLimits reports whether the configuration is within limits;
// false for bad handles.
func RobotCheckJointLimits(h Handle, joints []float64) bool {
	m, ok := robots.get(h)
	return ok && m.CheckJointLimits(joints)
}
