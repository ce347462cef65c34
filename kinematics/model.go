// Package kinematics models a six-joint serial manipulator from its
// Denavit-Hartenberg parameters and provides forward kinematics, the
// geometric Jacobian, manipulability measures and damped-least-squares
// inverse kinematics.
package kinematics

import (
	_ "embed"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/smr-robotics/weldcore/spatialmath"
)

// NumJoints is the chain length every model in this package has.
const NumJoints = 6

// DHParam is one joint's Denavit-Hartenberg row: link length a, link twist
// alpha, link offset d and a constant joint angle offset, meters/radians.
type DHParam struct {
	A           float64 `json:"a"`
	Alpha       float64 `json:"alpha"`
	D           float64 `json:"d"`
	ThetaOffset float64 `json:"theta_offset"`
}

// JointLimit bounds one joint's angle, velocity and acceleration.
type JointLimit struct {
	Min             float64 `json:"min"`
	Max             float64 `json:"max"`
	MaxVelocity     float64 `json:"max_velocity"`
	MaxAcceleration float64 `json:"max_acceleration"`
}

// Preset names a robot model shipped with the core.
type Preset string

// The shipped robot presets.
const (
	PresetUR5         = Preset("UR5")
	PresetUR10        = Preset("UR10")
	PresetKukaKR6R700 = Preset("KUKA KR6 R700")
	PresetDoosanM1013 = Preset("Doosan M1013")
)

// Model is an immutable six-joint serial chain.
type Model struct {
	name   string
	dh     [NumJoints]DHParam
	limits [NumJoints]JointLimit
}

//go:embed presets.json
var presetsJSON []byte

type presetFile struct {
	Models []presetConfig `json:"models"`
}

type presetConfig struct {
	Name     string           `json:"name"`
	DHParams []presetDHConfig `json:"dhParams"`
}

// presetDHConfig flattens a DH row and its joint limits into one JSON
// object, the layout presets.json uses.
type presetDHConfig struct {
	DHParam
	JointLimit
}

var presets = mustParsePresets()

func mustParsePresets() map[Preset]*Model {
	var file presetFile
	if err := json.Unmarshal(presetsJSON, &file); err != nil {
		panic(errors.Wrap(err, "embedded robot presets"))
	}
	out := make(map[Preset]*Model, len(file.Models))
	for _, cfg := range file.Models {
		if len(cfg.DHParams) != NumJoints {
			panic(errors.Errorf("preset %q has %d joints, want %d", cfg.Name, len(cfg.DHParams), NumJoints))
		}
		m := &Model{name: cfg.Name}
		for i, row := range cfg.DHParams {
			m.dh[i] = row.DHParam
			m.limits[i] = row.JointLimit
		}
		out[Preset(cfg.Name)] = m
	}
	return out
}

// NewPresetModel returns the shipped model for the given preset.
func NewPresetModel(p Preset) (*Model, error) {
	m, ok := presets[p]
	if !ok {
		return nil, errors.Errorf("unknown robot preset %q", p)
	}
	// Presets are shared; hand out a copy so the immutability promise
	// holds even against unsafe callers.
	cp := *m
	return &cp, nil
}

// NewCustomModel builds a model from caller-supplied DH parameters and
// joint limits.
func NewCustomModel(name string, dh [NumJoints]DHParam, limits [NumJoints]JointLimit) *Model {
	return &Model{name: name, dh: dh, limits: limits}
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.name
}

// DH returns the DH row of joint i.
func (m *Model) DH(i int) DHParam {
	return m.dh[i]
}

// Limit returns the joint limit of joint i.
func (m *Model) Limit(i int) JointLimit {
	return m.limits[i]
}

func (m *Model) checkJointCount(joints []float64) error {
	if len(joints) != NumJoints {
		return errors.Errorf("got %d joint angles, want %d", len(joints), NumJoints)
	}
	return nil
}

// Transform computes the tool pose for the given joint angles: the product
// of the six DH link transforms.
func (m *Model) Transform(joints []float64) (*spatialmath.Transform, error) {
	if err := m.checkJointCount(joints); err != nil {
		return nil, err
	}
	result := spatialmath.NewTransform()
	for i := 0; i < NumJoints; i++ {
		link := spatialmath.NewTransformFromDH(m.dh[i].A, m.dh[i].Alpha, m.dh[i].D, joints[i]+m.dh[i].ThetaOffset)
		result = result.Mul(link)
	}
	return result, nil
}

// jointTransforms returns the cumulative transforms T^0..T^6 with T^0 = I.
func (m *Model) jointTransforms(joints []float64) [NumJoints + 1]*spatialmath.Transform {
	var out [NumJoints + 1]*spatialmath.Transform
	out[0] = spatialmath.NewTransform()
	for i := 0; i < NumJoints; i++ {
		link := spatialmath.NewTransformFromDH(m.dh[i].A, m.dh[i].Alpha, m.dh[i].D, joints[i]+m.dh[i].ThetaOffset)
		out[i+1] = out[i].Mul(link)
	}
	return out
}

// CheckJointLimits reports whether every joint angle lies within its limit.
func (m *Model) CheckJointLimits(joints []float64) bool {
	if len(joints) != NumJoints {
		return false
	}
	for i, v := range joints {
		if v < m.limits[i].Min || v > m.limits[i].Max {
			return false
		}
	}
	return true
}

func (m *Model) clampToLimits(joints []float64) {
	for i := range joints {
		if joints[i] < m.limits[i].Min {
			joints[i] = m.limits[i].Min
		} else if joints[i] > m.limits[i].Max {
			joints[i] = m.limits[i].Max
		}
	}
}
