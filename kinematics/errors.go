package kinematics

import "github.com/pkg/errors"

// ErrNoSolution is returned when inverse kinematics converges from no seed.
var ErrNoSolution = errors.New("no inverse kinematics solution found")

// ErrJointLimits is returned when a configuration violates joint limits.
var ErrJointLimits = errors.New("joint limits violated")

// ErrSingularity is returned when the Jacobian is too ill-conditioned to
// use.
var ErrSingularity = errors.New("manipulator is at or near a singularity")
