package kinematics

import (
	"math"

	"github.com/smr-robotics/weldcore/spatialmath"
)

// Damped-least-squares settings. The solver takes one damped transpose step
// per iteration and clamps to joint limits throughout.
const (
	dlsMaxIterations = 100
	dlsTolerance     = 1e-6
	dlsDamping       = 0.01
	// Orientation error is weighted down against position error.
	rotErrorWeight = 0.1
	// Solutions closer than this in joint space (radians, Euclidean) are
	// considered the same.
	solutionDedupThreshold = 0.1
)

// ikSeedPanel is the fixed set of start configurations SolveAll tries.
var ikSeedPanel = [8][NumJoints]float64{
	{0, -math.Pi / 2, math.Pi / 2, 0, 0, 0},
	{0, -math.Pi / 4, math.Pi / 4, 0, 0, 0},
	{math.Pi / 2, -math.Pi / 2, math.Pi / 2, 0, 0, 0},
	{-math.Pi / 2, -math.Pi / 2, math.Pi / 2, 0, 0, 0},
	{0, -math.Pi / 2, math.Pi / 2, math.Pi, 0, 0},
	{0, -3 * math.Pi / 4, 3 * math.Pi / 4, 0, 0, 0},
	{math.Pi, -math.Pi / 2, math.Pi / 2, 0, 0, 0},
	{0, 0, 0, 0, 0, 0},
}

// SolveNearest runs damped-least-squares IK from the given seed and returns
// the converged configuration, ErrNoSolution when the iteration budget runs
// out first. The result always respects joint limits.
func (m *Model) SolveNearest(target *spatialmath.Transform, seed []float64) ([]float64, error) {
	if err := m.checkJointCount(seed); err != nil {
		return nil, err
	}

	q := make([]float64, NumJoints)
	copy(q, seed)
	m.clampToLimits(q)

	targetPos := target.Position()
	for iter := 0; iter < dlsMaxIterations; iter++ {
		cur, err := m.Transform(q)
		if err != nil {
			return nil, err
		}

		posErr := targetPos.Sub(cur.Position())
		rotErr := crossError(cur.RotationColumn, target.RotationColumn).Mul(rotErrorWeight)
		e := [6]float64{posErr.X, posErr.Y, posErr.Z, rotErr.X, rotErr.Y, rotErr.Z}

		normSq := 0.0
		for _, v := range e {
			normSq += v * v
		}
		if normSq < dlsTolerance*dlsTolerance {
			return q, nil
		}

		j, err := m.Jacobian(q)
		if err != nil {
			return nil, err
		}
		dq := applyJacobianTranspose(j, e)
		for i := 0; i < NumJoints; i++ {
			q[i] += dlsDamping * dq[i]
		}
		m.clampToLimits(q)
	}
	return nil, ErrNoSolution
}

// SolveAll runs damped-least-squares IK from the fixed seed panel and
// returns the distinct solutions found, at most one per seed. Solutions
// within 0.1 rad of each other in joint space are deduplicated.
// ErrNoSolution when no seed converges.
func (m *Model) SolveAll(target *spatialmath.Transform) ([][]float64, error) {
	var solutions [][]float64
	for _, seed := range ikSeedPanel {
		sol, err := m.SolveNearest(target, seed[:])
		if err != nil {
			continue
		}
		duplicate := false
		for _, prev := range solutions {
			if jointDistance(prev, sol) < solutionDedupThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			solutions = append(solutions, sol)
		}
	}
	if len(solutions) == 0 {
		return nil, ErrNoSolution
	}
	return solutions, nil
}

// jointDistance returns the Euclidean distance between two configurations.
func jointDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// StartSeed returns the default start configuration used to seed trajectory
// conversion.
func StartSeed() []float64 {
	return []float64{0, -math.Pi / 2, math.Pi / 2, 0, 0, 0}
}
