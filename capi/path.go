package capi

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/smr-robotics/weldcore/kinematics"
	"github.com/smr-robotics/weldcore/weldpath"
)

var paths registry[*weldpath.Path]

// WeldPointData is the packed weld-point layout of the handle ABI: position,
// normal, tangent and arc length as single-precision floats (40 bytes).
type WeldPointData struct {
	Position  [3]float32
	Normal    [3]float32
	Tangent   [3]float32
	ArcLength float32
}

// PathParams mirrors the path parameter block of the handle ABI.
type PathParams struct {
	StepSize         float32
	StandoffDistance float32
	ApproachAngle    float32
	TravelAngle      float32
	WeaveType        int32
	WeaveAmplitude   float32
	WeaveFrequency   float32
}

func (p PathParams) toParams() weldpath.Params {
	return weldpath.Params{
		StepSize:         float64(p.StepSize),
		StandoffDistance: float64(p.StandoffDistance),
		ApproachAngle:    float64(p.ApproachAngle),
		TravelAngle:      float64(p.TravelAngle),
		WeaveKind:        weldpath.WeaveKind(p.WeaveType),
		WeaveAmplitude:   float64(p.WeaveAmplitude),
		WeaveFrequency:   float64(p.WeaveFrequency),
	}
}

// PathCreateFromPoints builds a path over packed position and normal
// buffers (3 floats per point each). NilHandle on bad arguments.
func PathCreateFromPoints(points, normals []float32, params PathParams) Handle {
	if len(points) == 0 || len(points)%3 != 0 || len(normals) != len(points) {
		setLastError("point and normal buffers must be equal positive multiples of 3")
		return NilHandle
	}
	n := len(points) / 3
	positions := make([]r3.Vector, n)
	normalVecs := make([]r3.Vector, n)
	for i := 0; i < n; i++ {
		positions[i] = r3.Vector{X: float64(points[i*3]), Y: float64(points[i*3+1]), Z: float64(points[i*3+2])}
		normalVecs[i] = r3.Vector{X: float64(normals[i*3]), Y: float64(normals[i*3+1]), Z: float64(normals[i*3+2])}
	}
	p, err := weldpath.NewPathFromPoints(positions, normalVecs, params.toParams())
	if err != nil {
		setLastError(err.Error())
		return NilHandle
	}
	return paths.add(p)
}

// PathCreateFromMeshBoundary builds a path along the boundary polyline of a
// reconstructed mesh. NilHandle on failure.
func PathCreateFromMeshBoundary(meshHandle Handle, params PathParams) Handle {
	m, ok := meshes.get(meshHandle)
	if !ok {
		setLastError("invalid mesh handle")
		return NilHandle
	}
	p, err := weldpath.NewPathFromMeshBoundary(m, params.toParams())
	if err != nil {
		setLastError(err.Error())
		return NilHandle
	}
	return paths.add(p)
}

// DestroyPath releases the path. Stale or nil handles are ignored.
func DestroyPath(h Handle) {
	paths.remove(h)
}

// PathCount returns the number of weld points, -1 for a bad handle.
func PathCount(h Handle) int {
	p, ok := paths.get(h)
	if !ok {
		return -1
	}
	return p.Size()
}

// PathPoints fills out with the packed weld points; it must hold count
// entries.
func PathPoints(h Handle, out []WeldPointData) Code {
	p, ok := paths.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if len(out) < p.Size() {
		return failParam(errors.Errorf("output buffer holds %d points, need %d", len(out), p.Size()))
	}
	for i := 0; i < p.Size(); i++ {
		wp := p.Point(i)
		out[i] = WeldPointData{
			Position:  [3]float32{float32(wp.Position.X), float32(wp.Position.Y), float32(wp.Position.Z)},
			Normal:    [3]float32{float32(wp.Normal.X), float32(wp.Normal.Y), float32(wp.Normal.Z)},
			Tangent:   [3]float32{float32(wp.Tangent.X), float32(wp.Tangent.Y), float32(wp.Tangent.Z)},
			ArcLength: float32(wp.ArcLength),
		}
	}
	return Success
}

// PathApplyWeave modulates the path with the given weave pattern.
func PathApplyWeave(h Handle, weaveType int32, amplitude, frequency float64) Code {
	p, ok := paths.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	p.ApplyWeave(weldpath.WeaveKind(weaveType), amplitude, frequency)
	return Success
}

// PathResample resamples the path at the given arc-length step.
func PathResample(h Handle, step float64) Code {
	p, ok := paths.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if step <= 0 {
		return failParam(errors.Errorf("step must be positive, got %v", step))
	}
	if err := p.Resample(step); err != nil {
		return fail(err)
	}
	return Success
}

// PathSmooth applies a moving-average smoother of the given window.
func PathSmooth(h Handle, window int) Code {
	p, ok := paths.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	if window < 3 {
		return failParam(errors.Errorf("window must be at least 3, got %d", window))
	}
	if err := p.Smooth(window); err != nil {
		return fail(err)
	}
	return Success
}

// PathToJoints converts the path to a joint trajectory against the given
// robot. outJoints must hold 6*count values and outReachable count flags.
// The path and robot handles are borrowed; neither owns the other.
func PathToJoints(pathHandle, robotHandle Handle, standoff float64, outJoints []float64, outReachable []bool) Code {
	p, ok := paths.get(pathHandle)
	if !ok {
		return ErrInvalidHandle
	}
	m, ok := robots.get(robotHandle)
	if !ok {
		return ErrInvalidHandle
	}
	if len(outJoints) < p.Size()*kinematics.NumJoints || len(outReachable) < p.Size() {
		return failParam(errors.Errorf("output buffers hold %d joints/%d flags, need %d/%d",
			len(outJoints), len(outReachable), p.Size()*kinematics.NumJoints, p.Size()))
	}

	jt, err := p.ToJointTrajectory(m, standoff)
	if err != nil {
		return fail(err)
	}
	for i := 0; i < jt.Size(); i++ {
		copy(outJoints[i*kinematics.NumJoints:], jt.Joints[i])
		outReachable[i] = jt.Reachable[i]
	}
	return Success
}
