package weldpath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Resample replaces the path with ceil(L/step)+1 points at arc lengths
// 0, step, 2*step, ..., L, linearly interpolating position, normal and
// tangent between the bracketing source points. Normals and tangents are
// renormalized and arc length is recomputed from the interpolated
// positions. Paths with fewer than two points are left unchanged.
func (p *Path) Resample(step float64) error {
	if step <= 0 {
		return errors.Errorf("step must be positive, got %v", step)
	}
	if len(p.points) < 2 {
		return nil
	}
	p.params.StepSize = step

	total := p.points[len(p.points)-1].ArcLength
	count := int(math.Ceil(total/step)) + 1

	resampled := make([]WeldPoint, 0, count)
	srcIdx := 0
	for i := 0; i < count; i++ {
		target := float64(i) * step
		if target > total {
			target = total
		}

		for srcIdx < len(p.points)-2 && p.points[srcIdx+1].ArcLength < target {
			srcIdx++
		}

		p0, p1 := p.points[srcIdx], p.points[srcIdx+1]
		span := p1.ArcLength - p0.ArcLength
		t := 0.0
		if span > 0 {
			t = (target - p0.ArcLength) / span
		}
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}

		resampled = append(resampled, WeldPoint{
			Position:  lerp(p0.Position, p1.Position, t),
			Normal:    unitOr(lerp(p0.Normal, p1.Normal, t), p0.Normal),
			Tangent:   unitOr(lerp(p0.Tangent, p1.Tangent, t), p0.Tangent),
			ArcLength: target,
		})
	}

	p.points = resampled
	p.recomputeArcLength()
	return nil
}

// Smooth applies a moving average of the given window to interior positions
// and normals; the window/2 points at each boundary are left unchanged.
// Normals are renormalized, tangents and arc length recomputed. The window
// must be at least 3; windows wider than the path are a no-op.
func (p *Path) Smooth(window int) error {
	if window < 3 {
		return errors.Errorf("window must be at least 3, got %d", window)
	}
	if len(p.points) < window {
		return nil
	}

	half := window / 2
	smoothed := make([]WeldPoint, len(p.points))
	copy(smoothed, p.points)

	// The centered window spans 2*half+1 samples; even window sizes round
	// up to the next odd span.
	inv := 1 / float64(2*half+1)
	for i := half; i < len(p.points)-half; i++ {
		var posSum, normSum r3.Vector
		for j := -half; j <= half; j++ {
			posSum = posSum.Add(p.points[i+j].Position)
			normSum = normSum.Add(p.points[i+j].Normal)
		}
		smoothed[i].Position = posSum.Mul(inv)
		smoothed[i].Normal = unitOr(normSum.Mul(inv), p.points[i].Normal)
	}

	p.points = smoothed
	p.recomputeTangents()
	p.recomputeArcLength()
	return nil
}

func lerp(a, b r3.Vector, t float64) r3.Vector {
	return a.Add(b.Sub(a).Mul(t))
}
