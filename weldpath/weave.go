package weldpath

import (
	"math"

	"github.com/golang/geo/r3"
)

// nominalTravel converts arc length into weave phase: tau = arc / 0.01.
// This is a dimensionless arc-length scale, not a physical travel speed.
const nominalTravel = 0.01

// ApplyWeave displaces every weld point by the selected periodic pattern.
// The lateral direction is tangent x normal; circular and figure-eight
// weaves also oscillate along the normal. WeaveNone leaves the path
// untouched.
func (p *Path) ApplyWeave(kind WeaveKind, amplitude, frequency float64) {
	if kind == WeaveNone || len(p.points) == 0 {
		return
	}
	p.params.WeaveKind = kind
	p.params.WeaveAmplitude = amplitude
	p.params.WeaveFrequency = frequency

	for i := range p.points {
		wp := &p.points[i]
		tau := wp.ArcLength / nominalTravel
		lateral := unitOr(wp.Tangent.Cross(wp.Normal), r3.Vector{})

		var lateralOffset, normalOffset float64
		switch kind {
		case WeaveZigzag:
			phase := fract(frequency * tau)
			if phase < 0.5 {
				lateralOffset = amplitude * (4*phase - 1)
			} else {
				lateralOffset = amplitude * (3 - 4*phase)
			}
		case WeaveCircular:
			lateralOffset = amplitude * math.Sin(2*math.Pi*frequency*tau)
			normalOffset = 0.5 * amplitude * math.Cos(2*math.Pi*frequency*tau)
		case WeaveTriangle:
			phase := fract(frequency * tau)
			lateralOffset = amplitude * (1 - 4*math.Abs(phase-0.5))
		case WeaveFigureEight:
			lateralOffset = amplitude * math.Sin(4*math.Pi*frequency*tau)
			normalOffset = 0.5 * amplitude * math.Sin(2*math.Pi*frequency*tau)
		}

		wp.Position = wp.Position.
			Add(lateral.Mul(lateralOffset)).
			Add(wp.Normal.Mul(normalOffset))
	}
}

func fract(v float64) float64 {
	return v - math.Floor(v)
}
